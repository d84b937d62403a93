package testsupport

import (
	"context"
	"testing"
	"time"

	"tooltally/internal/catalog"
	"tooltally/internal/config"
)

// MustOpenStore opens a catalog.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// ListingOption mutates a raw listing fixture before insertion.
type ListingOption func(*catalog.RawListing)

// WithIdentifiers sets the EAN and MPN fields on a listing fixture.
func WithIdentifiers(ean, mpn string) ListingOption {
	return func(l *catalog.RawListing) {
		l.EAN = ean
		l.MPN = mpn
	}
}

// WithPrice overrides the pence price on a listing fixture.
func WithPrice(pence int64) ListingOption {
	return func(l *catalog.RawListing) {
		l.Price = pence
	}
}

// WithStock sets the in-stock flag on a listing fixture.
func WithStock(inStock bool) ListingOption {
	return func(l *catalog.RawListing) {
		l.InStock = inStock
	}
}

// WithScrapedAt overrides the scrape timestamp on a listing fixture.
func WithScrapedAt(at time.Time) ListingOption {
	return func(l *catalog.RawListing) {
		l.ScrapedAt = at
	}
}

// WithSKU sets the vendor SKU on a listing fixture.
func WithSKU(sku string) ListingOption {
	return func(l *catalog.RawListing) {
		l.VendorSKU = sku
	}
}

// NewListing inserts a raw listing fixture and returns its id. The buy URL
// doubles as the uniqueness key, so callers vary it per row.
func NewListing(t testing.TB, store *catalog.Store, vendor, title, category, buyURL string, opts ...ListingOption) int64 {
	t.Helper()

	listing := &catalog.RawListing{
		Vendor:       vendor,
		Title:        title,
		Price:        12999,
		Currency:     "GBP",
		BuyURL:       buyURL,
		CategoryName: category,
		InStock:      true,
		ScrapedAt:    time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	for _, opt := range opts {
		opt(listing)
	}

	id, err := store.InsertRawListing(context.Background(), listing)
	if err != nil {
		t.Fatalf("InsertRawListing(%s): %v", buyURL, err)
	}
	return id
}
