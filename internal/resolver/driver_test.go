package resolver_test

import (
	"context"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"tooltally/internal/catalog"
	"tooltally/internal/config"
	"tooltally/internal/fingerprint"
	"tooltally/internal/logging"
	"tooltally/internal/resolver"
	"tooltally/internal/testsupport"
)

func newDriver(t *testing.T, cfg *config.Config, store *catalog.Store) *resolver.Driver {
	t.Helper()
	driver, err := resolver.New(cfg, store, logging.Discard())
	if err != nil {
		t.Fatalf("resolver.New: %v", err)
	}
	return driver
}

func TestRunMergesSharedMPNAcrossVendors(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewListing(t, store,
		"Toolstation", "Makita DHP484Z 18V Li-ion Brushless Combi Drill Body Only", "Drills",
		"https://toolstation.example/p/1",
		testsupport.WithIdentifiers("", "DHP484Z"))
	testsupport.NewListing(t, store,
		"Screwfix", "Makita 18V Combi Drill - Bare", "Drills",
		"https://screwfix.example/p/1",
		testsupport.WithIdentifiers("", "DHP484Z"))

	summary, err := newDriver(t, cfg, store).Run(ctx, resolver.Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Loaded != 2 || summary.Skipped != 0 {
		t.Fatalf("unexpected load counts: %+v", summary)
	}
	if summary.TierCounts[fingerprint.TierMPN] != 2 {
		t.Fatalf("unexpected tier counts: %+v", summary.TierCounts)
	}
	if summary.NewProducts != 1 {
		t.Fatalf("expected 1 new product, got %d", summary.NewProducts)
	}

	products, err := store.Products(ctx)
	if err != nil {
		t.Fatalf("Products: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(products))
	}
	if products[0].NormalizedKey != "mpn:MAKITA|DHP484Z" {
		t.Fatalf("unexpected normalized key %q", products[0].NormalizedKey)
	}
	offers, err := store.OffersForProduct(ctx, products[0].ID)
	if err != nil {
		t.Fatalf("OffersForProduct: %v", err)
	}
	if len(offers) != 2 {
		t.Fatalf("expected 2 offers, got %d", len(offers))
	}
}

func TestRunTitleOnlyListingCreatesFuzzyProduct(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewListing(t, store,
		"UK Planet Tools", "Bosch GSB 18V-55 Combi Drill (Bare)", "Combi Drills",
		"https://ukplanet.example/p/1")

	summary, err := newDriver(t, cfg, store).Run(ctx, resolver.Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.TierCounts[fingerprint.TierFuzzy] != 1 || summary.NewProducts != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	products, err := store.Products(ctx)
	if err != nil {
		t.Fatalf("Products: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(products))
	}
	if !strings.HasPrefix(products[0].NormalizedKey, "fuzzy:") {
		t.Fatalf("expected fuzzy key, got %q", products[0].NormalizedKey)
	}
}

func TestRunFuzzyMergeRecordsAlias(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewListing(t, store,
		"UK Planet Tools", "Bosch GSB 18V-55 Combi Drill (Bare)", "Combi Drills",
		"https://ukplanet.example/p/1")
	testsupport.NewListing(t, store,
		"FFX", "Bosch GSB 18V-55 Combi Drill Bare", "Combi Drills",
		"https://ffx.example/p/1")

	summary, err := newDriver(t, cfg, store).Run(ctx, resolver.Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.FuzzyMerges != 1 {
		t.Fatalf("expected 1 fuzzy merge, got %+v", summary)
	}
	if summary.Applied.AliasesInserted != 1 {
		t.Fatalf("expected 1 alias, got %+v", summary.Applied)
	}

	products, err := store.Products(ctx)
	if err != nil {
		t.Fatalf("Products: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("fuzzy merge did not collapse to one product, got %d", len(products))
	}
	aliases, err := store.Aliases(ctx, products[0].ID)
	if err != nil {
		t.Fatalf("Aliases: %v", err)
	}
	if len(aliases) != 1 || aliases[0].Score <= 0.82 {
		t.Fatalf("unexpected aliases: %+v", aliases)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewListing(t, store,
		"Toolstation", "Makita DHP484Z 18V Combi Drill", "Drills",
		"https://toolstation.example/p/1",
		testsupport.WithIdentifiers("", "DHP484Z"))
	testsupport.NewListing(t, store,
		"Screwfix", "Makita DHP484Z 18V Combi Drill", "Drills",
		"https://screwfix.example/p/1",
		testsupport.WithIdentifiers("", "DHP484Z"))

	driver := newDriver(t, cfg, store)
	if _, err := driver.Run(ctx, resolver.Options{}); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	before, err := store.Offers(ctx)
	if err != nil {
		t.Fatalf("Offers: %v", err)
	}

	// Nothing pending: a second run must not duplicate or move anything.
	summary, err := driver.Run(ctx, resolver.Options{})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if summary.Loaded != 0 {
		t.Fatalf("expected no pending rows, loaded %d", summary.Loaded)
	}
	after, err := store.Offers(ctx)
	if err != nil {
		t.Fatalf("Offers: %v", err)
	}
	if len(after) != len(before) {
		t.Fatalf("offer count changed: %d -> %d", len(before), len(after))
	}
	for i := range after {
		if after[i].ID != before[i].ID || after[i].ProductID != before[i].ProductID {
			t.Fatalf("offer rows moved: %+v vs %+v", before[i], after[i])
		}
	}
}

func TestRunIncrementalSeedJoinsExistingProduct(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewListing(t, store,
		"Toolstation", "Makita DHP484Z 18V Combi Drill", "Drills",
		"https://toolstation.example/p/1",
		testsupport.WithIdentifiers("", "DHP484Z"))
	driver := newDriver(t, cfg, store)
	if _, err := driver.Run(ctx, resolver.Options{}); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	// A later scrape of the same model at another vendor joins the stored
	// product instead of creating a twin.
	testsupport.NewListing(t, store,
		"FFX", "Makita DHP484Z Combi Drill Body Only", "Drills",
		"https://ffx.example/p/1",
		testsupport.WithIdentifiers("", "DHP484Z"))
	summary, err := driver.Run(ctx, resolver.Options{})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if summary.NewProducts != 0 {
		t.Fatalf("expected no new products, got %d", summary.NewProducts)
	}

	products, err := store.Products(ctx)
	if err != nil {
		t.Fatalf("Products: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(products))
	}
	offers, err := store.OffersForProduct(ctx, products[0].ID)
	if err != nil {
		t.Fatalf("OffersForProduct: %v", err)
	}
	if len(offers) != 2 {
		t.Fatalf("expected 2 offers, got %d", len(offers))
	}
}

func TestRunDryRunWritesNothing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewListing(t, store,
		"Toolstation", "Makita DHP484Z 18V Combi Drill", "Drills",
		"https://toolstation.example/p/1",
		testsupport.WithIdentifiers("", "DHP484Z"))

	summary, err := newDriver(t, cfg, store).Run(ctx, resolver.Options{DryRun: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !summary.DryRun || summary.Loaded != 1 || summary.NewProducts != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	products, err := store.Products(ctx)
	if err != nil {
		t.Fatalf("Products: %v", err)
	}
	if len(products) != 0 {
		t.Fatalf("dry run wrote %d products", len(products))
	}
	pending, err := store.RawListings(ctx, true)
	if err != nil {
		t.Fatalf("RawListings: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("dry run consumed pending rows, %d left", len(pending))
	}
}

func TestRunFullRebuildReprocessesEverything(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewListing(t, store,
		"Toolstation", "Makita DHP484Z 18V Combi Drill", "Drills",
		"https://toolstation.example/p/1",
		testsupport.WithIdentifiers("", "DHP484Z"))
	testsupport.NewListing(t, store,
		"Screwfix", "Makita DHP484Z 18V Combi Drill", "Drills",
		"https://screwfix.example/p/1",
		testsupport.WithIdentifiers("", "DHP484Z"))

	driver := newDriver(t, cfg, store)
	if _, err := driver.Run(ctx, resolver.Options{}); err != nil {
		t.Fatalf("incremental Run: %v", err)
	}

	summary, err := driver.Run(ctx, resolver.Options{FullRebuild: true})
	if err != nil {
		t.Fatalf("rebuild Run: %v", err)
	}
	if summary.Loaded != 2 {
		t.Fatalf("rebuild should reload all rows, loaded %d", summary.Loaded)
	}
	if summary.Applied.ProductsInserted != 1 || summary.Applied.OffersInserted != 2 {
		t.Fatalf("unexpected rebuild result: %+v", summary.Applied)
	}

	products, err := store.Products(ctx)
	if err != nil {
		t.Fatalf("Products: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("expected 1 product after rebuild, got %d", len(products))
	}
	pending, err := store.RawListings(ctx, true)
	if err != nil {
		t.Fatalf("RawListings: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("rebuild left %d rows pending", len(pending))
	}
}

func TestRunSkipsMalformedRows(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewListing(t, store, "FFX", "", "Drills", "https://ffx.example/p/junk")
	testsupport.NewListing(t, store,
		"FFX", "Makita DHP484Z 18V Combi Drill", "Drills",
		"https://ffx.example/p/1",
		testsupport.WithIdentifiers("", "DHP484Z"))

	summary, err := newDriver(t, cfg, store).Run(ctx, resolver.Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Skipped != 1 {
		t.Fatalf("expected 1 skipped row, got %+v", summary)
	}

	// The malformed row stays pending so a corrected rescrape can replace it.
	pending, err := store.RawListings(ctx, true)
	if err != nil {
		t.Fatalf("RawListings: %v", err)
	}
	if len(pending) != 1 || pending[0].Title != "" {
		t.Fatalf("unexpected pending rows: %+v", pending)
	}
}

func TestRunRefusesConcurrentInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	driver := newDriver(t, cfg, store)
	other := flock.New(driver.LockPath())
	ok, err := other.TryLock()
	if err != nil {
		t.Fatalf("TryLock: %v", err)
	}
	if !ok {
		t.Fatal("could not take test lock")
	}
	defer other.Unlock()

	if _, err := driver.Run(context.Background(), resolver.Options{}); err == nil {
		t.Fatal("expected lock contention error")
	}
}

func TestRunPhaseReflectsOutcome(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	testsupport.NewListing(t, store,
		"FFX", "Makita DHP484Z 18V Combi Drill", "Drills",
		"https://ffx.example/p/1",
		testsupport.WithIdentifiers("", "DHP484Z"))

	driver := newDriver(t, cfg, store)
	if got := driver.Phase(); got != resolver.PhaseIdle {
		t.Fatalf("Phase before any run = %q", got)
	}

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := driver.Run(cancelled, resolver.Options{}); err == nil {
		t.Fatal("expected cancelled run to fail")
	}
	if got := driver.Phase(); got != resolver.PhaseFailed {
		t.Fatalf("Phase after failed run = %q", got)
	}

	if _, err := driver.Run(context.Background(), resolver.Options{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := driver.Phase(); got != resolver.PhaseIdle {
		t.Fatalf("Phase after successful run = %q", got)
	}
}
