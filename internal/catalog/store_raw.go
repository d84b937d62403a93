package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"tooltally/internal/pipeline"
)

// InsertRawListing appends a scraped row. Listings missing a price or buy
// URL are rejected with ErrMalformedInput; a listing whose (vendor, buy_url)
// already exists is rejected with ErrUniquenessConflict so callers can count
// it as a duplicate rather than fail the batch.
func (s *Store) InsertRawListing(ctx context.Context, listing *RawListing) (int64, error) {
	if listing == nil {
		return 0, pipeline.Wrap(pipeline.ErrMalformedInput, "catalog", "insert raw listing", "nil listing", nil)
	}
	if strings.TrimSpace(listing.BuyURL) == "" {
		return 0, pipeline.Wrap(pipeline.ErrMalformedInput, "catalog", "insert raw listing", "missing buy url", nil)
	}
	if listing.Price <= 0 {
		return 0, pipeline.Wrap(pipeline.ErrMalformedInput, "catalog", "insert raw listing", "missing or non-positive price", nil)
	}
	if strings.TrimSpace(listing.Vendor) == "" {
		return 0, pipeline.Wrap(pipeline.ErrMalformedInput, "catalog", "insert raw listing", "missing vendor", nil)
	}

	currency := listing.Currency
	if currency == "" {
		currency = "GBP"
	}
	scrapedAt := listing.ScrapedAt
	if scrapedAt.IsZero() {
		scrapedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO raw_listings (
            vendor, title, price, currency, buy_url, vendor_sku,
            category_name, ean, mpn, in_stock, scraped_at, processed, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		listing.Vendor,
		listing.Title,
		listing.Price,
		currency,
		listing.BuyURL,
		nullableString(listing.VendorSKU),
		nullableString(listing.CategoryName),
		nullableString(listing.EAN),
		nullableString(listing.MPN),
		boolToInt(listing.InStock),
		formatTime(scrapedAt),
		formatTime(time.Now().UTC()),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, pipeline.Wrap(pipeline.ErrUniquenessConflict, "catalog", "insert raw listing", listing.BuyURL, err)
		}
		return 0, fmt.Errorf("insert raw listing: %w", err)
	}
	return res.LastInsertId()
}

// RawListings returns raw rows ordered by scrape time then id so brand and
// category creation order is deterministic across runs. With onlyPending set
// it returns unprocessed rows only.
func (s *Store) RawListings(ctx context.Context, onlyPending bool) ([]*RawListing, error) {
	query := `SELECT ` + rawListingColumns + ` FROM raw_listings`
	if onlyPending {
		query += ` WHERE processed = 0`
	}
	query += ` ORDER BY scraped_at, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query raw listings: %w", err)
	}
	defer rows.Close()

	var listings []*RawListing
	for rows.Next() {
		listing, err := scanRawListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, listing)
	}
	return listings, rows.Err()
}

// RawListingByID fetches a single raw row, or nil when absent.
func (s *Store) RawListingByID(ctx context.Context, id int64) (*RawListing, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+rawListingColumns+` FROM raw_listings WHERE id = ?`, id)
	listing, err := scanRawListing(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get raw listing: %w", err)
	}
	return listing, nil
}

const rawListingColumns = "id, vendor, title, price, currency, buy_url, vendor_sku, category_name, ean, mpn, in_stock, scraped_at, processed, product_id, created_at"

func scanRawListing(scanner interface{ Scan(dest ...any) error }) (*RawListing, error) {
	var (
		id         int64
		vendor     string
		title      string
		price      int64
		currency   string
		buyURL     string
		vendorSKU  sql.NullString
		category   sql.NullString
		ean        sql.NullString
		mpn        sql.NullString
		inStock    sql.NullInt64
		scrapedRaw sql.NullString
		processed  int
		productID  sql.NullInt64
		createdRaw sql.NullString
	)

	if err := scanner.Scan(
		&id, &vendor, &title, &price, &currency, &buyURL, &vendorSKU,
		&category, &ean, &mpn, &inStock, &scrapedRaw, &processed, &productID, &createdRaw,
	); err != nil {
		return nil, err
	}

	listing := &RawListing{
		ID:           id,
		Vendor:       vendor,
		Title:        title,
		Price:        price,
		Currency:     currency,
		BuyURL:       buyURL,
		VendorSKU:    vendorSKU.String,
		CategoryName: category.String,
		EAN:          ean.String,
		MPN:          mpn.String,
		InStock:      inStock.Valid && inStock.Int64 != 0,
		Processed:    processed != 0,
	}
	if productID.Valid {
		pid := productID.Int64
		listing.ProductID = &pid
	}
	if scraped, err := parseTimeString(scrapedRaw.String); err == nil {
		listing.ScrapedAt = scraped
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		listing.CreatedAt = created
	}
	return listing, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed: UNIQUE")
}
