// Package ingest loads scraper output into the raw listing log. Input is
// JSONL: one listing object per line, prices in pounds. Bad lines are
// counted and skipped so one mangled row never sinks a batch.
package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"time"

	"tooltally/internal/catalog"
	"tooltally/internal/pipeline"
)

// Record is one scraped listing on the wire.
type Record struct {
	Vendor    string  `json:"vendor"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	Currency  string  `json:"currency,omitempty"`
	BuyURL    string  `json:"url"`
	SKU       string  `json:"sku,omitempty"`
	Category  string  `json:"category,omitempty"`
	EAN       string  `json:"ean,omitempty"`
	MPN       string  `json:"mpn,omitempty"`
	InStock   *bool   `json:"in_stock,omitempty"`
	ScrapedAt string  `json:"scraped_at,omitempty"`
}

// Result reports what an ingest batch did with its input.
type Result struct {
	Read       int
	Inserted   int
	Duplicates int
	Malformed  int
}

// maxLineBytes bounds a single JSONL line; vendor titles are short but
// scraper bugs have produced megabyte lines before.
const maxLineBytes = 1 << 20

// File ingests a JSONL file into the raw listing log.
func File(ctx context.Context, store *catalog.Store, logger *slog.Logger, path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open ingest file: %w", err)
	}
	defer f.Close()
	return Reader(ctx, store, logger, f)
}

// Reader ingests JSONL listings from r. Duplicate (vendor, url) rows and
// malformed lines are counted and skipped; any other store failure aborts
// the batch.
func Reader(ctx context.Context, store *catalog.Store, logger *slog.Logger, r io.Reader) (Result, error) {
	var result Result
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return result, err
		}
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		result.Read++

		var record Record
		if err := json.Unmarshal(raw, &record); err != nil {
			result.Malformed++
			logger.Warn("skipping unparseable line", "line", line, "error", err)
			continue
		}

		listing, err := record.toListing()
		if err != nil {
			result.Malformed++
			logger.Warn("skipping malformed listing", "line", line, "error", err)
			continue
		}

		switch _, err := store.InsertRawListing(ctx, listing); {
		case err == nil:
			result.Inserted++
		case errors.Is(err, pipeline.ErrUniquenessConflict):
			result.Duplicates++
		case errors.Is(err, pipeline.ErrMalformedInput):
			result.Malformed++
			logger.Warn("skipping malformed listing", "line", line, "error", err)
		default:
			return result, err
		}
	}
	if err := scanner.Err(); err != nil {
		return result, fmt.Errorf("read ingest input: %w", err)
	}

	logger.Info("ingest complete",
		"read", result.Read,
		"inserted", result.Inserted,
		"duplicates", result.Duplicates,
		"malformed", result.Malformed)
	return result, nil
}

func (r Record) toListing() (*catalog.RawListing, error) {
	listing := &catalog.RawListing{
		Vendor:       r.Vendor,
		Title:        r.Title,
		Price:        int64(math.Round(r.Price * 100)),
		Currency:     r.Currency,
		BuyURL:       r.BuyURL,
		VendorSKU:    r.SKU,
		CategoryName: r.Category,
		EAN:          r.EAN,
		MPN:          r.MPN,
		InStock:      true,
	}
	if r.InStock != nil {
		listing.InStock = *r.InStock
	}
	if r.ScrapedAt != "" {
		at, err := time.Parse(time.RFC3339, r.ScrapedAt)
		if err != nil {
			return nil, fmt.Errorf("parse scraped_at: %w", err)
		}
		listing.ScrapedAt = at.UTC()
	}
	return listing, nil
}
