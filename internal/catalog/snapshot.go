package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"tooltally/internal/pipeline"
	"tooltally/internal/textutil"
)

// Snapshot is the in-memory canonical set a resolver run computes before
// committing. Products appear in the order the matcher created them, which
// keeps row-id assignment deterministic across identical runs.
type Snapshot struct {
	Products []*ProductDraft
}

// ProductDraft is a canonical product awaiting its database identity.
type ProductDraft struct {
	Brand            string
	MPN              string
	EAN              string
	Name             string
	CategoryName     string
	VariantSignature string
	NormalizedKey    string
	Offers           []*OfferDraft
	Aliases          []*AliasDraft
}

// OfferDraft is a vendor offer awaiting insertion, carrying the raw listing
// id it came from so the row can be flagged processed in the same commit.
type OfferDraft struct {
	VendorName string
	Price      int64
	Currency   string
	BuyURL     string
	VendorSKU  string
	InStock    bool
	ScrapedAt  time.Time
	RawID      int64
}

// AliasDraft records a fuzzy-merge audit entry for insertion.
type AliasDraft struct {
	RawTitle   string
	Score      float64
	VendorName string
}

// ApplyOptions controls how a snapshot is committed.
type ApplyOptions struct {
	// FullRebuild clears products, offers, and aliases before writing.
	// Vendors and categories are reference tables and survive rebuilds.
	FullRebuild bool
}

// ApplyResult reports what the commit changed. Conflicts carries one
// ErrAmbiguousMerge-classified error per flagged offer so callers can log
// them for review; flagged offers are dropped, never re-pointed.
type ApplyResult struct {
	ProductsInserted int
	ProductsUpdated  int
	OffersInserted   int
	OffersUpdated    int
	OffersFlagged    int
	AliasesInserted  int
	RawMarked        int
	Conflicts        []error
}

// ApplySnapshot commits a resolver run's canonical set in one transaction:
// canonical rows are written (or replaced under FullRebuild) and the source
// raw listings are marked processed. Any failure rolls the whole write back,
// leaving the prior committed state untouched.
func (s *Store) ApplySnapshot(ctx context.Context, snap *Snapshot, opts ApplyOptions) (ApplyResult, error) {
	var result ApplyResult
	if snap == nil {
		return result, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return result, pipeline.Wrap(pipeline.ErrTransaction, "catalog", "begin canonical write", "", err)
	}
	defer func() { _ = tx.Rollback() }()

	if opts.FullRebuild {
		for _, table := range []string{"product_aliases", "offers"} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
				return result, pipeline.Wrap(pipeline.ErrTransaction, "catalog", "clear "+table, "", err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE raw_listings SET processed = 0, product_id = NULL`); err != nil {
			return result, pipeline.Wrap(pipeline.ErrTransaction, "catalog", "reset raw listings", "", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM products`); err != nil {
			return result, pipeline.Wrap(pipeline.ErrTransaction, "catalog", "clear products", "", err)
		}
	}

	vendorIDs := map[string]int64{}
	categoryIDs := map[string]int64{}

	for _, draft := range snap.Products {
		categoryID, err := getOrCreateCategory(ctx, tx, categoryIDs, draft.CategoryName)
		if err != nil {
			return result, err
		}

		productID, inserted, err := upsertProduct(ctx, tx, draft, categoryID)
		if err != nil {
			return result, err
		}
		if inserted {
			result.ProductsInserted++
		} else {
			result.ProductsUpdated++
		}

		for _, offer := range draft.Offers {
			vendorID, err := getOrCreateVendor(ctx, tx, vendorIDs, offer.VendorName)
			if err != nil {
				return result, err
			}
			outcome, err := upsertOffer(ctx, tx, productID, vendorID, offer)
			if err != nil {
				return result, err
			}
			switch outcome {
			case offerInserted:
				result.OffersInserted++
			case offerUpdated:
				result.OffersUpdated++
			case offerFlagged:
				result.OffersFlagged++
				result.Conflicts = append(result.Conflicts, pipeline.Wrap(
					pipeline.ErrAmbiguousMerge, "catalog", "upsert offer",
					offer.BuyURL+" already belongs to another product", nil))
				continue
			}
			if offer.RawID > 0 {
				if _, err := tx.ExecContext(ctx,
					`UPDATE raw_listings SET processed = 1, product_id = ? WHERE id = ?`,
					productID, offer.RawID,
				); err != nil {
					return result, pipeline.Wrap(pipeline.ErrTransaction, "catalog", "mark raw listing", "", err)
				}
				result.RawMarked++
			}
		}

		for _, alias := range draft.Aliases {
			var vendorID any
			if alias.VendorName != "" {
				id, err := getOrCreateVendor(ctx, tx, vendorIDs, alias.VendorName)
				if err != nil {
					return result, err
				}
				vendorID = id
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO product_aliases (product_id, raw_title, score, vendor_id, created_at)
                 VALUES (?, ?, ?, ?, ?)`,
				productID, alias.RawTitle, alias.Score, vendorID, formatTime(time.Now().UTC()),
			); err != nil {
				return result, pipeline.Wrap(pipeline.ErrTransaction, "catalog", "insert alias", "", err)
			}
			result.AliasesInserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return ApplyResult{}, pipeline.Wrap(pipeline.ErrTransaction, "catalog", "commit canonical write", "", err)
	}
	return result, nil
}

// getOrCreateCategory resolves a category name to its row id. The slug is
// the identity: names that only differ in punctuation or casing ("Power
// Tools", "Power-Tools") share one row, so the lookup matches by slug as
// well as by name and the cache is keyed on the slug.
func getOrCreateCategory(ctx context.Context, tx *sql.Tx, cache map[string]int64, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Uncategorised"
	}
	slug := textutil.Slugify(name)
	if id, ok := cache[slug]; ok {
		return id, nil
	}

	var id int64
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM categories WHERE slug = ? OR lower(name) = lower(?)`, slug, name).Scan(&id)
	if err == nil {
		cache[slug] = id
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("lookup category: %w", err)
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO categories (name, slug) VALUES (?, ?)`, name, slug)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, pipeline.Wrap(pipeline.ErrUniquenessConflict, "catalog", "insert category", name, err)
		}
		return 0, pipeline.Wrap(pipeline.ErrTransaction, "catalog", "insert category", name, err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("category id: %w", err)
	}
	cache[slug] = id
	return id, nil
}

func getOrCreateVendor(ctx context.Context, tx *sql.Tx, cache map[string]int64, name string) (int64, error) {
	name = strings.TrimSpace(name)
	slug := textutil.Slugify(name)
	if id, ok := cache[slug]; ok {
		return id, nil
	}

	var id int64
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM vendors WHERE slug = ? OR lower(name) = lower(?)`, slug, name).Scan(&id)
	if err == nil {
		cache[slug] = id
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("lookup vendor: %w", err)
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO vendors (name, slug) VALUES (?, ?)`, name, slug)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, pipeline.Wrap(pipeline.ErrUniquenessConflict, "catalog", "insert vendor", name, err)
		}
		return 0, pipeline.Wrap(pipeline.ErrTransaction, "catalog", "insert vendor", name, err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("vendor id: %w", err)
	}
	cache[slug] = id
	return id, nil
}

func upsertProduct(ctx context.Context, tx *sql.Tx, draft *ProductDraft, categoryID int64) (int64, bool, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM products WHERE normalized_key = ?`, draft.NormalizedKey).Scan(&id)
	if err == nil {
		if _, err := tx.ExecContext(ctx,
			`UPDATE products
             SET mpn = COALESCE(mpn, ?),
                 ean = COALESCE(ean, ?),
                 variant_signature = COALESCE(variant_signature, ?)
             WHERE id = ?`,
			nullableString(draft.MPN),
			nullableString(draft.EAN),
			nullableString(draft.VariantSignature),
			id,
		); err != nil {
			return 0, false, pipeline.Wrap(pipeline.ErrTransaction, "catalog", "update product", draft.NormalizedKey, err)
		}
		return id, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, false, fmt.Errorf("lookup product: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO products (brand, mpn, ean, name, category_id, variant_signature, normalized_key)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		draft.Brand,
		nullableString(draft.MPN),
		nullableString(draft.EAN),
		draft.Name,
		categoryID,
		nullableString(draft.VariantSignature),
		draft.NormalizedKey,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, false, pipeline.Wrap(pipeline.ErrUniquenessConflict, "catalog", "insert product", draft.NormalizedKey, err)
		}
		return 0, false, pipeline.Wrap(pipeline.ErrTransaction, "catalog", "insert product", draft.NormalizedKey, err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, false, fmt.Errorf("product id: %w", err)
	}
	return id, true, nil
}

type offerOutcome int

const (
	offerInserted offerOutcome = iota
	offerUpdated
	offerFlagged
)

// upsertOffer inserts the offer or merges it into the row already holding
// its buy URL or (vendor, sku) slot. A conflicting row that belongs to a
// different product is upstream duplicate evidence: the incoming offer is
// flagged rather than allowed to re-point another product's offer.
func upsertOffer(ctx context.Context, tx *sql.Tx, productID, vendorID int64, offer *OfferDraft) (offerOutcome, error) {
	var existingID, existingProduct int64
	err := tx.QueryRowContext(ctx,
		`SELECT id, product_id FROM offers WHERE buy_url = ?`, offer.BuyURL,
	).Scan(&existingID, &existingProduct)
	if errors.Is(err, sql.ErrNoRows) && offer.VendorSKU != "" {
		err = tx.QueryRowContext(ctx,
			`SELECT id, product_id FROM offers WHERE vendor_id = ? AND vendor_sku = ?`,
			vendorID, offer.VendorSKU,
		).Scan(&existingID, &existingProduct)
	}

	switch {
	case err == nil:
		if existingProduct != productID {
			return offerFlagged, nil
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE offers
             SET price = ?, currency = ?, buy_url = ?, vendor_sku = ?, in_stock = ?, scraped_at = ?
             WHERE id = ?`,
			offer.Price,
			offer.Currency,
			offer.BuyURL,
			nullableString(offer.VendorSKU),
			boolToInt(offer.InStock),
			formatTime(offer.ScrapedAt),
			existingID,
		); err != nil {
			return 0, pipeline.Wrap(pipeline.ErrTransaction, "catalog", "update offer", offer.BuyURL, err)
		}
		return offerUpdated, nil
	case errors.Is(err, sql.ErrNoRows):
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO offers (product_id, vendor_id, price, currency, buy_url, vendor_sku, in_stock, scraped_at, created_at)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			productID,
			vendorID,
			offer.Price,
			offer.Currency,
			offer.BuyURL,
			nullableString(offer.VendorSKU),
			boolToInt(offer.InStock),
			formatTime(offer.ScrapedAt),
			formatTime(time.Now().UTC()),
		); err != nil {
			if isUniqueViolation(err) {
				return offerFlagged, nil
			}
			return 0, pipeline.Wrap(pipeline.ErrTransaction, "catalog", "insert offer", offer.BuyURL, err)
		}
		return offerInserted, nil
	default:
		return 0, fmt.Errorf("lookup offer: %w", err)
	}
}
