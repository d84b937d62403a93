package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"tooltally/internal/pipeline"
)

// Products returns every canonical product with its category name, ordered
// by id. Used to seed the matcher index for incremental runs.
func (s *Store) Products(ctx context.Context) ([]*Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.id, p.brand, p.mpn, p.ean, p.name, p.category_id, c.name, p.variant_signature, p.normalized_key
         FROM products p
         JOIN categories c ON c.id = p.category_id
         ORDER BY p.id`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		var (
			p       Product
			mpn     sql.NullString
			ean     sql.NullString
			variant sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Brand, &mpn, &ean, &p.Name, &p.CategoryID, &p.CategoryName, &variant, &p.NormalizedKey); err != nil {
			return nil, err
		}
		p.MPN = mpn.String
		p.EAN = ean.String
		p.VariantSignature = variant.String
		products = append(products, &p)
	}
	return products, rows.Err()
}

// Offers returns every offer ordered by product, vendor, then the dedupe
// preference order (in stock first, lowest price, newest scrape, largest id).
func (s *Store) Offers(ctx context.Context) ([]*Offer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, product_id, vendor_id, price, currency, buy_url, vendor_sku, in_stock, scraped_at, created_at
         FROM offers
         ORDER BY product_id, vendor_id, in_stock DESC, price ASC, scraped_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query offers: %w", err)
	}
	defer rows.Close()

	var offers []*Offer
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, offer)
	}
	return offers, rows.Err()
}

// OffersForProduct returns a product's offers ordered by price.
func (s *Store) OffersForProduct(ctx context.Context, productID int64) ([]*Offer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, product_id, vendor_id, price, currency, buy_url, vendor_sku, in_stock, scraped_at, created_at
         FROM offers WHERE product_id = ? ORDER BY price`, productID)
	if err != nil {
		return nil, fmt.Errorf("query product offers: %w", err)
	}
	defer rows.Close()

	var offers []*Offer
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, offer)
	}
	return offers, rows.Err()
}

// DeleteOffers removes the given offer rows in one transaction.
func (s *Store) DeleteOffers(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, pipeline.Wrap(pipeline.ErrTransaction, "catalog", "begin offer delete", "", err)
	}
	defer func() { _ = tx.Rollback() }()

	var removed int64
	for _, id := range ids {
		res, err := tx.ExecContext(ctx, `DELETE FROM offers WHERE id = ?`, id)
		if err != nil {
			return 0, pipeline.Wrap(pipeline.ErrTransaction, "catalog", "delete offer", "", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		removed += affected
	}

	if err := tx.Commit(); err != nil {
		return 0, pipeline.Wrap(pipeline.ErrTransaction, "catalog", "commit offer delete", "", err)
	}
	return removed, nil
}

// Vendors returns the vendor reference table ordered by name.
func (s *Store) Vendors(ctx context.Context) ([]*Vendor, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, slug, site_url FROM vendors ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query vendors: %w", err)
	}
	defer rows.Close()

	var vendors []*Vendor
	for rows.Next() {
		var (
			v    Vendor
			site sql.NullString
		)
		if err := rows.Scan(&v.ID, &v.Name, &v.Slug, &site); err != nil {
			return nil, err
		}
		v.SiteURL = site.String
		vendors = append(vendors, &v)
	}
	return vendors, rows.Err()
}

// Categories returns the category reference table ordered by name.
func (s *Store) Categories(ctx context.Context) ([]*Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, slug FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []*Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug); err != nil {
			return nil, err
		}
		categories = append(categories, &c)
	}
	return categories, rows.Err()
}

// Aliases returns fuzzy-merge audit rows for a product.
func (s *Store) Aliases(ctx context.Context, productID int64) ([]*ProductAlias, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, product_id, raw_title, score, vendor_id, created_at
         FROM product_aliases WHERE product_id = ? ORDER BY id`, productID)
	if err != nil {
		return nil, fmt.Errorf("query aliases: %w", err)
	}
	defer rows.Close()

	var aliases []*ProductAlias
	for rows.Next() {
		var (
			a          ProductAlias
			vendorID   sql.NullInt64
			createdRaw sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.ProductID, &a.RawTitle, &a.Score, &vendorID, &createdRaw); err != nil {
			return nil, err
		}
		if vendorID.Valid {
			vid := vendorID.Int64
			a.VendorID = &vid
		}
		if created, err := parseTimeString(createdRaw.String); err == nil {
			a.CreatedAt = created
		}
		aliases = append(aliases, &a)
	}
	return aliases, rows.Err()
}

func scanOffer(scanner interface{ Scan(dest ...any) error }) (*Offer, error) {
	var (
		offer      Offer
		vendorSKU  sql.NullString
		inStock    sql.NullInt64
		scrapedRaw sql.NullString
		createdRaw sql.NullString
	)
	if err := scanner.Scan(
		&offer.ID, &offer.ProductID, &offer.VendorID, &offer.Price, &offer.Currency,
		&offer.BuyURL, &vendorSKU, &inStock, &scrapedRaw, &createdRaw,
	); err != nil {
		return nil, err
	}
	offer.VendorSKU = vendorSKU.String
	offer.InStock = inStock.Valid && inStock.Int64 != 0
	if scraped, err := parseTimeString(scrapedRaw.String); err == nil {
		offer.ScrapedAt = scraped
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		offer.CreatedAt = created
	}
	return &offer, nil
}
