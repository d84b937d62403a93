package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Health aggregates catalog counts and the fingerprint-tier breakdown used
// as the operational merge-rate signal.
func (s *Store) Health(ctx context.Context) (HealthReport, error) {
	report := HealthReport{TierBreakdown: make(map[string]int)}

	counts := []struct {
		dest  *int
		query string
	}{
		{&report.RawListings, `SELECT COUNT(*) FROM raw_listings`},
		{&report.RawUnprocessed, `SELECT COUNT(*) FROM raw_listings WHERE processed = 0`},
		{&report.Products, `SELECT COUNT(*) FROM products`},
		{&report.Offers, `SELECT COUNT(*) FROM offers`},
		{&report.Vendors, `SELECT COUNT(*) FROM vendors`},
		{&report.Categories, `SELECT COUNT(*) FROM categories`},
		{&report.MultiVendorProducts, `SELECT COUNT(*) FROM (
            SELECT product_id FROM offers GROUP BY product_id HAVING COUNT(DISTINCT vendor_id) > 1
        )`},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return report, fmt.Errorf("health count: %w", err)
		}
	}

	for _, tier := range []string{"ean", "mpn", "model", "fuzzy"} {
		var count int
		if err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM products WHERE normalized_key LIKE ?`, tier+":%",
		).Scan(&count); err != nil {
			return report, fmt.Errorf("tier breakdown: %w", err)
		}
		report.TierBreakdown[tier] = count
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT p.id, substr(p.name, 1, 80), p.normalized_key, COUNT(DISTINCT o.vendor_id) AS vendors
         FROM products p
         JOIN offers o ON o.product_id = p.id
         GROUP BY p.id
         ORDER BY vendors DESC, p.id
         LIMIT 25`)
	if err != nil {
		return report, fmt.Errorf("top clusters: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cluster ClusterRow
		if err := rows.Scan(&cluster.ProductID, &cluster.Name, &cluster.NormalizedKey, &cluster.VendorCount); err != nil {
			return report, err
		}
		report.TopClusters = append(report.TopClusters, cluster)
	}
	return report, rows.Err()
}

// CheckHealth returns diagnostic information about the catalog database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{DBPath: s.path}

	if s.path == "" {
		return health, errors.New("catalog database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			health.DatabaseExists = false
			return health, nil
		}
		return health, fmt.Errorf("stat catalog database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("catalog database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	if s.db == nil {
		return health, errors.New("catalog database connection unavailable")
	}

	connCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping catalog database: %w", err)
	}
	health.DatabaseReadable = true

	expected := []string{"raw_listings", "vendors", "categories", "products", "offers", "product_aliases"}
	present := make(map[string]struct{})
	rows, err := s.db.QueryContext(connCtx, "SELECT name FROM sqlite_master WHERE type = 'table'")
	if err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("query table names: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("scan table name: %w", err)
		}
		present[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("iterate table names: %w", err)
	}

	for _, table := range expected {
		if _, ok := present[table]; ok {
			health.TablesPresent = append(health.TablesPresent, table)
		} else {
			health.MissingTables = append(health.MissingTables, table)
		}
	}

	var integrityResult string
	if err := s.db.QueryRowContext(connCtx, "PRAGMA integrity_check").Scan(&integrityResult); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityCheck = strings.EqualFold(integrityResult, "ok")

	return health, nil
}
