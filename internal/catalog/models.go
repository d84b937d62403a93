package catalog

import "time"

// RawListing is a single scraped vendor row. Scrapers produce these; the
// resolver reads them and writes back only Processed and ProductID.
type RawListing struct {
	ID           int64
	Vendor       string
	Title        string
	Price        int64
	Currency     string
	BuyURL       string
	VendorSKU    string
	CategoryName string
	EAN          string
	MPN          string
	InStock      bool
	ScrapedAt    time.Time
	Processed    bool
	ProductID    *int64
	CreatedAt    time.Time
}

// Vendor is a canonical vendor reference row.
type Vendor struct {
	ID      int64
	Name    string
	Slug    string
	SiteURL string
}

// Category is an umbrella category grouping vendor-specific category strings.
type Category struct {
	ID   int64
	Name string
	Slug string
}

// Product is the canonical, vendor-independent representation of one
// physical product variant. NormalizedKey is globally unique and encodes the
// fingerprint tier that produced it.
type Product struct {
	ID               int64
	Brand            string
	MPN              string
	EAN              string
	Name             string
	CategoryID       int64
	CategoryName     string
	VariantSignature string
	NormalizedKey    string
}

// Offer is one vendor's listing for a canonical product.
type Offer struct {
	ID        int64
	ProductID int64
	VendorID  int64
	Price     int64
	Currency  string
	BuyURL    string
	VendorSKU string
	InStock   bool
	ScrapedAt time.Time
	CreatedAt time.Time
}

// ProductAlias records an observed raw title that was fuzzy-merged into a
// product, with the similarity score that justified the merge.
type ProductAlias struct {
	ID        int64
	ProductID int64
	RawTitle  string
	Score     float64
	VendorID  *int64
	CreatedAt time.Time
}

// ClusterRow describes one product and how many distinct vendors offer it.
type ClusterRow struct {
	ProductID     int64
	Name          string
	NormalizedKey string
	VendorCount   int
}

// HealthReport aggregates catalog state for the health command. The tier
// breakdown doubles as an operational merge-rate signal: a growing fuzzy
// share means identifier coverage is slipping.
type HealthReport struct {
	RawListings         int
	RawUnprocessed      int
	Products            int
	Offers              int
	Vendors             int
	Categories          int
	MultiVendorProducts int
	TierBreakdown       map[string]int
	TopClusters         []ClusterRow
}

// DatabaseHealth captures diagnostic information about the catalog database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TablesPresent    []string
	MissingTables    []string
	IntegrityCheck   bool
	Error            string
}
