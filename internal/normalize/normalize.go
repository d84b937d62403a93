package normalize

import (
	"tooltally/internal/textutil"
)

// Result is the canonical view of one raw listing's text.
type Result struct {
	Brand          string
	BrandKnown     bool
	Category       string
	CategoryMapped bool
	Model          string
	Voltage        int
	Kit            string
	CleanTitle     string
}

// Listing canonicalizes a raw title and vendor category string. It never
// fails: unknown brands degrade to the first title token and unmapped
// categories keep the vendor's own name, so every listing produces some key.
func Listing(title, vendorCategory string) Result {
	brand, known := CanonicalBrand(title)
	category, mapped := CanonicalCategory(vendorCategory, title)

	return Result{
		Brand:          brand,
		BrandKnown:     known,
		Category:       category,
		CategoryMapped: mapped,
		Model:          ExtractModel(title),
		Voltage:        ExtractVoltage(title),
		Kit:            ExtractKit(title),
		CleanTitle:     textutil.CollapseSpaces(title),
	}
}

// VariantOf returns the variant signature for a normalized listing.
func (r Result) VariantOf() string {
	return VariantSignature(r.Voltage, r.Kit)
}
