// Package fingerprint derives the deterministic identity key for a raw
// listing. Tiers are tried in fixed priority order and the first hit wins:
// exact identifiers are cheapest and safest, the structured model key
// recovers most of the rest without any similarity computation, and
// anything left is deferred to the fuzzy matcher.
package fingerprint

import (
	"fmt"
	"strings"

	"tooltally/internal/normalize"
)

// Tier identifies which cascade stage produced a fingerprint.
type Tier string

const (
	TierEAN   Tier = "ean"
	TierMPN   Tier = "mpn"
	TierModel Tier = "model"
	TierFuzzy Tier = "fuzzy"
)

// PendingFuzzyKey marks listings the cascade could not identify; the
// cluster matcher replaces it with a fuzzy:<cluster-id> key.
const PendingFuzzyKey = "fuzzy:pending"

// Fingerprint is the identity key assigned to one raw listing.
type Fingerprint struct {
	Tier Tier
	Key  string
}

// Input carries the fields the cascade inspects.
type Input struct {
	EAN        string
	MPN        string
	Normalized normalize.Result
}

type strategy func(Input) (Fingerprint, bool)

// strategies is the ordered tier cascade. Appending a new identifier type
// means adding one function here.
var strategies = []strategy{
	eanStrategy,
	mpnStrategy,
	modelStrategy,
}

// Derive returns exactly one fingerprint for the input, falling through to
// the fuzzy placeholder when no strategy produces a key.
func Derive(input Input) Fingerprint {
	for _, try := range strategies {
		if fp, ok := try(input); ok {
			return fp
		}
	}
	return Fingerprint{Tier: TierFuzzy, Key: PendingFuzzyKey}
}

func eanStrategy(input Input) (Fingerprint, bool) {
	ean := NormalizeEAN(input.EAN)
	if ean == "" {
		return Fingerprint{}, false
	}
	return Fingerprint{Tier: TierEAN, Key: "ean:" + ean}, true
}

// mpnStrategy scopes the part number by brand: MPN strings are not globally
// unique across manufacturers.
func mpnStrategy(input Input) (Fingerprint, bool) {
	mpn := NormalizeMPN(input.MPN)
	if mpn == "" {
		return Fingerprint{}, false
	}
	return Fingerprint{
		Tier: TierMPN,
		Key:  fmt.Sprintf("mpn:%s|%s", input.Normalized.Brand, mpn),
	}, true
}

// modelStrategy keys on brand, model token, voltage, and kit signature. Kit
// and bare-unit variants deliberately never collapse: a bare drill and a
// boxed kit are different SKUs even for the same model.
func modelStrategy(input Input) (Fingerprint, bool) {
	model := input.Normalized.Model
	if model == "" {
		return Fingerprint{}, false
	}
	voltage := ""
	if input.Normalized.Voltage > 0 {
		voltage = fmt.Sprintf("%dv", input.Normalized.Voltage)
	}
	return Fingerprint{
		Tier: TierModel,
		Key: fmt.Sprintf("model:%s|%s|%s|%s",
			input.Normalized.Brand, model, voltage, input.Normalized.Kit),
	}, true
}

// NormalizeMPN strips spaces and hyphens and uppercases, matching the key
// shape used when comparing part numbers across vendors.
func NormalizeMPN(mpn string) string {
	mpn = strings.ToUpper(strings.TrimSpace(mpn))
	mpn = strings.ReplaceAll(mpn, " ", "")
	mpn = strings.ReplaceAll(mpn, "-", "")
	return mpn
}

// FuzzyKey builds the normalized key for a fuzzy cluster id.
func FuzzyKey(clusterID int64) string {
	return fmt.Sprintf("fuzzy:%d", clusterID)
}
