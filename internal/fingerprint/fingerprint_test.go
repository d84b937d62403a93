package fingerprint

import (
	"testing"

	"tooltally/internal/normalize"
)

func TestNormalizeEAN(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"valid ean13", "0883810891118", "0883810891118"},
		{"valid ean13 with separators", "088-381 0891118", "0883810891118"},
		{"valid ean8", "12345670", "12345670"},
		{"bad checksum", "0883810891117", ""},
		{"bad length", "12345", ""},
		{"letters", "ABC3810891118", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeEAN(tt.in); got != tt.want {
				t.Errorf("NormalizeEAN(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeMPN(t *testing.T) {
	if got := NormalizeMPN(" dhp-484 z "); got != "DHP484Z" {
		t.Errorf("NormalizeMPN = %q, want DHP484Z", got)
	}
}

func TestDeriveCascadeOrder(t *testing.T) {
	normalized := normalize.Listing("Makita DHP484Z 18V Combi Drill Body Only", "Cordless Drills")

	tests := []struct {
		name     string
		input    Input
		wantTier Tier
		wantKey  string
	}{
		{
			"ean wins over everything",
			Input{EAN: "0883810891118", MPN: "DHP484Z", Normalized: normalized},
			TierEAN, "ean:0883810891118",
		},
		{
			"invalid ean falls through to mpn",
			Input{EAN: "0883810891117", MPN: "DHP484Z", Normalized: normalized},
			TierMPN, "mpn:MAKITA|DHP484Z",
		},
		{
			"mpn wins over model",
			Input{MPN: "DHP484Z", Normalized: normalized},
			TierMPN, "mpn:MAKITA|DHP484Z",
		},
		{
			"model key includes variant",
			Input{Normalized: normalized},
			TierModel, "model:MAKITA|DHP484Z|18v|bare",
		},
		{
			"nothing yields fuzzy placeholder",
			Input{Normalized: normalize.Listing("Bosch GSB 18V-55 Combi Drill (Bare)", "Combi Drills")},
			TierFuzzy, PendingFuzzyKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Derive(tt.input)
			if got.Tier != tt.wantTier || got.Key != tt.wantKey {
				t.Errorf("Derive() = (%s, %q), want (%s, %q)", got.Tier, got.Key, tt.wantTier, tt.wantKey)
			}
		})
	}
}

func TestMPNScopedByBrand(t *testing.T) {
	makita := normalize.Listing("Makita XPH07 Hammer Drill", "Drills")
	dewalt := normalize.Listing("DeWalt XPH07 Hammer Drill", "Drills")

	a := Derive(Input{MPN: "XPH07", Normalized: makita})
	b := Derive(Input{MPN: "XPH07", Normalized: dewalt})
	if a.Key == b.Key {
		t.Errorf("identical MPN across brands produced one key %q", a.Key)
	}
}

func TestKitAndBareNeverShareModelKey(t *testing.T) {
	bare := normalize.Listing("Makita DHP484Z 18V Combi Drill Body Only", "Drills")
	kit := normalize.Listing("Makita DHP484Z 18V Combi Drill 2 x 5.0Ah Kit", "Drills")

	a := Derive(Input{Normalized: bare})
	b := Derive(Input{Normalized: kit})
	if a.Key == b.Key {
		t.Errorf("bare and kit variants share model key %q", a.Key)
	}
}

func TestFuzzyKey(t *testing.T) {
	if got := FuzzyKey(42); got != "fuzzy:42" {
		t.Errorf("FuzzyKey(42) = %q", got)
	}
}
