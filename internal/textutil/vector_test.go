package textutil

import "testing"

func TestCosineSimilarityNil(t *testing.T) {
	tests := []struct {
		name string
		a    *Vector
		b    *Vector
		want float64
	}{
		{"both nil", nil, nil, 0},
		{"a nil", nil, NewVector("combi drill"), 0},
		{"b nil", NewVector("combi drill"), nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if got != tt.want {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCosineSimilarityIdentical(t *testing.T) {
	text := "Makita DHP484Z 18V Brushless Combi Drill"
	got := CosineSimilarity(NewVector(text), NewVector(text))
	if got != 1.0 {
		t.Errorf("CosineSimilarity(identical) = %v, want 1.0", got)
	}
}

func TestCosineSimilarityDisjoint(t *testing.T) {
	a := NewVector("angle grinder disc")
	b := NewVector("jigsaw blade pack")
	if got := CosineSimilarity(a, b); got != 0 {
		t.Errorf("CosineSimilarity(disjoint) = %v, want 0", got)
	}
}

func TestCosineSimilarityPartialOverlap(t *testing.T) {
	a := NewVector("Makita 18V Combi Drill Bare")
	b := NewVector("Makita 18V Brushless Combi Drill Body Only")
	got := CosineSimilarity(a, b)
	if got <= 0 || got >= 1 {
		t.Errorf("CosineSimilarity(partial) = %v, want between 0 and 1", got)
	}
	if ba := CosineSimilarity(b, a); ba != got {
		t.Errorf("CosineSimilarity not symmetric: (%v, %v)", got, ba)
	}
}

func TestTokenCount(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"Multitool", 1},
		{"drill drill drill", 1},
		{"Makita DHP484Z 18V Combi Drill", 5},
	}
	for _, tt := range tests {
		if got := NewVector(tt.text).TokenCount(); got != tt.want {
			t.Errorf("TokenCount(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestTokenizeKeepsShortSignalTokens(t *testing.T) {
	tokens := Tokenize("DeWalt DCD796 18V XR 2 x 5Ah Kit")
	want := map[string]bool{"dewalt": true, "dcd796": true, "18v": true, "xr": true, "5ah": true, "kit": true}
	for _, tok := range tokens {
		delete(want, tok)
	}
	for missing := range want {
		t.Errorf("Tokenize missing token %q in %v", missing, tokens)
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Combi Drills", "combi-drills"},
		{"Black+Decker", "black-decker"},
		{"  D&M Tools  ", "d-m-tools"},
		{"", "unknown"},
		{"***", "unknown"},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCollapseSpaces(t *testing.T) {
	if got := CollapseSpaces("  Makita\t DHP484Z__Combi/Drill "); got != "Makita DHP484Z Combi Drill" {
		t.Errorf("CollapseSpaces = %q", got)
	}
}
