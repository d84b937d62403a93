package textutil

import (
	"math"
	"regexp"
	"strings"
)

// tokenSplitPattern matches non-alphanumeric character sequences for tokenization.
var tokenSplitPattern = regexp.MustCompile(`[^a-z0-9.]+`)

// Vector represents a term-frequency vector for text similarity comparison.
type Vector struct {
	tokens map[string]float64
	norm   float64
}

// NewVector creates a term-frequency vector from the provided text.
// Returns nil if the text produces no valid tokens.
func NewVector(text string) *Vector {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	counts := make(map[string]float64, len(tokens))
	for _, token := range tokens {
		counts[token]++
	}
	var norm float64
	for _, count := range counts {
		norm += count * count
	}
	return &Vector{
		tokens: counts,
		norm:   math.Sqrt(norm),
	}
}

// Tokenize splits text into lowercase tokens. Single-character tokens are
// dropped; two-character tokens survive because voltage and part-number
// fragments ("5ah", "xr") carry signal in tool listings.
func Tokenize(text string) []string {
	lowered := strings.ToLower(text)
	raw := tokenSplitPattern.Split(lowered, -1)
	terms := make([]string, 0, len(raw))
	for _, token := range raw {
		token = strings.Trim(token, ".")
		if len(token) < 2 {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}

// TokenCount returns the number of unique tokens in the vector. Callers use
// it to reject comparisons on titles too short to carry signal.
func (v *Vector) TokenCount() int {
	if v == nil {
		return 0
	}
	return len(v.tokens)
}

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns 0 if either vector is nil or has zero norm.
func CosineSimilarity(a, b *Vector) float64 {
	if a == nil || b == nil || a.norm == 0 || b.norm == 0 {
		return 0
	}
	var dot float64
	for token, count := range a.tokens {
		if other, ok := b.tokens[token]; ok {
			dot += count * other
		}
	}
	if dot == 0 {
		return 0
	}
	return dot / (a.norm * b.norm)
}
