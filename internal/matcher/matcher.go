// Package matcher assigns raw listings to canonical products. Identifier
// and model fingerprints resolve through a key index; title-only listings
// fall back to bounded fuzzy comparison against products sharing the same
// category and brand.
package matcher

import (
	"strconv"
	"strings"

	"tooltally/internal/catalog"
	"tooltally/internal/fingerprint"
	"tooltally/internal/normalize"
	"tooltally/internal/textutil"
)

// minFuzzyTokens is the fewest unique title tokens the fuzzy path will
// compare on. A shorter title matches any candidate sharing its token at
// full strength, which is no evidence at all.
const minFuzzyTokens = 2

// Config holds the fuzzy acceptance tuning.
type Config struct {
	// Threshold is the minimum similarity for a fuzzy merge.
	Threshold float64
	// Margin is the lead the best candidate needs over the runner-up;
	// anything closer is ambiguous and resolves to a new product.
	Margin float64
}

// Decision reports how one listing was resolved.
type Decision struct {
	Draft        *catalog.ProductDraft
	Created      bool
	Tier         fingerprint.Tier
	FuzzyMatched bool
	FuzzyScore   float64
}

type bucketKey struct {
	category string
	brand    string
}

type candidate struct {
	draft  *catalog.ProductDraft
	vector *textutil.Vector
}

// Matcher accumulates the in-memory product set for one resolver run.
type Matcher struct {
	cfg         Config
	index       map[string]*catalog.ProductDraft
	buckets     map[bucketKey][]*candidate
	order       []*catalog.ProductDraft
	nextCluster int64
}

// New returns an empty matcher.
func New(cfg Config) *Matcher {
	return &Matcher{
		cfg:         cfg,
		index:       make(map[string]*catalog.ProductDraft),
		buckets:     make(map[bucketKey][]*candidate),
		nextCluster: 1,
	}
}

// Seed primes the matcher with existing canonical products so incremental
// runs upsert instead of duplicating, and so fuzzy cluster ids continue
// monotonically from the stored maximum.
func (m *Matcher) Seed(products []*catalog.Product) {
	for _, product := range products {
		draft := &catalog.ProductDraft{
			Brand:            product.Brand,
			MPN:              product.MPN,
			EAN:              product.EAN,
			Name:             product.Name,
			CategoryName:     product.CategoryName,
			VariantSignature: product.VariantSignature,
			NormalizedKey:    product.NormalizedKey,
		}
		m.register(draft)

		if rest, ok := strings.CutPrefix(product.NormalizedKey, "fuzzy:"); ok {
			if id, err := strconv.ParseInt(rest, 10, 64); err == nil && id >= m.nextCluster {
				m.nextCluster = id + 1
			}
		}
	}
}

// Assign finds or creates the product a listing belongs to. Every call
// yields a product: the cascade guarantees some fingerprint, and the fuzzy
// path creates a new cluster when no candidate is convincing.
func (m *Matcher) Assign(norm normalize.Result, fp fingerprint.Fingerprint, identifiers fingerprint.Input) Decision {
	if fp.Tier != fingerprint.TierFuzzy {
		return m.assignKeyed(norm, fp, identifiers)
	}
	return m.assignFuzzy(norm)
}

// Snapshot returns the accumulated products in creation order.
func (m *Matcher) Snapshot() *catalog.Snapshot {
	return &catalog.Snapshot{Products: m.order}
}

func (m *Matcher) assignKeyed(norm normalize.Result, fp fingerprint.Fingerprint, identifiers fingerprint.Input) Decision {
	if draft, ok := m.index[fp.Key]; ok {
		fillIdentity(draft, norm, identifiers)
		return Decision{Draft: draft, Tier: fp.Tier}
	}

	draft := &catalog.ProductDraft{
		Brand:            norm.Brand,
		Name:             norm.CleanTitle,
		CategoryName:     norm.Category,
		VariantSignature: norm.VariantOf(),
		NormalizedKey:    fp.Key,
	}
	fillIdentity(draft, norm, identifiers)
	m.register(draft)
	return Decision{Draft: draft, Created: true, Tier: fp.Tier}
}

func (m *Matcher) assignFuzzy(norm normalize.Result) Decision {
	vector := textutil.NewVector(norm.CleanTitle)
	key := bucketKey{category: strings.ToLower(norm.Category), brand: norm.Brand}

	var (
		best       *candidate
		bestScore  float64
		runnerUp   float64
		aboveCount int
	)
	candidates := m.buckets[key]
	if vector.TokenCount() < minFuzzyTokens {
		candidates = nil
	}
	for _, cand := range candidates {
		score := textutil.CosineSimilarity(vector, cand.vector)
		if score > m.cfg.Threshold {
			aboveCount++
		}
		if score > bestScore {
			runnerUp = bestScore
			bestScore = score
			best = cand
		} else if score > runnerUp {
			runnerUp = score
		}
	}

	accepted := best != nil &&
		bestScore > m.cfg.Threshold &&
		(aboveCount == 1 || bestScore-runnerUp >= m.cfg.Margin)

	if accepted {
		return Decision{
			Draft:        best.draft,
			Tier:         fingerprint.TierFuzzy,
			FuzzyMatched: true,
			FuzzyScore:   bestScore,
		}
	}

	draft := &catalog.ProductDraft{
		Brand:            norm.Brand,
		Name:             norm.CleanTitle,
		CategoryName:     norm.Category,
		VariantSignature: norm.VariantOf(),
		NormalizedKey:    fingerprint.FuzzyKey(m.nextCluster),
	}
	m.nextCluster++
	m.register(draft)
	return Decision{Draft: draft, Created: true, Tier: fingerprint.TierFuzzy}
}

func (m *Matcher) register(draft *catalog.ProductDraft) {
	m.index[draft.NormalizedKey] = draft
	m.order = append(m.order, draft)
	key := bucketKey{category: strings.ToLower(draft.CategoryName), brand: draft.Brand}
	m.buckets[key] = append(m.buckets[key], &candidate{
		draft:  draft,
		vector: textutil.NewVector(draft.Name),
	})
}

// fillIdentity backfills identifiers a later listing supplies for a product
// first seen without them.
func fillIdentity(draft *catalog.ProductDraft, norm normalize.Result, identifiers fingerprint.Input) {
	if draft.EAN == "" {
		draft.EAN = fingerprint.NormalizeEAN(identifiers.EAN)
	}
	if draft.MPN == "" {
		draft.MPN = fingerprint.NormalizeMPN(identifiers.MPN)
	}
	if draft.VariantSignature == "" {
		draft.VariantSignature = norm.VariantOf()
	}
}
