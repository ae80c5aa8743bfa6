package usecase

import (
	"sort"
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"

	"github.com/receiptly/backend/internal/catalog"
	"github.com/receiptly/backend/internal/domain"
)

// Tier score constants. Exact matches are the only automatic path that
// may reach full confidence.
const (
	scoreExact        = 1.0
	scoreNormalized   = 0.95
	scoreKeywordRule  = 0.95
	scoreWordFallback = 0.7
	scoreWordWithHint = 0.8

	// Substring containment floors for the fuzzy tier.
	containmentFloorRaw        = 0.85
	containmentFloorNormalized = 0.90
)

// Candidate is one ranked product suggestion from the matcher.
type Candidate struct {
	Product   *domain.ProductCatalogEntry
	BaseScore float64
	Method    domain.MatchMethod
}

// MatcherConfig holds configuration for the candidate matcher.
type MatcherConfig struct {
	// MinSimilarity is the floor a fuzzy-tier score must reach before the
	// word-index fallback is consulted instead.
	MinSimilarity float64
	KeywordRules  []KeywordRule
}

// CandidateMatcher produces ranked candidate products for a receipt
// description through tiered matching: exact, normalized-exact, keyword
// special cases, fuzzy similarity, and a single-word index fallback. The
// first tier that clears its own threshold short-circuits the rest.
type CandidateMatcher struct {
	snapshot      *catalog.Snapshot
	normalizer    *NameNormalizer
	stemmer       *EnglishStemmer
	keywordRules  []KeywordRule
	minSimilarity float64
}

// NewCandidateMatcher creates a matcher over the given snapshot. The
// normalizer and stemmer must be the same instances the snapshot was
// indexed with.
func NewCandidateMatcher(
	snapshot *catalog.Snapshot,
	normalizer *NameNormalizer,
	stemmer *EnglishStemmer,
	config MatcherConfig,
) *CandidateMatcher {
	minSim := config.MinSimilarity
	if minSim <= 0 {
		minSim = 0.6
	}
	rules := config.KeywordRules
	if rules == nil {
		rules = DefaultKeywordRules()
	}
	return &CandidateMatcher{
		snapshot:      snapshot,
		normalizer:    normalizer,
		stemmer:       stemmer,
		keywordRules:  rules,
		minSimilarity: minSim,
	}
}

// FindCandidates returns ranked candidates for a description, best first.
// An empty slice means not even the word fallback produced a product.
func (m *CandidateMatcher) FindCandidates(description, categoryHint string) []Candidate {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil
	}

	// Tier 1: exact canonical name.
	if p, ok := m.snapshot.ProductByCanonicalName(description); ok {
		return []Candidate{{Product: p, BaseScore: scoreExact, Method: domain.MethodExact}}
	}

	normalized := m.normalizer.Normalize(description)

	// Tier 2: exact normalized name.
	if normalized != "" {
		if p, ok := m.snapshot.ProductByNormalizedName(normalized); ok {
			return []Candidate{{Product: p, BaseScore: scoreNormalized, Method: domain.MethodNormalized}}
		}
	}

	// Tier 3: keyword special cases.
	if rule, ok := matchKeywordRule(m.keywordRules, description, normalized); ok {
		if p, found := m.snapshot.ProductByCanonicalName(rule.ProductKey); found {
			return []Candidate{{Product: p, BaseScore: scoreKeywordRule, Method: domain.MethodKeywordRule}}
		}
	}

	// Tier 4: fuzzy scan over the whole catalog.
	if candidates := m.fuzzyScan(description, normalized); len(candidates) > 0 {
		return candidates
	}

	// Tier 5: single-word index fallback.
	return m.wordFallback(normalized, categoryHint)
}

// fuzzyScan scores every catalog entry against the raw and normalized
// description and keeps those at or above the minimum similarity.
func (m *CandidateMatcher) fuzzyScan(description, normalized string) []Candidate {
	rawLower := strings.ToLower(description)
	descTokens := m.normalizer.Tokens(normalized)

	var candidates []Candidate
	for _, p := range m.snapshot.Products() {
		p := p
		score := m.similarity(rawLower, normalized, descTokens, &p)
		if score >= m.minSimilarity {
			candidates = append(candidates, Candidate{
				Product:   m.mustProduct(p.ProductID),
				BaseScore: score,
				Method:    domain.MethodFuzzy,
			})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].BaseScore > candidates[j].BaseScore
	})
	return candidates
}

// similarity computes the fuzzy base score for one catalog entry: the
// maximum of edit-distance ratios, substring containment floors, and
// token-set Jaccard overlap.
func (m *CandidateMatcher) similarity(rawLower, normalized string, descTokens []string, p *domain.ProductCatalogEntry) float64 {
	nameLower := strings.ToLower(p.CanonicalName)
	nameNormalized := m.snapshot.NormalizedName(p.ProductID)

	score := levenshteinRatio(rawLower, nameLower)
	if nameNormalized != "" && normalized != "" {
		if r := levenshteinRatio(normalized, nameNormalized); r > score {
			score = r
		}
	}

	// Substring containment is a strong signal receipts produce often:
	// the catalog name embedded in a longer vendor description.
	if containsEither(rawLower, nameLower) && score < containmentFloorRaw {
		score = containmentFloorRaw
	}
	if normalized != "" && nameNormalized != "" &&
		containsEither(normalized, nameNormalized) && score < containmentFloorNormalized {
		score = containmentFloorNormalized
	}

	if j := jaccard(descTokens, m.snapshot.NameTokens(p.ProductID)); j > score {
		score = j
	}

	return score
}

// wordFallback looks up individual normalized words in the word index.
// Scores are deliberately modest; a single shared word is weak evidence.
func (m *CandidateMatcher) wordFallback(normalized, categoryHint string) []Candidate {
	hint := strings.ToLower(strings.TrimSpace(categoryHint))

	seen := make(map[int64]bool)
	var candidates []Candidate
	for _, word := range m.normalizer.Tokens(normalized) {
		stem := m.stemmer.Stem(word)
		for _, p := range m.snapshot.ProductsByWord(stem) {
			if seen[p.ProductID] {
				continue
			}
			seen[p.ProductID] = true

			score := scoreWordFallback
			if hint != "" && hint == strings.ToLower(p.CategoryL2) {
				score = scoreWordWithHint
			}
			candidates = append(candidates, Candidate{
				Product:   p,
				BaseScore: score,
				Method:    domain.MethodWordIndex,
			})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].BaseScore > candidates[j].BaseScore
	})
	return candidates
}

func (m *CandidateMatcher) mustProduct(id int64) *domain.ProductCatalogEntry {
	p, _ := m.snapshot.ProductByID(id)
	return p
}

// levenshteinRatio is the normalized edit-distance similarity in [0,1].
func levenshteinRatio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	return levenshtein.RatioForStrings([]rune(a), []rune(b), levenshtein.DefaultOptions)
}

func containsEither(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// jaccard computes token-set overlap between two token slices.
func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[t] = true
	}
	intersection := 0
	union := len(set)
	seen := make(map[string]bool, len(b))
	for _, t := range b {
		if seen[t] {
			continue
		}
		seen[t] = true
		if set[t] {
			intersection++
		} else {
			union++
		}
	}
	return float64(intersection) / float64(union)
}
