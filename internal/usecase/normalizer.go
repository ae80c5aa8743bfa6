package usecase

import (
	"regexp"
	"strings"
)

// Package-level compiled regex patterns for performance
var (
	// UPC/EAN and vendor item-number substrings embedded in descriptions
	upcRegex        = regexp.MustCompile(`\b\d{11,14}\b`)
	itemNumberRegex = regexp.MustCompile(`#\s*\d+\b|\bitem\s*\d+\b`)

	// Size/quantity descriptors like "12 oz", "6*3-kg", "1.5 liter", "3-lb"
	sizeTokenRegex = regexp.MustCompile(`\b\d+\.?\d*\s*[*x]?\s*\d*\.?\d*\s*-?\s*(fl\s*oz|oz|ounces?|lbs?|pounds?|kg|kgs?|g|grams?|ml|liters?|litres?|l|gal|gallons?|qt|quarts?|pt|pints?)\b`)

	// Pack/count descriptors like "12 pack", "pack of 6", "24 ct", "6-pc"
	packTokenRegex = regexp.MustCompile(`\b\d+[-\s]*(pack|pk|count|ct|pc|pcs|pieces?|units?|ea|each|cs|case)\b|\bpack\s*of\s*\d+\b`)

	punctuationStripRegex = regexp.MustCompile(`[^\w\s]`)
	multiSpaceRegex       = regexp.MustCompile(`\s+`)
	trailingNumberRegex   = regexp.MustCompile(`[,\-]\s*\d+\.?\d*\s*$`)
)

// SubstitutionRule collapses many raw spellings into one canonical phrase.
// A rule fires when every keyword in Contains appears in the description;
// the whole description is then replaced by Canonical, so the first
// matching rule in table order wins. Family is a grouping label for
// maintaining the table, not a matching input.
type SubstitutionRule struct {
	Family    string
	Contains  []string
	Canonical string
}

// DefaultSubstitutionRules covers the raw spellings the purchasing team
// sees most often. Order matters within a family.
func DefaultSubstitutionRules() []SubstitutionRule {
	return []SubstitutionRule{
		// Frozen fruit: "STRAWBERRY WHL IQF", "FRZ STRAWBERRIES WHOLE" and
		// friends all mean the same catalog product.
		{Family: "frozen-fruit", Contains: []string{"strawberr", "iqf"}, Canonical: "frozen strawberry chunks"},
		{Family: "frozen-fruit", Contains: []string{"strawberr", "whole", "froz"}, Canonical: "frozen strawberry chunks"},
		{Family: "frozen-fruit", Contains: []string{"blueberr", "iqf"}, Canonical: "frozen blueberry chunks"},
		{Family: "frozen-fruit", Contains: []string{"mango", "iqf"}, Canonical: "frozen mango chunks"},

		{Family: "cheese", Contains: []string{"mozz", "shred"}, Canonical: "shredded mozzarella"},
		{Family: "cheese", Contains: []string{"mozzarella", "shred"}, Canonical: "shredded mozzarella"},
		{Family: "cheese", Contains: []string{"parm", "grated"}, Canonical: "grated parmesan"},

		{Family: "produce", Contains: []string{"roma", "tomato"}, Canonical: "roma tomatoes"},
		{Family: "produce", Contains: []string{"iceberg", "lettuce"}, Canonical: "iceberg lettuce"},
	}
}

// defaultBrandPrefixes are distributor house brands that carry no signal
// about the underlying product.
var defaultBrandPrefixes = []string{
	"sysco", "gfs", "usf", "monarch", "packer", "imperial", "chefs line",
	"markon", "west creek", "great value",
}

// normalizerAbbreviations expands receipt shorthand before any other rule
// runs, so substitution keywords can be written out in full.
var normalizerAbbreviations = map[string]string{
	"frz":   "frozen",
	"froz":  "frozen",
	"whl":   "whole",
	"chkn":  "chicken",
	"brst":  "breast",
	"bnls":  "boneless",
	"sknls": "skinless",
	"shrd":  "shredded",
	"grtd":  "grated",
	"chse":  "cheese",
	"tom":   "tomato",
	"lett":  "lettuce",
	"grn":   "green",
	"yel":   "yellow",
	"pepp":  "pepper",
}

// NormalizerConfig holds configuration for the name normalizer.
type NormalizerConfig struct {
	BrandPrefixes []string
	ExtraRules    []SubstitutionRule
}

// NameNormalizer turns a raw receipt description into a normalized phrase
// suitable for exact lookup and token comparison. Normalization is pure:
// identical input always yields identical output.
type NameNormalizer struct {
	rules         []SubstitutionRule
	brandPrefixes []string
}

// NewNameNormalizer creates a normalizer with the default rule table plus
// any extra rules from configuration. Extra rules are appended after the
// defaults, preserving first-match-wins semantics.
func NewNameNormalizer(config NormalizerConfig) *NameNormalizer {
	brands := config.BrandPrefixes
	if len(brands) == 0 {
		brands = defaultBrandPrefixes
	}
	return &NameNormalizer{
		rules:         append(DefaultSubstitutionRules(), config.ExtraRules...),
		brandPrefixes: brands,
	}
}

// Normalize lower-cases, strips UPC/item-number substrings, removes
// packaging and quantity descriptors and brand prefixes, expands known
// abbreviations, and applies the substitution rule table.
func (n *NameNormalizer) Normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}

	s = upcRegex.ReplaceAllString(s, " ")
	s = itemNumberRegex.ReplaceAllString(s, " ")
	s = sizeTokenRegex.ReplaceAllString(s, " ")
	s = packTokenRegex.ReplaceAllString(s, " ")
	s = trailingNumberRegex.ReplaceAllString(s, " ")

	s = n.stripBrandPrefix(s)
	s = expandAbbreviations(s)

	if canonical, ok := n.applyRules(s); ok {
		return canonical
	}

	s = punctuationStripRegex.ReplaceAllString(s, " ")
	s = multiSpaceRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// applyRules walks the rule table in order; the first matching rule wins
// outright because it replaces the whole description.
func (n *NameNormalizer) applyRules(s string) (string, bool) {
	for _, rule := range n.rules {
		if ruleMatches(rule, s) {
			return rule.Canonical, true
		}
	}
	return s, false
}

func ruleMatches(rule SubstitutionRule, s string) bool {
	for _, kw := range rule.Contains {
		if !strings.Contains(s, kw) {
			return false
		}
	}
	return len(rule.Contains) > 0
}

func (n *NameNormalizer) stripBrandPrefix(s string) string {
	for _, brand := range n.brandPrefixes {
		if strings.HasPrefix(s, brand+" ") {
			return strings.TrimSpace(strings.TrimPrefix(s, brand+" "))
		}
	}
	return s
}

func expandAbbreviations(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		trimmed := strings.Trim(w, ",.;:")
		if full, ok := normalizerAbbreviations[trimmed]; ok {
			words[i] = full
		}
	}
	return strings.Join(words, " ")
}

// tokenStopWords are noise tokens excluded from similarity comparison.
var tokenStopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "per": true,
	"pack": true, "case": true, "box": true, "bag": true, "each": true,
	"fresh": true, "new": true, "value": true, "premium": true,
}

// Tokens splits a string into comparison tokens: lowercase, punctuation
// stripped, stop words and pure numbers dropped, minimum three characters.
func (n *NameNormalizer) Tokens(s string) []string {
	cleaned := punctuationStripRegex.ReplaceAllString(strings.ToLower(s), " ")

	var tokens []string
	for _, word := range strings.Fields(cleaned) {
		if len(word) <= 2 {
			continue
		}
		if tokenStopWords[word] {
			continue
		}
		if isNumeric(word) {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// isNumeric checks if a string contains only digits
func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}
