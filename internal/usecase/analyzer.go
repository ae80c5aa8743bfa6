package usecase

// Analyzer bundles the normalizer and stemmer so the catalog snapshot
// indexes names with exactly the analysis the matcher queries with.
type Analyzer struct {
	normalizer *NameNormalizer
	stemmer    *EnglishStemmer
}

// NewAnalyzer creates the analyzer the snapshot builder expects.
func NewAnalyzer(normalizer *NameNormalizer, stemmer *EnglishStemmer) *Analyzer {
	return &Analyzer{normalizer: normalizer, stemmer: stemmer}
}

// Normalize applies the receipt-name normalization pipeline.
func (a *Analyzer) Normalize(raw string) string {
	return a.normalizer.Normalize(raw)
}

// Tokens splits a string into comparison tokens.
func (a *Analyzer) Tokens(s string) []string {
	return a.normalizer.Tokens(s)
}

// Stem reduces one token to its index stem.
func (a *Analyzer) Stem(word string) string {
	return a.stemmer.Stem(word)
}
