package usecase

import (
	"strings"
	"sync"

	"github.com/kljensen/snowball"
)

// EnglishStemmer reduces index tokens to their Snowball stems so that
// plural and inflected spellings share one word-index slot
// ("tomatoes" -> "tomato", "breaded" -> "bread"). Safe for concurrent use.
type EnglishStemmer struct {
	cache map[string]string
	mu    sync.RWMutex
}

// NewEnglishStemmer creates a stemmer with an unbounded stem cache. The
// vocabulary of a catalog is small enough that eviction is not worth it.
func NewEnglishStemmer() *EnglishStemmer {
	return &EnglishStemmer{cache: make(map[string]string)}
}

// Stem returns the stemmed form of a word. Words the Snowball algorithm
// cannot handle are returned lowercased and trimmed instead.
func (s *EnglishStemmer) Stem(word string) string {
	normalized := strings.ToLower(strings.TrimSpace(word))
	if normalized == "" {
		return ""
	}

	s.mu.RLock()
	cached, ok := s.cache[normalized]
	s.mu.RUnlock()
	if ok {
		return cached
	}

	stemmed, err := snowball.Stem(normalized, "english", true)
	if err != nil {
		stemmed = normalized
	}

	s.mu.Lock()
	s.cache[normalized] = stemmed
	s.mu.Unlock()

	return stemmed
}

// StemTokens stems a token slice in order.
func (s *EnglishStemmer) StemTokens(tokens []string) []string {
	stemmed := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if st := s.Stem(tok); st != "" {
			stemmed = append(stemmed, st)
		}
	}
	return stemmed
}
