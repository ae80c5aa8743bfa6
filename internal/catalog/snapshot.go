package catalog

import (
	"strings"

	"github.com/receiptly/backend/internal/domain"
)

// Analyzer supplies the text analysis used to build snapshot indexes.
// The matcher must use the same analyzer so lookups stay consistent in
// both directions.
type Analyzer interface {
	Normalize(raw string) string
	Tokens(s string) []string
	Stem(word string) string
}

// Snapshot is an immutable indexed view of the catalog: products, units
// of measure, and vendor price history. Built once per run before any
// matching begins; all reads afterwards are lock-free.
type Snapshot struct {
	products []domain.ProductCatalogEntry
	uoms     []domain.UnitOfMeasure

	byID             map[int64]*domain.ProductCatalogEntry
	byCanonicalName  map[string]*domain.ProductCatalogEntry
	byNormalizedName map[string]*domain.ProductCatalogEntry
	wordIndex        map[string][]*domain.ProductCatalogEntry
	normalizedNames  map[int64]string
	nameTokens       map[int64][]string

	uomByID       map[int64]*domain.UnitOfMeasure
	uomByName     map[string]*domain.UnitOfMeasure
	uomByCategory map[int64][]*domain.UnitOfMeasure

	priceHistory map[int64][]domain.VendorPriceObservation
	vendors      map[int64]map[string]struct{}
}

// NewSnapshot indexes the given catalog records. The input slices are
// copied; callers may discard them afterwards.
func NewSnapshot(
	products []domain.ProductCatalogEntry,
	uoms []domain.UnitOfMeasure,
	observations []domain.VendorPriceObservation,
	analyzer Analyzer,
) *Snapshot {
	s := &Snapshot{
		products:         make([]domain.ProductCatalogEntry, len(products)),
		byID:             make(map[int64]*domain.ProductCatalogEntry, len(products)),
		byCanonicalName:  make(map[string]*domain.ProductCatalogEntry, len(products)),
		byNormalizedName: make(map[string]*domain.ProductCatalogEntry, len(products)),
		wordIndex:        make(map[string][]*domain.ProductCatalogEntry),
		normalizedNames:  make(map[int64]string, len(products)),
		nameTokens:       make(map[int64][]string, len(products)),
		uomByID:          make(map[int64]*domain.UnitOfMeasure, len(uoms)),
		uomByName:        make(map[string]*domain.UnitOfMeasure, len(uoms)),
		uomByCategory:    make(map[int64][]*domain.UnitOfMeasure),
		uoms:             make([]domain.UnitOfMeasure, len(uoms)),
	}
	copy(s.products, products)
	copy(s.uoms, uoms)

	for i := range s.uoms {
		u := &s.uoms[i]
		s.uomByID[u.UoMID] = u
		s.uomByName[foldName(u.Name)] = u
		s.uomByCategory[u.CategoryID] = append(s.uomByCategory[u.CategoryID], u)
	}

	for i := range s.products {
		p := &s.products[i]
		s.byID[p.ProductID] = p
		s.byCanonicalName[foldName(p.CanonicalName)] = p

		normalized := analyzer.Normalize(p.CanonicalName)
		s.normalizedNames[p.ProductID] = normalized
		if normalized != "" {
			s.byNormalizedName[normalized] = p
		}

		tokens := analyzer.Tokens(normalized)
		s.nameTokens[p.ProductID] = tokens
		seen := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			stem := analyzer.Stem(tok)
			if stem == "" {
				continue
			}
			if _, dup := seen[stem]; dup {
				continue
			}
			seen[stem] = struct{}{}
			s.wordIndex[stem] = append(s.wordIndex[stem], p)
		}
	}

	s.priceHistory = make(map[int64][]domain.VendorPriceObservation)
	s.vendors = make(map[int64]map[string]struct{})
	for _, obs := range observations {
		s.priceHistory[obs.ProductID] = append(s.priceHistory[obs.ProductID], obs)
		set, ok := s.vendors[obs.ProductID]
		if !ok {
			set = make(map[string]struct{})
			s.vendors[obs.ProductID] = set
		}
		set[foldName(obs.VendorName)] = struct{}{}
	}

	return s
}

func foldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Products returns the full product list for scan-based matching tiers.
func (s *Snapshot) Products() []domain.ProductCatalogEntry {
	return s.products
}

// ProductByID returns the product with the given id.
func (s *Snapshot) ProductByID(id int64) (*domain.ProductCatalogEntry, bool) {
	p, ok := s.byID[id]
	return p, ok
}

// ProductByCanonicalName performs a case-insensitive exact name lookup.
func (s *Snapshot) ProductByCanonicalName(name string) (*domain.ProductCatalogEntry, bool) {
	p, ok := s.byCanonicalName[foldName(name)]
	return p, ok
}

// ProductByNormalizedName looks up a product by its normalized name.
func (s *Snapshot) ProductByNormalizedName(normalized string) (*domain.ProductCatalogEntry, bool) {
	p, ok := s.byNormalizedName[normalized]
	return p, ok
}

// ProductsByWord returns every product whose normalized name contains a
// token with the given stem.
func (s *Snapshot) ProductsByWord(stem string) []*domain.ProductCatalogEntry {
	return s.wordIndex[stem]
}

// NormalizedName returns the precomputed normalized name for a product.
func (s *Snapshot) NormalizedName(productID int64) string {
	return s.normalizedNames[productID]
}

// NameTokens returns the precomputed token set of a product's
// normalized name.
func (s *Snapshot) NameTokens(productID int64) []string {
	return s.nameTokens[productID]
}

// UoMByID returns the unit with the given id.
func (s *Snapshot) UoMByID(id int64) (*domain.UnitOfMeasure, bool) {
	u, ok := s.uomByID[id]
	return u, ok
}

// UoMByName performs a case-insensitive lookup by unit name.
func (s *Snapshot) UoMByName(name string) (*domain.UnitOfMeasure, bool) {
	u, ok := s.uomByName[foldName(name)]
	return u, ok
}

// UoMsInCategory returns every unit belonging to a unit category.
func (s *Snapshot) UoMsInCategory(categoryID int64) []*domain.UnitOfMeasure {
	return s.uomByCategory[categoryID]
}

// PriceHistory returns the historical vendor price observations for a
// product, or nil when none exist.
func (s *Snapshot) PriceHistory(productID int64) []domain.VendorPriceObservation {
	return s.priceHistory[productID]
}

// HasVendor reports whether the vendor historically supplied the product.
// Matching is case-insensitive and tolerant of substring containment in
// either direction, since receipt headers abbreviate vendor names.
func (s *Snapshot) HasVendor(productID int64, vendorName string) bool {
	set, ok := s.vendors[productID]
	if !ok {
		return false
	}
	folded := foldName(vendorName)
	if folded == "" {
		return false
	}
	if _, hit := set[folded]; hit {
		return true
	}
	for known := range set {
		if strings.Contains(known, folded) || strings.Contains(folded, known) {
			return true
		}
	}
	return false
}
