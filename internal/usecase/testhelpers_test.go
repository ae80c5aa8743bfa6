package usecase

import (
	"time"

	"github.com/receiptly/backend/internal/catalog"
	"github.com/receiptly/backend/internal/domain"
)

// Factors follow the catalog convention: units of this kind per category
// reference unit (each, kg, l). A "5-lb" pack is lbPerKg/5 packs per kg.
const lbPerKg = 2.2046226218

func testProducts() []domain.ProductCatalogEntry {
	return []domain.ProductCatalogEntry{
		{ProductID: 1, CanonicalName: "frozen strawberry chunks", DefaultUoMID: 110, CategoryL1: "frozen", CategoryL2: "fruit"},
		{ProductID: 2, CanonicalName: "shredded mozzarella", DefaultUoMID: 120, CategoryL1: "dairy", CategoryL2: "cheese"},
		{ProductID: 3, CanonicalName: "breaded mozzarella sticks", DefaultUoMID: 130, CategoryL1: "frozen", CategoryL2: "appetizers"},
		{ProductID: 4, CanonicalName: "whole milk", DefaultUoMID: 140, CategoryL1: "dairy", CategoryL2: "milk"},
		{ProductID: 5, CanonicalName: "roma tomatoes", DefaultUoMID: 150, CategoryL1: "produce", CategoryL2: "tomatoes"},
		{ProductID: 6, CanonicalName: "breaded chicken tenders", DefaultUoMID: 131, CategoryL1: "frozen", CategoryL2: "appetizers"},
		{ProductID: 7, CanonicalName: "granulated sugar", DefaultUoMID: 180, CategoryL1: "dry goods", CategoryL2: "baking"},
	}
}

func testUnits() []domain.UnitOfMeasure {
	return []domain.UnitOfMeasure{
		{UoMID: 110, Name: "10-lb", CategoryID: domain.CategoryWeight, Factor: lbPerKg / 10},
		{UoMID: 120, Name: "5-lb", CategoryID: domain.CategoryWeight, Factor: lbPerKg / 5},
		{UoMID: 130, Name: "90-pc", CategoryID: domain.CategoryCount, Factor: 1.0 / 90},
		{UoMID: 131, Name: "24-ct", CategoryID: domain.CategoryCount, Factor: 0}, // factor never backfilled
		{UoMID: 140, Name: "gal", CategoryID: domain.CategoryVolume, Factor: 0.2641720524},
		{UoMID: 150, Name: "25-lb", CategoryID: domain.CategoryWeight, Factor: lbPerKg / 25},
		{UoMID: 170, Name: "3-lb", CategoryID: domain.CategoryWeight, Factor: lbPerKg / 3},
		{UoMID: 180, Name: "kg", CategoryID: domain.CategoryWeight, Factor: 1},
	}
}

func testObservations() []domain.VendorPriceObservation {
	day := func(d int) time.Time { return time.Date(2026, 5, d, 0, 0, 0, 0, time.UTC) }
	return []domain.VendorPriceObservation{
		{ProductID: 2, VendorName: "us foods", UoMID: 120, UnitPrice: 18.40, ObservedAt: day(1)},
		{ProductID: 2, VendorName: "us foods", UoMID: 120, UnitPrice: 19.20, ObservedAt: day(8)},
		{ProductID: 4, VendorName: "dairy fresh", UoMID: 140, UnitPrice: 3.85, ObservedAt: day(2)},
		{ProductID: 4, VendorName: "dairy fresh", UoMID: 140, UnitPrice: 3.95, ObservedAt: day(9)},
	}
}

func newTestSnapshot() (*catalog.Snapshot, *NameNormalizer, *EnglishStemmer) {
	normalizer := NewNameNormalizer(NormalizerConfig{})
	stemmer := NewEnglishStemmer()
	snap := catalog.NewSnapshot(testProducts(), testUnits(), testObservations(), NewAnalyzer(normalizer, stemmer))
	return snap, normalizer, stemmer
}

func newTestMatcher() (*CandidateMatcher, *catalog.Snapshot) {
	snap, normalizer, stemmer := newTestSnapshot()
	return NewCandidateMatcher(snap, normalizer, stemmer, MatcherConfig{}), snap
}
