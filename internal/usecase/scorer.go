package usecase

import (
	"math"
	"strings"

	"github.com/receiptly/backend/internal/catalog"
	"github.com/receiptly/backend/internal/domain"
)

// ScorerConfig holds the boost sizes and the price-proximity window.
// The defaults were tuned against this business's catalog; treat them as
// empirical, not principled.
type ScorerConfig struct {
	CategoryBoostMax float64 // added when the category hint agrees
	VendorBoost      float64 // added when the vendor has supplied the product before
	PriceBoostMax    float64 // added, scaled by closeness, when the price is familiar
	PriceWindow      float64 // relative window around the historical mean price
	// VendorAliases maps receipt header spellings to the vendor name the
	// price history records, e.g. "US Foods #224" -> "us foods".
	VendorAliases map[string]string
}

// DefaultScorerConfig returns the tuned production values.
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		CategoryBoostMax: 0.15,
		VendorBoost:      0.2,
		PriceBoostMax:    0.15,
		PriceWindow:      0.30,
	}
}

// SignalScorer boosts a candidate's base similarity with category,
// vendor-affinity, and price-proximity signals. Boosts are additive and
// monotonic: no subset of signals can lower the base score, and the
// result is clamped to [0,1].
type SignalScorer struct {
	snapshot *catalog.Snapshot
	config   ScorerConfig
}

// NewSignalScorer creates a scorer over the given snapshot, filling any
// zero-valued config fields with the tuned defaults.
func NewSignalScorer(snapshot *catalog.Snapshot, config ScorerConfig) *SignalScorer {
	defaults := DefaultScorerConfig()
	if config.CategoryBoostMax <= 0 {
		config.CategoryBoostMax = defaults.CategoryBoostMax
	}
	if config.VendorBoost <= 0 {
		config.VendorBoost = defaults.VendorBoost
	}
	if config.PriceBoostMax <= 0 {
		config.PriceBoostMax = defaults.PriceBoostMax
	}
	if config.PriceWindow <= 0 {
		config.PriceWindow = defaults.PriceWindow
	}
	return &SignalScorer{snapshot: snapshot, config: config}
}

// Score applies the boost signals to a candidate's base score.
func (s *SignalScorer) Score(candidate Candidate, line domain.ReceiptLineItem) float64 {
	score := candidate.BaseScore

	score += s.categoryBoost(candidate.Product, line.CategoryHint)
	score += s.vendorBoost(candidate.Product, line.VendorName)
	score += s.priceBoost(candidate.Product, line)

	return clamp01(score)
}

// categoryBoost grants the full boost for an L2 match and half for an L1
// match; the hint is coarse, so agreement at the finer level is worth more.
func (s *SignalScorer) categoryBoost(p *domain.ProductCatalogEntry, hint string) float64 {
	hint = strings.ToLower(strings.TrimSpace(hint))
	if hint == "" {
		return 0
	}
	if hint == strings.ToLower(p.CategoryL2) {
		return s.config.CategoryBoostMax
	}
	if hint == strings.ToLower(p.CategoryL1) {
		return s.config.CategoryBoostMax / 2
	}
	return 0
}

func (s *SignalScorer) vendorBoost(p *domain.ProductCatalogEntry, vendorName string) float64 {
	vendorName = strings.TrimSpace(vendorName)
	if vendorName == "" {
		return 0
	}
	if alias, ok := s.lookupAlias(vendorName); ok {
		vendorName = alias
	}
	if s.snapshot.HasVendor(p.ProductID, vendorName) {
		return s.config.VendorBoost
	}
	return 0
}

func (s *SignalScorer) lookupAlias(vendorName string) (string, bool) {
	folded := strings.ToLower(vendorName)
	for alias, canonical := range s.config.VendorAliases {
		if strings.Contains(folded, strings.ToLower(alias)) {
			return canonical, true
		}
	}
	return "", false
}

// priceBoost compares the line's unit price, expressed per category
// reference unit where the purchase unit is known, against the mean of
// the product's historical prices on the same basis. Inside the window
// the boost scales linearly with closeness.
func (s *SignalScorer) priceBoost(p *domain.ProductCatalogEntry, line domain.ReceiptLineItem) float64 {
	if line.UnitPrice <= 0 {
		return 0
	}
	history := s.snapshot.PriceHistory(p.ProductID)
	if len(history) == 0 {
		return 0
	}

	mean := s.meanReferencePrice(history)
	if mean <= 0 {
		return 0
	}

	linePrice := s.referencePrice(line.UnitPrice, line.PurchaseUoMText)
	rel := math.Abs(linePrice-mean) / mean
	if rel > s.config.PriceWindow {
		return 0
	}
	return s.config.PriceBoostMax * (1 - rel/s.config.PriceWindow)
}

// meanReferencePrice averages historical unit prices converted to the
// category reference unit via each observation's unit factor.
func (s *SignalScorer) meanReferencePrice(history []domain.VendorPriceObservation) float64 {
	sum, count := 0.0, 0
	for _, obs := range history {
		if obs.UnitPrice <= 0 {
			continue
		}
		price := obs.UnitPrice
		if u, ok := s.snapshot.UoMByID(obs.UoMID); ok && u.Factor > 0 {
			price *= u.Factor
		}
		sum += price
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// referencePrice converts a line's unit price to the reference basis when
// its purchase unit resolves to a catalog unit; otherwise the raw price
// is compared as-is, which is the best available estimate. The raw
// spelling is tried before synonym folding so catalog pack names that
// keep their own abbreviations still hit.
func (s *SignalScorer) referencePrice(unitPrice float64, uomText string) float64 {
	for _, key := range []string{strings.TrimSpace(uomText), normalizeUnitText(uomText)} {
		if u, ok := s.snapshot.UoMByName(key); ok && u.Factor > 0 {
			return unitPrice * u.Factor
		}
	}
	return unitPrice
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
