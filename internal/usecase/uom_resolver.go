package usecase

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/receiptly/backend/internal/catalog"
	"github.com/receiptly/backend/internal/domain"
)

// Compound descriptor grammars: "6*3-kg", "3-lb", bare "lb". The
// double-number form "6-3-kg" is genuinely ambiguous and yields two
// candidate parses.
var (
	compoundUnitRegex  = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*[*x]\s*(\d+(?:\.\d+)?)\s*-?\s*([a-z][a-z ]*)$`)
	ambiguousUnitRegex = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*-\s*(\d+(?:\.\d+)?)\s*-\s*([a-z][a-z ]*)$`)
	sizedUnitRegex     = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*[- ]\s*([a-z][a-z ]*)$`)
	bareUnitRegex      = regexp.MustCompile(`^[a-z][a-z .]*$`)
)

// unitSynonyms folds the many receipt spellings of a unit onto one
// canonical name before any lookup or conversion.
var unitSynonyms = map[string]string{
	"ea": "each", "pc": "each", "pcs": "each", "piece": "each",
	"pieces": "each", "unit": "each", "units": "each", "ct": "each",
	"count": "each",
	"dz": "dozen",
	"lbs": "lb", "pound": "lb", "pounds": "lb",
	"kgs": "kg", "kilo": "kg", "kilos": "kg", "kilogram": "kg", "kilograms": "kg",
	"gr": "g", "gram": "g", "grams": "g",
	"ounce": "oz", "ounces": "oz",
	"floz": "fl oz", "fl. oz": "fl oz", "fluid oz": "fl oz", "fluid ounce": "fl oz",
	"lt": "l", "ltr": "l", "liter": "l", "liters": "l", "litre": "l", "litres": "l",
	"milliliter": "ml", "milliliters": "ml",
	"gallon": "gal", "gallons": "gal",
	"quart": "qt", "quarts": "qt",
	"pint": "pt", "pints": "pt",
	"cs": "case",
}

// baseUnit describes a unit the resolver understands even when the
// catalog's unit table does not list it. Factors follow the catalog
// convention: units per category reference (each, kg, l).
type baseUnit struct {
	category int64
	factor   float64
}

var baseUnits = map[string]baseUnit{
	"each":  {domain.CategoryCount, 1},
	"dozen": {domain.CategoryCount, 1.0 / 12},
	"kg":    {domain.CategoryWeight, 1},
	"g":     {domain.CategoryWeight, 1000},
	"lb":    {domain.CategoryWeight, 2.2046226218},
	"oz":    {domain.CategoryWeight, 35.27396195},
	"l":     {domain.CategoryVolume, 1},
	"ml":    {domain.CategoryVolume, 1000},
	"fl oz": {domain.CategoryVolume, 33.8140227},
	"gal":   {domain.CategoryVolume, 0.2641720524},
	"qt":    {domain.CategoryVolume, 1.0566882094},
	"pt":    {domain.CategoryVolume, 2.1133764189},
}

// parsedUnit is one reading of a purchase-unit descriptor. PerUnit is the
// total sub-unit amount represented by a single purchase unit: "6*3-kg"
// parses to PerUnit 18 of "kg".
type parsedUnit struct {
	Unit       string
	PerUnit    float64
	HasPerUnit bool
}

// ResolverConfig holds the resolver's tolerances. PriceTolerance and
// DivisibilityTolerance were tuned empirically; keep them configurable.
type ResolverConfig struct {
	// PriceTolerance is the maximum relative difference between the line
	// price and a unit's historical price for price-based inference.
	PriceTolerance float64
	// DivisibilityTolerance is how far from a whole multiple a purchase
	// total may fall and still count as divisible by a pack size.
	DivisibilityTolerance float64
}

// DefaultResolverConfig returns the tuned production values.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		PriceTolerance:        0.15,
		DivisibilityTolerance: 0.01,
	}
}

// UoMResolution is the resolver's verdict for one line. UoMID is zero
// when the purchase unit was kept but does not exist in the catalog;
// UnitName then carries the canonical purchase unit for the reviewer.
type UoMResolution struct {
	UoMID    int64
	UnitName string
	Quantity float64
	Method   domain.UoMMethod
	Err      error
}

// UoMResolver converts a receipt line's purchase unit and quantity into
// a unit the catalog accepts, falling back through literal lookup,
// category conversion, pack-size matching, and price-based inference.
type UoMResolver struct {
	snapshot *catalog.Snapshot
	config   ResolverConfig
}

// NewUoMResolver creates a resolver over the given snapshot, filling
// zero-valued config fields with the tuned defaults.
func NewUoMResolver(snapshot *catalog.Snapshot, config ResolverConfig) *UoMResolver {
	defaults := DefaultResolverConfig()
	if config.PriceTolerance <= 0 {
		config.PriceTolerance = defaults.PriceTolerance
	}
	if config.DivisibilityTolerance <= 0 {
		config.DivisibilityTolerance = defaults.DivisibilityTolerance
	}
	return &UoMResolver{snapshot: snapshot, config: config}
}

// Resolve determines the unit and converted quantity for a line matched
// to the given product. It never fails hard: the worst outcome is the
// product's default unit with the original quantity, flagged unresolved.
func (r *UoMResolver) Resolve(line domain.ReceiptLineItem, product *domain.ProductCatalogEntry) UoMResolution {
	defaultUoM, hasDefault := r.snapshot.UoMByID(product.DefaultUoMID)

	rawText := strings.ToLower(strings.TrimSpace(line.PurchaseUoMText))
	text := normalizeUnitText(line.PurchaseUoMText)
	parses := parseCompoundUnit(text)

	if len(parses) == 0 {
		// No usable unit text at all: try price inference, then give up.
		if res, ok := r.inferFromPrice(line, product); ok {
			return res
		}
		return r.unresolved(line, product, hasDefault, domain.ErrUoMUnresolved)
	}

	var results []UoMResolution
	for _, parse := range parses {
		if res, ok := r.resolveParse(rawText, text, parse, line, product, defaultUoM, hasDefault); ok {
			results = append(results, res)
		}
	}

	switch len(results) {
	case 0:
		if res, ok := r.inferFromPrice(line, product); ok {
			return res
		}
		return r.unresolved(line, product, hasDefault, domain.ErrUoMUnresolved)
	case 1:
		return results[0]
	default:
		// Ambiguous compound descriptor: prefer the reading that yields a
		// whole-number quantity; with none, the line goes to review.
		for _, res := range results {
			if isWhole(res.Quantity) {
				return res
			}
		}
		return r.unresolved(line, product, hasDefault, domain.ErrAmbiguousCompoundUnit)
	}
}

// resolveParse runs steps 3-7 of the resolution ladder for one reading
// of the unit text.
func (r *UoMResolver) resolveParse(
	rawText, text string,
	parse parsedUnit,
	line domain.ReceiptLineItem,
	product *domain.ProductCatalogEntry,
	defaultUoM *domain.UnitOfMeasure,
	hasDefault bool,
) (UoMResolution, bool) {
	// The total amount in sub-units: quantity times the per-unit size
	// when the descriptor (or the line itself) states one.
	amount := line.Quantity
	switch {
	case parse.HasPerUnit:
		amount *= parse.PerUnit
	case line.UnitSize > 0:
		amount *= line.UnitSize
	}

	// Step 3: the literal (possibly compound) unit string exists verbatim
	// in the catalog. The original quantity is kept when the descriptor
	// itself names the pack; a unit size stated separately on the line
	// means the quantity counts sub-units, so the combined amount is
	// reported instead (2 of "64 fl oz" is 128 fl oz). The raw spelling
	// is checked as well because catalog pack names keep their own
	// abbreviations ("90-pc") that synonym folding would rewrite.
	literalQty := line.Quantity
	if !parse.HasPerUnit && line.UnitSize > 0 {
		literalQty = amount
	}
	for _, key := range []string{rawText, text} {
		if u, ok := r.snapshot.UoMByName(key); ok {
			return UoMResolution{UoMID: u.UoMID, UnitName: u.Name, Quantity: literalQty, Method: domain.UoMLiteral}, true
		}
	}

	subCategory, subFactor, known := r.subUnitInfo(parse.Unit)
	if !known || !hasDefault {
		return UoMResolution{}, false
	}

	// Step 4: same category, convert by factors. Units with unusable
	// factors fall through to pack-size matching instead.
	if subCategory == defaultUoM.CategoryID {
		if subFactor > 0 && defaultUoM.Factor > 0 {
			converted := amount / subFactor * defaultUoM.Factor
			return UoMResolution{
				UoMID:    defaultUoM.UoMID,
				UnitName: defaultUoM.Name,
				Quantity: converted,
				Method:   domain.UoMConverted,
			}, true
		}
	} else if crossCategory(subCategory, defaultUoM.CategoryID) {
		// Step 5: count against weight/volume (or the reverse) must never
		// convert silently; without an explicit per-unit weight there is
		// no valid factor. Keep the purchase unit as stated.
		res := UoMResolution{UnitName: parse.Unit, Quantity: line.Quantity, Method: domain.UoMKeptPurchase}
		if u, ok := r.snapshot.UoMByName(parse.Unit); ok {
			res.UoMID = u.UoMID
		}
		return res, true
	}

	// Step 6: nearest compound unit in the default category whose pack
	// size divides the purchase total evenly.
	if res, ok := r.similarCompoundUnit(amount, defaultUoM.CategoryID); ok {
		return res, true
	}

	// Step 7 runs in Resolve's fallthrough; signal no result here.
	return UoMResolution{}, false
}

// subUnitInfo resolves a canonical sub-unit name to its category and
// factor, preferring the catalog's own table over the builtin base units.
func (r *UoMResolver) subUnitInfo(unit string) (int64, float64, bool) {
	if u, ok := r.snapshot.UoMByName(unit); ok {
		return u.CategoryID, u.Factor, true
	}
	if b, ok := baseUnits[unit]; ok {
		return b.category, b.factor, true
	}
	return 0, 0, false
}

// similarCompoundUnit scans the catalog units of a category for a pack
// descriptor whose represented amount divides the total within tolerance.
// Among divisors the largest pack wins, giving the smallest quantity.
func (r *UoMResolver) similarCompoundUnit(amount float64, categoryID int64) (UoMResolution, bool) {
	type fit struct {
		uom  *domain.UnitOfMeasure
		size float64
	}
	var fits []fit
	for _, u := range r.snapshot.UoMsInCategory(categoryID) {
		size, ok := representedAmount(u.Name)
		if !ok || size <= 0 {
			continue
		}
		ratio := amount / size
		if ratio < 1-r.config.DivisibilityTolerance {
			continue
		}
		if dividesEvenly(ratio, r.config.DivisibilityTolerance) {
			fits = append(fits, fit{uom: u, size: size})
		}
	}
	if len(fits) == 0 {
		return UoMResolution{}, false
	}
	sort.SliceStable(fits, func(i, j int) bool { return fits[i].size > fits[j].size })
	best := fits[0]
	return UoMResolution{
		UoMID:    best.uom.UoMID,
		UnitName: best.uom.Name,
		Quantity: math.Round(amount / best.size),
		Method:   domain.UoMSimilar,
	}, true
}

// inferFromPrice selects the historically observed unit whose mean price
// sits closest to the line's unit price, accepting only within the
// configured tolerance. Ties prefer units with more observations.
func (r *UoMResolver) inferFromPrice(line domain.ReceiptLineItem, product *domain.ProductCatalogEntry) (UoMResolution, bool) {
	if line.UnitPrice <= 0 {
		return UoMResolution{}, false
	}
	history := r.snapshot.PriceHistory(product.ProductID)
	if len(history) == 0 {
		return UoMResolution{}, false
	}

	type stat struct {
		sum   float64
		count int
	}
	stats := make(map[int64]*stat)
	for _, obs := range history {
		if obs.UnitPrice <= 0 {
			continue
		}
		st, ok := stats[obs.UoMID]
		if !ok {
			st = &stat{}
			stats[obs.UoMID] = st
		}
		st.sum += obs.UnitPrice
		st.count++
	}

	var (
		bestUoM   int64
		bestDiff  = math.MaxFloat64
		bestCount int
		found     bool
	)
	for uomID, st := range stats {
		mean := st.sum / float64(st.count)
		if mean <= 0 {
			continue
		}
		diff := math.Abs(line.UnitPrice-mean) / mean
		if diff > r.config.PriceTolerance {
			continue
		}
		better := diff < bestDiff ||
			(diff == bestDiff && st.count > bestCount) ||
			(diff == bestDiff && st.count == bestCount && uomID < bestUoM)
		if !found || better {
			bestUoM, bestDiff, bestCount, found = uomID, diff, st.count, true
		}
	}
	if !found {
		return UoMResolution{}, false
	}

	res := UoMResolution{UoMID: bestUoM, Quantity: line.Quantity, Method: domain.UoMPriceInferred}
	if u, ok := r.snapshot.UoMByID(bestUoM); ok {
		res.UnitName = u.Name
	}
	return res, true
}

func (r *UoMResolver) unresolved(line domain.ReceiptLineItem, product *domain.ProductCatalogEntry, hasDefault bool, err error) UoMResolution {
	res := UoMResolution{Quantity: line.Quantity, Method: domain.UoMUnresolved, Err: err}
	if hasDefault {
		if u, ok := r.snapshot.UoMByID(product.DefaultUoMID); ok {
			res.UoMID = u.UoMID
			res.UnitName = u.Name
		}
	}
	return res
}

// normalizeUnitText lowercases, trims, and folds unit synonyms in a
// purchase-unit string. Folding applies to the trailing word so compound
// descriptors keep their numeric prefix: "6*3-KGS" -> "6*3-kg".
func normalizeUnitText(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return ""
	}
	s = multiSpaceRegex.ReplaceAllString(s, " ")

	if canonical, ok := unitSynonyms[s]; ok {
		return canonical
	}

	// Fold the unit word inside a compound descriptor.
	for _, re := range []*regexp.Regexp{compoundUnitRegex, ambiguousUnitRegex, sizedUnitRegex} {
		if m := re.FindStringSubmatch(s); m != nil {
			unit := strings.TrimSpace(m[len(m)-1])
			if canonical, ok := unitSynonyms[unit]; ok {
				return s[:len(s)-len(m[len(m)-1])] + canonical
			}
			return s
		}
	}
	return s
}

// parseCompoundUnit parses a normalized unit descriptor into one or more
// candidate readings. A bare unit has no per-unit amount; "3-lb" has
// amount 3; "6*3-kg" has the total 18. The "6-3-kg" form returns both
// plausible readings for the caller to disambiguate.
func parseCompoundUnit(text string) []parsedUnit {
	if text == "" {
		return nil
	}

	if m := compoundUnitRegex.FindStringSubmatch(text); m != nil {
		count := parseFloat(m[1])
		size := parseFloat(m[2])
		unit := foldUnit(m[3])
		return []parsedUnit{{Unit: unit, PerUnit: count * size, HasPerUnit: true}}
	}

	if m := ambiguousUnitRegex.FindStringSubmatch(text); m != nil {
		first := parseFloat(m[1])
		second := parseFloat(m[2])
		unit := foldUnit(m[3])
		return []parsedUnit{
			{Unit: unit, PerUnit: first * second, HasPerUnit: true},
			{Unit: unit, PerUnit: second, HasPerUnit: true},
		}
	}

	if m := sizedUnitRegex.FindStringSubmatch(text); m != nil {
		size := parseFloat(m[1])
		unit := foldUnit(m[2])
		return []parsedUnit{{Unit: unit, PerUnit: size, HasPerUnit: true}}
	}

	if bareUnitRegex.MatchString(text) {
		return []parsedUnit{{Unit: foldUnit(text)}}
	}

	return nil
}

func foldUnit(unit string) string {
	unit = strings.TrimSpace(unit)
	if canonical, ok := unitSynonyms[unit]; ok {
		return canonical
	}
	return unit
}

// representedAmount extracts the pack size a catalog unit name encodes:
// "90-pc" -> 90, "6*3-kg" -> 18. Units without a numeric descriptor have
// no represented amount.
func representedAmount(name string) (float64, bool) {
	parses := parseCompoundUnit(normalizeUnitText(name))
	if len(parses) == 0 || !parses[0].HasPerUnit {
		return 0, false
	}
	return parses[0].PerUnit, true
}

// crossCategory reports whether exactly one of the two categories is
// count. Weight against volume is also unconvertible but falls through
// to pack-size and price inference instead.
func crossCategory(a, b int64) bool {
	if a == b {
		return false
	}
	return (a == domain.CategoryCount) != (b == domain.CategoryCount)
}

func dividesEvenly(ratio, tolerance float64) bool {
	nearest := math.Round(ratio)
	if nearest < 1 {
		return false
	}
	return math.Abs(ratio-nearest) <= tolerance*nearest
}

func isWhole(v float64) bool {
	return math.Abs(v-math.Round(v)) < 1e-9
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
