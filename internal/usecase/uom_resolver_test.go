package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/receiptly/backend/internal/catalog"
	"github.com/receiptly/backend/internal/domain"
)

func newTestResolver() (*UoMResolver, *catalog.Snapshot) {
	snap, _, _ := newTestSnapshot()
	return NewUoMResolver(snap, ResolverConfig{}), snap
}

func fixtureProduct(t *testing.T, snap *catalog.Snapshot, id int64) *domain.ProductCatalogEntry {
	t.Helper()
	p, ok := snap.ProductByID(id)
	require.True(t, ok)
	return p
}

func TestParseCompoundUnit(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		parses  int
		perUnit float64
		unit    string
	}{
		{name: "count times size", input: "6*3-kg", parses: 1, perUnit: 18, unit: "kg"},
		{name: "x separator", input: "2 x 10 lb", parses: 1, perUnit: 20, unit: "lb"},
		{name: "sized unit", input: "3-lb", parses: 1, perUnit: 3, unit: "lb"},
		{name: "bare unit", input: "lb", parses: 1, perUnit: 0, unit: "lb"},
		{name: "gibberish", input: "!!??", parses: 0},
		{name: "empty", input: "", parses: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parses := parseCompoundUnit(normalizeUnitText(tt.input))
			require.Len(t, parses, tt.parses)
			if tt.parses == 0 {
				return
			}
			assert.Equal(t, tt.unit, parses[0].Unit)
			if tt.perUnit > 0 {
				assert.True(t, parses[0].HasPerUnit)
				assert.InDelta(t, tt.perUnit, parses[0].PerUnit, 1e-9)
			} else {
				assert.False(t, parses[0].HasPerUnit)
			}
		})
	}
}

func TestParseCompoundUnitAmbiguous(t *testing.T) {
	parses := parseCompoundUnit(normalizeUnitText("6-3-kg"))
	require.Len(t, parses, 2)
	assert.InDelta(t, 18, parses[0].PerUnit, 1e-9)
	assert.InDelta(t, 3, parses[1].PerUnit, 1e-9)
	assert.Equal(t, "kg", parses[0].Unit)
}

func TestNormalizeUnitTextFoldsSynonyms(t *testing.T) {
	assert.Equal(t, "each", normalizeUnitText("Units"))
	assert.Equal(t, "lb", normalizeUnitText("LBS"))
	assert.Equal(t, "6*3-kg", normalizeUnitText("6*3-KGS"))
	assert.Equal(t, "3-lb", normalizeUnitText("3-lbs"))
}

func TestResolveLiteralUnitKeepsQuantity(t *testing.T) {
	resolver, snap := newTestResolver()
	product := fixtureProduct(t, snap, 5) // default 25-lb

	// "3-lb" exists verbatim in the catalog: the literal step wins over
	// conversion into the default unit.
	res := resolver.Resolve(domain.ReceiptLineItem{Quantity: 4, PurchaseUoMText: "3-lb"}, product)
	assert.Equal(t, domain.UoMLiteral, res.Method)
	assert.Equal(t, int64(170), res.UoMID)
	assert.Equal(t, 4.0, res.Quantity)
}

func TestResolveLiteralMatchesRawSpelling(t *testing.T) {
	resolver, snap := newTestResolver()
	product := fixtureProduct(t, snap, 3)

	// Synonym folding rewrites "pc" to "each", but the catalog's own pack
	// name keeps the abbreviation; the raw spelling must still hit.
	res := resolver.Resolve(domain.ReceiptLineItem{Quantity: 2, PurchaseUoMText: "90-PC"}, product)
	assert.Equal(t, domain.UoMLiteral, res.Method)
	assert.Equal(t, int64(130), res.UoMID)
	assert.Equal(t, 2.0, res.Quantity)
}

func TestResolveConvertsBareUnit(t *testing.T) {
	resolver, snap := newTestResolver()
	product := fixtureProduct(t, snap, 2) // default 5-lb

	res := resolver.Resolve(domain.ReceiptLineItem{Quantity: 10, PurchaseUoMText: "lb"}, product)
	assert.Equal(t, domain.UoMConverted, res.Method)
	assert.Equal(t, int64(120), res.UoMID)
	assert.InDelta(t, 2.0, res.Quantity, 1e-9)
}

func TestResolveConvertsCompoundDescriptor(t *testing.T) {
	resolver, snap := newTestResolver()
	product := fixtureProduct(t, snap, 1) // default 10-lb

	// 3 cases of 2*10-lb is 60 lb, which is 6 of the default pack.
	res := resolver.Resolve(domain.ReceiptLineItem{Quantity: 3, PurchaseUoMText: "2*10-lb"}, product)
	assert.Equal(t, domain.UoMConverted, res.Method)
	assert.Equal(t, int64(110), res.UoMID)
	assert.InDelta(t, 6.0, res.Quantity, 1e-9)
}

func TestResolveCountIntoPackUnit(t *testing.T) {
	resolver, snap := newTestResolver()
	product := fixtureProduct(t, snap, 3) // default 90-pc

	// 180 loose units are exactly two 90-piece packs.
	res := resolver.Resolve(domain.ReceiptLineItem{Quantity: 180, PurchaseUoMText: "Units"}, product)
	assert.Equal(t, domain.UoMConverted, res.Method)
	assert.Equal(t, int64(130), res.UoMID)
	assert.InDelta(t, 2.0, res.Quantity, 1e-9)
}

func TestResolveUnitSizeMultiplies(t *testing.T) {
	resolver, snap := newTestResolver()
	product := fixtureProduct(t, snap, 2) // default 5-lb

	// Quantity 4 at 5 lb per unit is 20 lb total, 4 default packs.
	res := resolver.Resolve(domain.ReceiptLineItem{Quantity: 4, UnitSize: 5, PurchaseUoMText: "lb"}, product)
	assert.Equal(t, domain.UoMConverted, res.Method)
	assert.InDelta(t, 4.0, res.Quantity, 1e-9)
}

func TestResolveLiteralCombinesSeparateUnitSize(t *testing.T) {
	resolver, snap := newTestResolver()
	product := fixtureProduct(t, snap, 7) // default kg

	// Quantity 2 at 3 kg each: the line counts sub-units, so the literal
	// catalog unit reports the combined 6 kg, not 2.
	res := resolver.Resolve(domain.ReceiptLineItem{Quantity: 2, UnitSize: 3, PurchaseUoMText: "kg"}, product)
	assert.Equal(t, domain.UoMLiteral, res.Method)
	assert.Equal(t, int64(180), res.UoMID)
	assert.InDelta(t, 6.0, res.Quantity, 1e-9)
}

func TestResolveLiteralPackDescriptorIgnoresUnitSize(t *testing.T) {
	resolver, snap := newTestResolver()
	product := fixtureProduct(t, snap, 5)

	// The descriptor already names the pack; a stray unit size on the
	// line must not scale the pack count.
	res := resolver.Resolve(domain.ReceiptLineItem{Quantity: 4, UnitSize: 3, PurchaseUoMText: "3-lb"}, product)
	assert.Equal(t, domain.UoMLiteral, res.Method)
	assert.Equal(t, int64(170), res.UoMID)
	assert.Equal(t, 4.0, res.Quantity)
}

func TestResolveCrossCategoryKeepsPurchaseUnit(t *testing.T) {
	resolver, snap := newTestResolver()
	product := fixtureProduct(t, snap, 2) // weight default

	res := resolver.Resolve(domain.ReceiptLineItem{Quantity: 12, PurchaseUoMText: "each"}, product)
	assert.Equal(t, domain.UoMKeptPurchase, res.Method)
	assert.Equal(t, int64(0), res.UoMID)
	assert.Equal(t, "each", res.UnitName)
	assert.Equal(t, 12.0, res.Quantity)
}

func TestResolveSimilarPackWhenFactorMissing(t *testing.T) {
	resolver, snap := newTestResolver()
	product := fixtureProduct(t, snap, 6) // default 24-ct, factor never set

	// Conversion is impossible without a factor; the pack whose size
	// divides the total evenly takes over.
	res := resolver.Resolve(domain.ReceiptLineItem{Quantity: 48, PurchaseUoMText: "each"}, product)
	assert.Equal(t, domain.UoMSimilar, res.Method)
	assert.Equal(t, int64(131), res.UoMID)
	assert.InDelta(t, 2.0, res.Quantity, 1e-9)
}

func TestResolveSimilarPrefersLargestDivisor(t *testing.T) {
	resolver, snap := newTestResolver()
	product := fixtureProduct(t, snap, 6)

	// 360 divides by both 24 and 90; the larger pack gives the smaller,
	// more plausible purchase quantity.
	res := resolver.Resolve(domain.ReceiptLineItem{Quantity: 360, PurchaseUoMText: "each"}, product)
	assert.Equal(t, domain.UoMSimilar, res.Method)
	assert.Equal(t, int64(130), res.UoMID)
	assert.InDelta(t, 4.0, res.Quantity, 1e-9)
}

func TestResolvePriceInference(t *testing.T) {
	resolver, snap := newTestResolver()
	product := fixtureProduct(t, snap, 4) // gal history at mean 3.90

	res := resolver.Resolve(domain.ReceiptLineItem{Quantity: 2, UnitPrice: 4.00}, product)
	assert.Equal(t, domain.UoMPriceInferred, res.Method)
	assert.Equal(t, int64(140), res.UoMID)
	assert.Equal(t, 2.0, res.Quantity)
}

func TestResolvePriceInferenceRespectsTolerance(t *testing.T) {
	resolver, snap := newTestResolver()
	product := fixtureProduct(t, snap, 4)

	// 4.68 is 20% above the 3.90 mean, outside the 15% tolerance.
	res := resolver.Resolve(domain.ReceiptLineItem{Quantity: 2, UnitPrice: 4.68}, product)
	assert.Equal(t, domain.UoMUnresolved, res.Method)
	assert.ErrorIs(t, res.Err, domain.ErrUoMUnresolved)
	// The default unit is reported so the reviewer has something to fix.
	assert.Equal(t, int64(140), res.UoMID)
	assert.Equal(t, 2.0, res.Quantity)
}

func TestResolveAmbiguousPrefersWholeQuantity(t *testing.T) {
	resolver, snap := newTestResolver()
	product := fixtureProduct(t, snap, 7) // default kg

	// "6-3-kg" reads as either 18 kg or 3 kg; the first whole-number
	// reading wins.
	res := resolver.Resolve(domain.ReceiptLineItem{Quantity: 1, PurchaseUoMText: "6-3-kg"}, product)
	assert.Equal(t, domain.UoMConverted, res.Method)
	assert.InDelta(t, 18.0, res.Quantity, 1e-9)
}

func TestResolveAmbiguousWithoutWholeReadingGoesToReview(t *testing.T) {
	resolver, snap := newTestResolver()
	product := fixtureProduct(t, snap, 1) // default 10-lb

	// Neither reading of "6-3-kg" converts to a whole number of 10-lb
	// packs, so the descriptor stays ambiguous.
	res := resolver.Resolve(domain.ReceiptLineItem{Quantity: 1, PurchaseUoMText: "6-3-kg"}, product)
	assert.Equal(t, domain.UoMUnresolved, res.Method)
	assert.ErrorIs(t, res.Err, domain.ErrAmbiguousCompoundUnit)
	assert.Equal(t, int64(110), res.UoMID)
}

func TestResolveUnknownUnitFallsBackToDefault(t *testing.T) {
	resolver, snap := newTestResolver()
	product := fixtureProduct(t, snap, 5)

	res := resolver.Resolve(domain.ReceiptLineItem{Quantity: 3, PurchaseUoMText: "zorp"}, product)
	assert.Equal(t, domain.UoMUnresolved, res.Method)
	assert.ErrorIs(t, res.Err, domain.ErrUoMUnresolved)
	assert.Equal(t, int64(150), res.UoMID)
	assert.Equal(t, 3.0, res.Quantity)
}

func TestRepresentedAmount(t *testing.T) {
	size, ok := representedAmount("90-pc")
	require.True(t, ok)
	assert.InDelta(t, 90, size, 1e-9)

	size, ok = representedAmount("6*3-kg")
	require.True(t, ok)
	assert.InDelta(t, 18, size, 1e-9)

	_, ok = representedAmount("gal")
	assert.False(t, ok)
}
