package domain

import "time"

// ProductCatalogEntry is one sellable product from the back-office catalog.
// Entries are immutable for the duration of a reconciliation run.
type ProductCatalogEntry struct {
	ProductID     int64  `json:"productId"`
	CanonicalName string `json:"canonicalName"`
	DefaultUoMID  int64  `json:"defaultUomId"`
	CategoryL1    string `json:"categoryL1,omitempty"`
	CategoryL2    string `json:"categoryL2,omitempty"`
}

// UnitOfMeasure is a named quantity unit belonging to a unit category.
// Factor expresses how many of this unit make up one reference unit of
// its category: with kg as the weight reference, "g" has factor 1000 and
// a "3-lb" pack factor 1/(3*0.4536). Converting between units is only
// valid within one category: converted = qty / fromFactor * toFactor.
type UnitOfMeasure struct {
	UoMID      int64   `json:"uomId"`
	Name       string  `json:"name"`
	CategoryID int64   `json:"categoryId"`
	Factor     float64 `json:"factor"`
}

// VendorPriceObservation is one historical purchase record for a product.
// Read-only; used only for vendor affinity and price-based UoM inference.
type VendorPriceObservation struct {
	ProductID  int64     `json:"productId"`
	VendorName string    `json:"vendorName"`
	UoMID      int64     `json:"uomId"`
	UnitPrice  float64   `json:"unitPrice"`
	ObservedAt time.Time `json:"observedAt"`
}

// UnitCategory ids for the builtin categories every catalog carries.
// Catalogs may define more; these three are the ones the resolver
// reasons about when deciding whether a conversion is safe.
const (
	CategoryCount  int64 = 1
	CategoryWeight int64 = 2
	CategoryVolume int64 = 3
)
