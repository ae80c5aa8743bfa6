package domain

// ReceiptLineItem is one extracted line from a vendor receipt, as produced
// by the upstream extraction collaborator. Transient; one per receipt line.
type ReceiptLineItem struct {
	ReceiptID       string  `json:"receiptId"`
	LineIndex       int     `json:"lineIndex"`
	RawDescription  string  `json:"rawDescription"`
	Quantity        float64 `json:"quantity"`
	UnitPrice       float64 `json:"unitPrice"`
	TotalPrice      float64 `json:"totalPrice"`
	PurchaseUoMText string  `json:"purchaseUomText"`
	// UnitSize carries a separately stated per-unit size when the receipt
	// encodes it apart from the quantity, e.g. quantity=2 of "64 fl oz".
	UnitSize     float64 `json:"unitSize,omitempty"`
	VendorName   string  `json:"vendorName,omitempty"`
	CategoryHint string  `json:"categoryHint,omitempty"`
}

// MatchMethod identifies which path produced a product match.
type MatchMethod string

const (
	MethodOverride    MatchMethod = "override"
	MethodExact       MatchMethod = "exact"
	MethodNormalized  MatchMethod = "normalized"
	MethodKeywordRule MatchMethod = "keyword_rule"
	MethodFuzzy       MatchMethod = "fuzzy"
	MethodWordIndex   MatchMethod = "word_index"
	MethodNone        MatchMethod = "none"
)

// UoMMethod identifies which resolution step produced the unit decision.
type UoMMethod string

const (
	UoMLiteral       UoMMethod = "literal"
	UoMConverted     UoMMethod = "converted"
	UoMKeptPurchase  UoMMethod = "kept_purchase_uom"
	UoMSimilar       UoMMethod = "similar_uom"
	UoMPriceInferred UoMMethod = "price_inferred"
	UoMUnresolved    UoMMethod = "unresolved"
)

// MatchResult is the engine's verdict for one receipt line. ProductID of
// zero means no product was matched, which is distinct from a low
// confidence match (nonzero ProductID with NeedsReview set).
type MatchResult struct {
	LineIndex         int         `json:"lineIndex"`
	ProductID         int64       `json:"productId,omitempty"`
	Confidence        float64     `json:"confidence"`
	MatchMethod       MatchMethod `json:"matchMethod"`
	UoMID             int64       `json:"uomId,omitempty"`
	ConvertedQuantity float64     `json:"convertedQuantity"`
	UoMMethod         UoMMethod   `json:"uomMethod,omitempty"`
	NeedsReview       bool        `json:"needsReview"`
}

// Matched reports whether a product was selected for this line.
func (r *MatchResult) Matched() bool {
	return r.ProductID != 0
}

// BatchSummary aggregates one reconciliation run for reporting.
type BatchSummary struct {
	TotalLines   int `json:"totalLines"`
	Matched      int `json:"matched"`
	ByOverride   int `json:"byOverride"`
	Rejected     int `json:"rejected"`
	NeedsReview  int `json:"needsReview"`
	UoMResolved  int `json:"uomResolved"`
	UoMFallbacks int `json:"uomFallbacks"`
}
