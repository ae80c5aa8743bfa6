package domain

import "time"

// OverrideSource distinguishes human-asserted entries from staged
// automatic suggestions. Manual entries always win on conflict.
type OverrideSource string

const (
	OverrideManual OverrideSource = "manual"
	OverrideStaged OverrideSource = "staged"
)

// OverrideEntry is a persisted human correction: for this receipt line's
// raw name, the product is known. Consulted before any automatic logic.
type OverrideEntry struct {
	ReceiptID string         `json:"receiptId"`
	RawName   string         `json:"rawName"`
	ProductID int64          `json:"productId"`
	Source    OverrideSource `json:"source"`
	CreatedAt time.Time      `json:"createdAt,omitempty"`
}
