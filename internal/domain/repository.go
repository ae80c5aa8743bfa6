package domain

import "context"

// OverrideRepository is the persisted store of human match corrections.
// The engine only ever reads it; writes come from the manual-review
// workflow through the delivery layer.
type OverrideRepository interface {
	Lookup(ctx context.Context, receiptID, rawName string) (int64, bool, error)
	List(ctx context.Context) ([]OverrideEntry, error)
	Upsert(ctx context.Context, entry OverrideEntry) error
}

// SnapshotSource loads the catalog view the engine matches against.
// Loading happens once per run, before any line is processed.
type SnapshotSource interface {
	Load(ctx context.Context) ([]ProductCatalogEntry, []UnitOfMeasure, []VendorPriceObservation, error)
}

// ResultCache memoizes per-line match results within a run. Receipts from
// the same vendor repeat identical descriptions; recomputing them is
// wasted work but never incorrect, so implementations may drop entries
// freely.
type ResultCache interface {
	Get(ctx context.Context, key string) (*MatchResult, error)
	Set(ctx context.Context, key string, result *MatchResult) error
}
