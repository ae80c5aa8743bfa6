package domain

import "errors"

var (
	// ErrUoMUnresolved is returned when none of the unit resolution steps
	// succeed; the product's default unit is used and the line is flagged.
	ErrUoMUnresolved = errors.New("unit of measure could not be resolved")

	// ErrAmbiguousCompoundUnit is returned when compound parsing finds two
	// plausible readings and neither yields a whole-number quantity.
	ErrAmbiguousCompoundUnit = errors.New("ambiguous compound unit descriptor")

	// ErrSnapshotMissing is fatal: the engine refuses to process any line
	// without a loaded catalog snapshot.
	ErrSnapshotMissing = errors.New("catalog snapshot not loaded")

	// ErrOverrideConflict is returned when a staged override would replace
	// an existing manual entry.
	ErrOverrideConflict = errors.New("override conflicts with manual entry")

	// ErrCacheMiss is returned when a result is not present in the cache.
	ErrCacheMiss = errors.New("cache miss")
)
