// Package snapshot loads the catalog view the engine matches against.
// The back-office system exports one flat document per run; nothing here
// is consulted again after startup.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/receiptly/backend/internal/domain"
)

// document is the export format produced by the back-office dump job.
type document struct {
	Products     []domain.ProductCatalogEntry    `json:"products"`
	Units        []domain.UnitOfMeasure          `json:"units"`
	Observations []domain.VendorPriceObservation `json:"priceObservations"`
}

// FileLoader reads a catalog snapshot from a JSON export file.
type FileLoader struct {
	path string
}

// NewFileLoader creates a loader for the given export path.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{path: path}
}

// Load reads and decodes the export. An unreadable or empty snapshot is
// fatal to the run: the engine refuses to match without a catalog.
func (l *FileLoader) Load(ctx context.Context) ([]domain.ProductCatalogEntry, []domain.UnitOfMeasure, []domain.VendorPriceObservation, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %v", domain.ErrSnapshotMissing, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, nil, fmt.Errorf("decode catalog snapshot: %w", err)
	}
	if len(doc.Products) == 0 || len(doc.Units) == 0 {
		return nil, nil, nil, fmt.Errorf("%w: export at %s has no products or units", domain.ErrSnapshotMissing, l.path)
	}

	return doc.Products, doc.Units, doc.Observations, nil
}
