// Package overrides persists human match corrections. The engine only
// reads this store; writes come from the manual-review workflow, which
// keeps automatic matching from feeding its own guesses back into
// future runs.
package overrides

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/receiptly/backend/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS match_overrides (
	receipt_id TEXT    NOT NULL,
	raw_name   TEXT    NOT NULL,
	product_id INTEGER NOT NULL,
	source     TEXT    NOT NULL DEFAULT 'manual',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (receipt_id, raw_name)
);
`

// SQLiteStore is a flat persisted override table backed by SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if necessary creates) the override database
// at the given path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open override store: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping override store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate override store: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// foldKey normalizes the lookup key the same way on read and write, so
// case and whitespace drift in extracted receipt text cannot hide an
// override.
func foldKey(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Lookup returns the overridden product for a receipt line, if any.
func (s *SQLiteStore) Lookup(ctx context.Context, receiptID, rawName string) (int64, bool, error) {
	var productID int64
	err := s.db.QueryRowContext(ctx,
		`SELECT product_id FROM match_overrides WHERE receipt_id = ? AND raw_name = ?`,
		receiptID, foldKey(rawName),
	).Scan(&productID)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("override lookup: %w", err)
	}
	return productID, true, nil
}

// List returns every stored override, manual and staged.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.OverrideEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT receipt_id, raw_name, product_id, source, created_at
		 FROM match_overrides ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("override list: %w", err)
	}
	defer rows.Close()

	var entries []domain.OverrideEntry
	for rows.Next() {
		var e domain.OverrideEntry
		var source string
		if err := rows.Scan(&e.ReceiptID, &e.RawName, &e.ProductID, &source, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("override scan: %w", err)
		}
		e.Source = domain.OverrideSource(source)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Upsert stores an override. Manual entries replace anything; staged
// entries never replace a manual entry — that path returns
// ErrOverrideConflict so callers surface it instead of silently losing
// a human decision.
func (s *SQLiteStore) Upsert(ctx context.Context, entry domain.OverrideEntry) error {
	if entry.Source == "" {
		entry.Source = domain.OverrideManual
	}
	key := foldKey(entry.RawName)

	if entry.Source == domain.OverrideManual {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO match_overrides (receipt_id, raw_name, product_id, source)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT(receipt_id, raw_name)
			 DO UPDATE SET product_id = excluded.product_id, source = excluded.source`,
			entry.ReceiptID, key, entry.ProductID, string(entry.Source))
		if err != nil {
			return fmt.Errorf("override upsert: %w", err)
		}
		return nil
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO match_overrides (receipt_id, raw_name, product_id, source)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(receipt_id, raw_name)
		 DO UPDATE SET product_id = excluded.product_id
		 WHERE match_overrides.source != 'manual'`,
		entry.ReceiptID, key, entry.ProductID, string(entry.Source))
	if err != nil {
		return fmt.Errorf("override upsert: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("override upsert: %w", err)
	}
	if affected == 0 {
		return domain.ErrOverrideConflict
	}
	return nil
}
