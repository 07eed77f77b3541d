// Package store persists the ledger and the manual prices.
//
// Two backends are available, picked by the ledger path's extension: a
// human-readable JSONL file (the default, friendly to version control) and a
// SQLite database.
package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/etnz/stockfolio"
)

// Store loads and saves the ledger and the manual prices.
//
// Saving replaces the whole content: the ledger is the single source of
// truth, it is always written as a whole.
type Store interface {
	LoadLedger(ctx context.Context) (*stockfolio.Ledger, error)
	SaveLedger(ctx context.Context, l *stockfolio.Ledger) error
	LoadPrices(ctx context.Context) (stockfolio.Prices, error)
	SavePrices(ctx context.Context, p stockfolio.Prices) error
	Close() error
}

// Open returns the store for path: a FileStore for .jsonl files and a
// SQLiteStore for .db or .sqlite files.
func Open(path string) (Store, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".jsonl":
		return NewFileStore(path), nil
	case ".db", ".sqlite":
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unsupported ledger file %q: extension must be .jsonl, .db or .sqlite", path)
	}
}
