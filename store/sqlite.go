package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/etnz/stockfolio"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	_ "modernc.org/sqlite" // pure Go SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS trades (
	seq        INTEGER PRIMARY KEY,
	id         TEXT NOT NULL UNIQUE,
	kind       TEXT NOT NULL,
	time       TEXT NOT NULL,
	code       TEXT NOT NULL,
	name       TEXT NOT NULL DEFAULT '',
	price      TEXT NOT NULL,
	quantity   INTEGER NOT NULL,
	commission TEXT NOT NULL DEFAULT '0',
	tags       TEXT NOT NULL DEFAULT '[]',
	memo       TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS trades_code ON trades(code);
CREATE TABLE IF NOT EXISTS prices (
	code  TEXT PRIMARY KEY,
	price TEXT NOT NULL
);
`

// SQLiteStore keeps the ledger and the manual prices in a SQLite database.
// Decimals are stored as text to stay exact, the seq column keeps the
// ledger's insertion order.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the database at path and its schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	connStr := path + "?_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %q: %w", path, err)
	}
	// A single writer is all SQLite can do.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database %q: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema in %q: %w", path, err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

func (s *SQLiteStore) LoadLedger(ctx context.Context) (*stockfolio.Ledger, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, kind, time, code, name, price, quantity, commission, tags, memo FROM trades ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []stockfolio.Trade
	for rows.Next() {
		var (
			t                        stockfolio.Trade
			kind, stamp, price, comm string
			tags                     string
		)
		if err := rows.Scan(&t.ID, &kind, &stamp, &t.Code, &t.Name, &price, &t.Quantity, &comm, &tags, &t.Memo); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		t.Kind = stockfolio.Kind(kind)
		if t.Time, err = time.Parse(time.RFC3339Nano, stamp); err != nil {
			return nil, fmt.Errorf("trade %q: invalid time: %w", t.ID, err)
		}
		if t.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("trade %q: invalid price: %w", t.ID, err)
		}
		if t.Commission, err = decimal.NewFromString(comm); err != nil {
			return nil, fmt.Errorf("trade %q: invalid commission: %w", t.ID, err)
		}
		if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil {
			return nil, fmt.Errorf("trade %q: invalid tags: %w", t.ID, err)
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trades: %w", err)
	}

	l := stockfolio.NewLedger()
	if err := l.Add(trades...); err != nil {
		return nil, fmt.Errorf("could not load ledger %q: %w", s.path, err)
	}
	return l, nil
}

func (s *SQLiteStore) SaveLedger(ctx context.Context, l *stockfolio.Ledger) error {
	err := s.withTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM trades`); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO trades (seq, id, kind, time, code, name, price, quantity, commission, tags, memo) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		seq := 0
		for t := range l.All() {
			seq++
			tags, err := json.Marshal([]string(stockfolio.NewTags(t.Tags...)))
			if err != nil {
				return err
			}
			_, err = stmt.ExecContext(ctx, seq, t.ID, string(t.Kind), t.Time.Format(time.RFC3339Nano),
				t.Code, t.Name, t.Price.String(), t.Quantity, t.Commission.String(), string(tags), t.Memo)
			if err != nil {
				return fmt.Errorf("failed to insert trade %q: %w", t.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Debug().Str("path", s.path).Int("trades", l.Len()).Msg("ledger saved")
	return nil
}

func (s *SQLiteStore) LoadPrices(ctx context.Context) (stockfolio.Prices, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT code, price FROM prices`)
	if err != nil {
		return nil, fmt.Errorf("failed to query prices: %w", err)
	}
	defer rows.Close()

	prices := stockfolio.Prices{}
	for rows.Next() {
		var code, price string
		if err := rows.Scan(&code, &price); err != nil {
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		if prices[code], err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("invalid price for %q: %w", code, err)
		}
	}
	return prices, rows.Err()
}

func (s *SQLiteStore) SavePrices(ctx context.Context, p stockfolio.Prices) error {
	return s.withTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM prices`); err != nil {
			return err
		}
		for code, price := range p {
			if _, err := tx.ExecContext(ctx, `INSERT INTO prices (code, price) VALUES (?, ?)`, code, price.String()); err != nil {
				return fmt.Errorf("failed to insert price of %q: %w", code, err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

// withTransaction runs fn in a transaction, committed when fn succeeds and
// rolled back otherwise.
func (s *SQLiteStore) withTransaction(ctx context.Context, fn func(*sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			err = fmt.Errorf("panic in transaction: %v", p)
		} else if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				err = fmt.Errorf("transaction failed: %w (rollback also failed: %v)", err, rollbackErr)
			} else {
				err = fmt.Errorf("transaction failed: %w", err)
			}
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
