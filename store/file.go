package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/etnz/stockfolio"
	"github.com/rs/zerolog/log"
)

// FileStore keeps the ledger in a JSONL file and the manual prices in a
// sibling JSON file: trades.jsonl goes with trades.prices.json.
//
// A missing file is an empty ledger or an empty price map.
type FileStore struct {
	LedgerPath string
	PricesPath string
}

// NewFileStore returns the FileStore of the ledger at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		LedgerPath: path,
		PricesPath: strings.TrimSuffix(path, filepath.Ext(path)) + ".prices.json",
	}
}

func (s *FileStore) LoadLedger(ctx context.Context) (*stockfolio.Ledger, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.LedgerPath)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debug().Str("path", s.LedgerPath).Msg("ledger does not exist, starting empty")
		return stockfolio.NewLedger(), nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	l, err := stockfolio.DecodeLedger(f)
	if err != nil {
		return nil, fmt.Errorf("could not load ledger %q: %w", s.LedgerPath, err)
	}
	return l, nil
}

func (s *FileStore) SaveLedger(ctx context.Context, l *stockfolio.Ledger) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := stockfolio.EncodeLedger(&buf, l); err != nil {
		return err
	}
	if err := writeFile(s.LedgerPath, &buf); err != nil {
		return fmt.Errorf("could not save ledger %q: %w", s.LedgerPath, err)
	}
	log.Debug().Str("path", s.LedgerPath).Int("trades", l.Len()).Msg("ledger saved")
	return nil
}

func (s *FileStore) LoadPrices(ctx context.Context) (stockfolio.Prices, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.PricesPath)
	if errors.Is(err, fs.ErrNotExist) {
		return stockfolio.Prices{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p, err := stockfolio.DecodePrices(f)
	if err != nil {
		return nil, fmt.Errorf("could not load prices %q: %w", s.PricesPath, err)
	}
	return p, nil
}

func (s *FileStore) SavePrices(ctx context.Context, p stockfolio.Prices) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := stockfolio.EncodePrices(&buf, p); err != nil {
		return err
	}
	if err := writeFile(s.PricesPath, &buf); err != nil {
		return fmt.Errorf("could not save prices %q: %w", s.PricesPath, err)
	}
	return nil
}

// Close does nothing, files are only open during loads and saves.
func (s *FileStore) Close() error { return nil }

// writeFile replaces path with the content of r through a temporary file in
// the same directory, so that readers never see a half-written file.
func writeFile(path string, r io.Reader) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()
	if _, err = io.Copy(tmp, r); err != nil {
		return err
	}
	if err = tmp.Chmod(0o644); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
