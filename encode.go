package stockfolio

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// The ledger is persisted as JSONL: one trade per line, in insertion order,
// with a stable key order so that the file stays human-readable and diffs
// well under version control.

// EncodeTrade writes t as a single JSON line.
func EncodeTrade(w io.Writer, t Trade) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("could not encode trade %s: %w", t.label(), err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// EncodeLedger writes every trade of l, one per line.
func EncodeLedger(w io.Writer, l *Ledger) error {
	bw := bufio.NewWriter(w)
	for t := range l.All() {
		if err := EncodeTrade(bw, t); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// DecodeLedger reads a JSONL stream of trades. Blank lines are skipped. Every
// trade goes through the ledger-write boundary, errors report the line number.
func DecodeLedger(r io.Reader) (*Ledger, error) {
	ledger := NewLedger()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for scanner.Scan() {
		n++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var t Trade
		if err := json.Unmarshal(line, &t); err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		if err := ledger.Add(t); err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("could not read ledger: %w", err)
	}
	return ledger, nil
}

// EncodePrices writes prices as a JSON object sorted by code.
func EncodePrices(w io.Writer, prices Prices) error {
	codes := slices.Sorted(maps.Keys(prices))
	var b strings.Builder
	b.WriteString("{\n")
	for i, code := range codes {
		key, err := json.Marshal(code)
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "  %s: %s", key, prices[code].String())
		if i < len(codes)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString("}\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// DecodePrices reads a JSON object mapping codes to prices. Non-positive
// prices are rejected.
func DecodePrices(r io.Reader) (Prices, error) {
	var raw map[string]decimal.Decimal
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return Prices{}, nil
		}
		return nil, fmt.Errorf("could not decode prices: %w", err)
	}
	prices := make(Prices, len(raw))
	for code, price := range raw {
		if !price.IsPositive() {
			return nil, fmt.Errorf("price of %q must be positive, got %s", code, price)
		}
		prices[code] = price
	}
	return prices, nil
}
