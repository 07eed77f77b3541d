package stockfolio

import (
	"errors"
	"fmt"
	"iter"
	"slices"

	"github.com/etnz/stockfolio/date"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no trade has the requested id.
	ErrNotFound = errors.New("trade not found")
	// ErrDuplicateID is returned when adding a trade whose id is already used.
	ErrDuplicateID = errors.New("duplicate trade id")
)

// Ledger is the ordered collection of trades, the single source of truth
// every figure is derived from.
//
// Trades are kept in insertion order; the engines sort their own copy by
// time. The Ledger is the write boundary: every trade is validated on the
// way in, and invalid ones are rejected, never coerced.
//
// A Ledger is not safe for concurrent use.
type Ledger struct {
	trades []Trade
	index  map[string]int // trade position by id
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{index: make(map[string]int)}
}

// Len returns the number of trades.
func (l *Ledger) Len() int { return len(l.trades) }

// Add validates and appends trades. Trades without ID get a fresh one.
// Either all trades are added or none is.
func (l *Ledger) Add(trades ...Trade) error {
	if l.index == nil {
		l.index = make(map[string]int)
	}
	pending := make([]Trade, 0, len(trades))
	seen := make(map[string]struct{}, len(trades))
	for _, t := range trades {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		if err := t.Validate(); err != nil {
			return err
		}
		if _, exists := l.index[t.ID]; exists {
			return fmt.Errorf("%w: %q", ErrDuplicateID, t.ID)
		}
		if _, exists := seen[t.ID]; exists {
			return fmt.Errorf("%w: %q", ErrDuplicateID, t.ID)
		}
		seen[t.ID] = struct{}{}
		t.Tags = NewTags(t.Tags...)
		pending = append(pending, t)
	}
	for _, t := range pending {
		l.index[t.ID] = len(l.trades)
		l.trades = append(l.trades, t)
	}
	return nil
}

// Replace swaps the trade having t.ID for t, keeping its position.
func (l *Ledger) Replace(t Trade) error {
	i, ok := l.index[t.ID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, t.ID)
	}
	if err := t.Validate(); err != nil {
		return err
	}
	t.Tags = NewTags(t.Tags...)
	l.trades[i] = t
	return nil
}

// Delete removes the trade with that id.
func (l *Ledger) Delete(id string) error {
	if _, ok := l.index[id]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	l.DeleteAll(id)
	return nil
}

// DeleteAll removes every trade whose id is in ids, unknown ids are ignored.
// It returns the number of trades removed.
func (l *Ledger) DeleteAll(ids ...string) int {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	before := len(l.trades)
	l.trades = slices.DeleteFunc(l.trades, func(t Trade) bool {
		_, ok := drop[t.ID]
		return ok
	})
	l.reindex()
	return before - len(l.trades)
}

func (l *Ledger) reindex() {
	clear(l.index)
	for i, t := range l.trades {
		l.index[t.ID] = i
	}
}

// Trade returns the trade with that id.
func (l *Ledger) Trade(id string) (Trade, bool) {
	i, ok := l.index[id]
	if !ok {
		return Trade{}, false
	}
	return l.trades[i], true
}

// Filter selects trades. Filters passed together must all accept a trade.
type Filter func(Trade) bool

// ByCode accepts trades on any of the given instrument codes.
func ByCode(codes ...string) Filter {
	return func(t Trade) bool { return slices.Contains(codes, t.Code) }
}

// ByTag accepts trades carrying the label.
func ByTag(label string) Filter {
	return func(t Trade) bool { return t.Tags.Has(label) }
}

// ByKind accepts trades of that kind.
func ByKind(k Kind) Filter {
	return func(t Trade) bool { return t.Kind == k }
}

// ByIDs accepts the selected trades only.
func ByIDs(ids ...string) Filter {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return func(t Trade) bool {
		_, ok := set[t.ID]
		return ok
	}
}

// InRange accepts trades executed within r.
func InRange(r date.Range) Filter {
	return func(t Trade) bool { return r.Contains(t.Date()) }
}

// All iterates over trades in insertion order.
func (l *Ledger) All(filters ...Filter) iter.Seq[Trade] {
	return func(yield func(Trade) bool) {
	next:
		for _, t := range l.trades {
			for _, accept := range filters {
				if !accept(t) {
					continue next
				}
			}
			if !yield(t) {
				return
			}
		}
	}
}

// Trades returns a fresh slice of the selected trades, safe to hand over to
// the engines while the ledger keeps changing.
func (l *Ledger) Trades(filters ...Filter) []Trade {
	return slices.Collect(l.All(filters...))
}

// Codes returns the sorted distinct instrument codes.
func (l *Ledger) Codes() []string {
	codes := make([]string, 0, len(l.trades))
	for _, t := range l.trades {
		codes = append(codes, t.Code)
	}
	slices.Sort(codes)
	return slices.Compact(codes)
}

// Names maps each code to the most recent non-empty name in time order.
func (l *Ledger) Names() map[string]string {
	names := make(map[string]string)
	for _, t := range chronological(l.trades) {
		if t.Name != "" {
			names[t.Code] = t.Name
		}
	}
	return names
}
