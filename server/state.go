package server

import (
	"context"
	"maps"
	"sync"

	"github.com/etnz/stockfolio"
	"github.com/etnz/stockfolio/quote"
	"github.com/etnz/stockfolio/store"
)

// state is the server's copy of the ledger and the prices. Changes are
// applied to a copy, saved, and only then published.
type state struct {
	store store.Store

	mu     sync.RWMutex
	ledger *stockfolio.Ledger
	manual stockfolio.Prices
	live   map[string]quote.Quote
}

func loadState(ctx context.Context, s store.Store) (*state, error) {
	ledger, err := s.LoadLedger(ctx)
	if err != nil {
		return nil, err
	}
	prices, err := s.LoadPrices(ctx)
	if err != nil {
		return nil, err
	}
	return &state{store: s, ledger: ledger, manual: prices, live: make(map[string]quote.Quote)}, nil
}

// snapshot returns the trades selected by filters and the prices, manual
// prices overriding live quotes.
func (st *state) snapshot(filters ...stockfolio.Filter) ([]stockfolio.Trade, stockfolio.Prices) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.ledger.Trades(filters...), quote.ToPrices(st.live).Merge(st.manual)
}

// codes returns the instrument codes of the ledger.
func (st *state) codes() []string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.ledger.Codes()
}

// updateLedger applies change to a copy of the ledger, saves it, and
// publishes it. Nothing changes when change or the save fail.
func (st *state) updateLedger(ctx context.Context, change func(*stockfolio.Ledger) error) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	next := stockfolio.NewLedger()
	if err := next.Add(st.ledger.Trades()...); err != nil {
		return err
	}
	if err := change(next); err != nil {
		return err
	}
	if err := st.store.SaveLedger(ctx, next); err != nil {
		return err
	}
	st.ledger = next
	return nil
}

// updatePrices is like updateLedger for manual prices.
func (st *state) updatePrices(ctx context.Context, change func(stockfolio.Prices) error) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	next := maps.Clone(st.manual)
	if next == nil {
		next = make(stockfolio.Prices)
	}
	if err := change(next); err != nil {
		return err
	}
	if err := st.store.SavePrices(ctx, next); err != nil {
		return err
	}
	st.manual = next
	return nil
}

// receive stores fresh live quotes.
func (st *state) receive(quotes map[string]quote.Quote) {
	st.mu.Lock()
	defer st.mu.Unlock()
	maps.Copy(st.live, quotes)
}

func (st *state) prices() (manual stockfolio.Prices, live map[string]quote.Quote) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return maps.Clone(st.manual), maps.Clone(st.live)
}
