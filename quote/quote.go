// Package quote fetches live quotes from third-party market-data endpoints
// and turns them into the price map consumed by the portfolio engines.
package quote

import (
	"context"
	"time"

	"github.com/etnz/stockfolio"
	"github.com/shopspring/decimal"
)

// Quote is the latest market data of one instrument.
type Quote struct {
	Code      string          `json:"code"`
	Name      string          `json:"name,omitempty"`
	Price     decimal.Decimal `json:"price"`
	PrevClose decimal.Decimal `json:"prevClose"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Time      time.Time       `json:"time,omitzero"`
}

// Change returns the price change since the previous close, and its
// percentage. Both are unknown without a previous close.
func (q Quote) Change() (decimal.NullDecimal, decimal.NullDecimal) {
	if !q.PrevClose.IsPositive() {
		return decimal.NullDecimal{}, decimal.NullDecimal{}
	}
	change := q.Price.Sub(q.PrevClose)
	pct := change.Mul(decimal.NewFromInt(100)).Div(q.PrevClose)
	return decimal.NewNullDecimal(change), decimal.NewNullDecimal(pct)
}

// Source provides quotes.
//
// Quotes returns the quotes it could get, keyed by code. Codes without data
// are simply absent from the map, which is not an error. The error reports a
// failure to reach the provider; the map may still hold partial results.
type Source interface {
	Quotes(ctx context.Context, codes ...string) (map[string]Quote, error)
}

// ToPrices returns the price map of quotes. Quotes without a positive price
// are left out: their price is unknown.
func ToPrices(quotes map[string]Quote) stockfolio.Prices {
	prices := make(stockfolio.Prices, len(quotes))
	for code, q := range quotes {
		if q.Price.IsPositive() {
			prices[code] = q.Price
		}
	}
	return prices
}
