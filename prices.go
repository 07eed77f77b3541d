package stockfolio

import (
	"maps"

	"github.com/shopspring/decimal"
)

// Prices maps an instrument code to its current price. Codes must match the
// ledger's codes verbatim. A missing code means the price is unknown, which
// is not the same as a zero price.
type Prices map[string]decimal.Decimal

// Lookup returns the price of code, invalid when unknown.
func (p Prices) Lookup(code string) decimal.NullDecimal {
	v, ok := p[code]
	return decimal.NullDecimal{Decimal: v, Valid: ok}
}

// Merge returns a new map holding p's prices overridden by other's.
func (p Prices) Merge(other Prices) Prices {
	merged := make(Prices, len(p)+len(other))
	maps.Copy(merged, p)
	maps.Copy(merged, other)
	return merged
}
