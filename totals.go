package stockfolio

import "github.com/shopspring/decimal"

// Totals are the portfolio-wide figures of a set of positions.
//
// Cost includes every position. When only some positions have a known price,
// MarketValue sums the known ones, and ProfitLoss compares them with their
// own cost: an unpriced position is left out of both sides rather than
// counted as a total loss. When no price is known at all, the optional
// figures are unknown rather than zero.
type Totals struct {
	Cost              decimal.Decimal     `json:"cost"`
	MarketValue       decimal.NullDecimal `json:"marketValue"`
	ProfitLoss        decimal.NullDecimal `json:"profitLoss"`
	ProfitLossPercent decimal.NullDecimal `json:"profitLossPercent"`
}

// Total reduces positions into Totals.
func Total(positions []Position) Totals {
	totals := Totals{Cost: decimal.Zero}
	value, pricedCost, known := decimal.Zero, decimal.Zero, false
	for _, p := range positions {
		totals.Cost = totals.Cost.Add(p.Cost)
		if p.MarketValue.Valid {
			value = value.Add(p.MarketValue.Decimal)
			pricedCost = pricedCost.Add(p.Cost)
			known = true
		}
	}
	if !known {
		return totals
	}
	pl := value.Sub(pricedCost)
	totals.MarketValue = decimal.NewNullDecimal(value)
	totals.ProfitLoss = decimal.NewNullDecimal(pl)
	totals.ProfitLossPercent = percent(pl, pricedCost)
	return totals
}
