package stockfolio

import "github.com/shopspring/decimal"

// Position is the net holding of one instrument, derived from its trades.
//
// The price-derived fields are valid only when a price is known for the
// instrument: an unknown price is never treated as zero.
type Position struct {
	Code              string              `json:"code"`
	Name              string              `json:"name"`
	Quantity          int64               `json:"quantity"`
	Cost              decimal.Decimal     `json:"cost"`        // cost basis of the held units
	AverageCost       decimal.Decimal     `json:"averageCost"` // Cost / Quantity
	Price             decimal.NullDecimal `json:"price"`
	MarketValue       decimal.NullDecimal `json:"marketValue"`
	ProfitLoss        decimal.NullDecimal `json:"profitLoss"`
	ProfitLossPercent decimal.NullDecimal `json:"profitLossPercent"`
}

// Aggregate folds trades into one position per instrument code using the
// weighted-average cost method, and values them with prices.
//
// Trades are processed by ascending time; trades sharing a time keep their
// order in the input. Closed positions (quantity zero) are not returned.
// Positions come in order of first trade on their code.
//
// Aggregate does not validate trades, that is the ledger's job. It neither
// modifies its inputs nor keeps references to them.
func Aggregate(trades []Trade, prices Prices) []Position {
	holdings := make(map[string]*holding)
	names := make(map[string]string)
	var codes []string

	for _, t := range chronological(trades) {
		h, ok := holdings[t.Code]
		if !ok {
			h = &holding{}
			holdings[t.Code] = h
			codes = append(codes, t.Code)
		}
		if t.Name != "" {
			names[t.Code] = t.Name
		}
		switch t.Kind {
		case Buy:
			h.buy(t)
		case Sell:
			h.sell(t)
		}
	}

	positions := make([]Position, 0, len(codes))
	for _, code := range codes {
		h := holdings[code]
		if h.quantity <= 0 {
			continue
		}
		qty := decimal.NewFromInt(h.quantity)
		p := Position{
			Code:        code,
			Name:        names[code],
			Quantity:    h.quantity,
			Cost:        h.cost,
			AverageCost: h.cost.Div(qty),
			Price:       prices.Lookup(code),
		}
		if p.Price.Valid {
			value := p.Price.Decimal.Mul(qty)
			pl := value.Sub(p.Cost)
			p.MarketValue = decimal.NewNullDecimal(value)
			p.ProfitLoss = decimal.NewNullDecimal(pl)
			p.ProfitLossPercent = percent(pl, p.Cost)
		}
		positions = append(positions, p)
	}
	return positions
}
