package stockfolio

import (
	"github.com/etnz/stockfolio/date"
	"github.com/shopspring/decimal"
)

// AnalysisPoint is one step of the historical replay of a set of trades.
type AnalysisPoint struct {
	Date           date.Date       `json:"date"`
	CostOfTrade    decimal.Decimal `json:"costOfTrade"`    // gross amount price × quantity
	RealizedProfit decimal.Decimal `json:"realizedProfit"` // zero for buys
	CumulativeCost decimal.Decimal `json:"cumulativeCost"` // running cost basis of everything still held
}

// Project replays trades by ascending time and returns one point per trade,
// in processed order.
//
// Each instrument keeps its own weighted-average accumulator, while the
// cumulative cost is shared by all of them. A sell realizes
// price × quantity − commission − cost of the sold units, where the sold units
// are capped at the held quantity. A sell on an empty holding realizes nothing
// and removes no cost.
func Project(trades []Trade) []AnalysisPoint {
	holdings := make(map[string]*holding)
	cumulative := decimal.Zero
	points := make([]AnalysisPoint, 0, len(trades))

	for _, t := range chronological(trades) {
		h, ok := holdings[t.Code]
		if !ok {
			h = &holding{}
			holdings[t.Code] = h
		}
		realized := decimal.Zero
		switch t.Kind {
		case Buy:
			h.buy(t)
			cumulative = cumulative.Add(t.Amount()).Add(t.Commission)
		case Sell:
			if h.quantity > 0 {
				costOfSold := h.sell(t)
				realized = t.Amount().Sub(t.Commission).Sub(costOfSold)
				cumulative = cumulative.Sub(costOfSold)
			}
		}
		points = append(points, AnalysisPoint{
			Date:           t.Date(),
			CostOfTrade:    t.Amount(),
			RealizedProfit: realized,
			CumulativeCost: cumulative,
		})
	}
	return points
}

// CollapseByDate merges consecutive points of the same date: trade costs and
// realized profits add up, and the last cumulative cost wins.
//
// Points from Project are sorted by date, so every date ends up in a single
// point.
func CollapseByDate(points []AnalysisPoint) []AnalysisPoint {
	collapsed := make([]AnalysisPoint, 0, len(points))
	for _, p := range points {
		if n := len(collapsed); n > 0 && collapsed[n-1].Date == p.Date {
			last := &collapsed[n-1]
			last.CostOfTrade = last.CostOfTrade.Add(p.CostOfTrade)
			last.RealizedProfit = last.RealizedProfit.Add(p.RealizedProfit)
			last.CumulativeCost = p.CumulativeCost
			continue
		}
		collapsed = append(collapsed, p)
	}
	return collapsed
}

// RealizedTotal sums the realized profit of points.
func RealizedTotal(points []AnalysisPoint) decimal.Decimal {
	total := decimal.Zero
	for _, p := range points {
		total = total.Add(p.RealizedProfit)
	}
	return total
}
