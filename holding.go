package stockfolio

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// holding is the running weighted-average accumulator of one instrument.
type holding struct {
	quantity int64
	cost     decimal.Decimal // cost basis of the units still held
}

// buy adds the trade's units at price × quantity + commission.
func (h *holding) buy(t Trade) {
	h.cost = h.cost.Add(t.Amount()).Add(t.Commission)
	h.quantity += t.Quantity
}

// sell removes up to t.Quantity units at the current average cost and returns
// the cost basis removed. Selling more than held is capped at the held
// quantity; selling from an empty holding changes nothing.
func (h *holding) sell(t Trade) (costOfSold decimal.Decimal) {
	if h.quantity <= 0 {
		return decimal.Zero
	}
	sold := min(t.Quantity, h.quantity)
	if sold == h.quantity {
		costOfSold = h.cost // exact, no division residue left behind
	} else {
		costOfSold = h.cost.Mul(decimal.NewFromInt(sold)).Div(decimal.NewFromInt(h.quantity))
	}
	h.cost = h.cost.Sub(costOfSold)
	h.quantity -= sold
	return costOfSold
}

// percent returns num/den in percent, unknown when den is zero.
func percent(num, den decimal.Decimal) decimal.NullDecimal {
	if den.IsZero() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(num.Mul(hundred).Div(den))
}
