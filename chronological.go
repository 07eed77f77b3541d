package stockfolio

import (
	"slices"
)

// chronological returns a copy of trades sorted by time. The sort is stable:
// trades with the same time keep their relative order, which matters for the
// weighted-average cost of interleaved buys and sells.
func chronological(trades []Trade) []Trade {
	sorted := slices.Clone(trades)
	slices.SortStableFunc(sorted, func(a, b Trade) int {
		return a.Time.Compare(b.Time)
	})
	return sorted
}
