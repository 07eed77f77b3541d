package renderer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/etnz/stockfolio"
	"github.com/shopspring/decimal"
)

// eighths are the partial blocks, from 1/8 to 7/8 of a cell.
var eighths = []string{"", "▏", "▎", "▍", "▌", "▋", "▊", "▉"}

// bar returns a horizontal bar of |v|/max × width cells.
func bar(v, max decimal.Decimal, width int) string {
	if !max.IsPositive() || v.IsZero() {
		return ""
	}
	n := v.Abs().Mul(decimal.NewFromInt(int64(width * 8))).Div(max).Round(0).IntPart()
	full, rest := int(n/8), int(n%8)
	return strings.Repeat("█", full) + eighths[rest]
}

// shadedBar is a bar of light cells, rounded to whole cells since the shade
// has no partial blocks. A non-zero value gets at least one cell.
func shadedBar(v, max decimal.Decimal, width int) string {
	if !max.IsPositive() || v.IsZero() {
		return ""
	}
	n := v.Abs().Mul(decimal.NewFromInt(int64(width))).Div(max).Round(0).IntPart()
	return strings.Repeat("░", int(max64(n, 1)))
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// Chart renders the analysis points as text bar charts: cumulative cost for
// every date, and realized profit for the dates that have some. Points are
// expected to be collapsed by date. Bars are at most width cells long.
func Chart(points []stockfolio.AnalysisPoint, currency string, width int) string {
	if len(points) == 0 {
		return "No trade to chart.\n"
	}
	if width <= 0 {
		width = 40
	}

	var b strings.Builder
	maxCost, maxRealized := decimal.Zero, decimal.Zero
	for _, p := range points {
		maxCost = decimal.Max(maxCost, p.CumulativeCost.Abs())
		maxRealized = decimal.Max(maxRealized, p.RealizedProfit.Abs())
	}

	fmt.Fprintf(&b, "## Cumulative cost\n\n```text\n")
	for _, p := range points {
		line := bar(p.CumulativeCost, maxCost, width)
		fmt.Fprintf(&b, "%s │%s %s\n", p.Date, pad(line, width), FormatMoney(p.CumulativeCost, currency))
	}
	fmt.Fprintf(&b, "```\n")

	if maxRealized.IsZero() {
		return b.String()
	}
	// Losses are drawn with a lighter shade.
	fmt.Fprintf(&b, "\n## Realized profit\n\n```text\n")
	for _, p := range points {
		if p.RealizedProfit.IsZero() {
			continue
		}
		line := bar(p.RealizedProfit, maxRealized, width)
		if p.RealizedProfit.IsNegative() {
			line = shadedBar(p.RealizedProfit, maxRealized, width)
		}
		fmt.Fprintf(&b, "%s │%s %s\n", p.Date, pad(line, width), signed(decimal.NewNullDecimal(p.RealizedProfit), currency))
	}
	fmt.Fprintf(&b, "```\n")
	return b.String()
}

// pad right-pads s with spaces to width runes.
func pad(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
