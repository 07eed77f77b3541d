// Package renderer turns portfolio figures into markdown documents.
//
// Documents are produced from the embedded text/templates in templates/.
// Amounts are formatted in the ledger's currency, and unknown values are
// rendered as "-".
package renderer

import (
	"embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/etnz/stockfolio"
	"github.com/etnz/stockfolio/date"
	"github.com/etnz/stockfolio/quote"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.md
var templates embed.FS

const unknown = "-"

// Holding is the current state of the portfolio.
type Holding struct {
	Date      date.Date
	Currency  string
	Positions []stockfolio.Position
	Totals    stockfolio.Totals
}

// NewHolding aggregates trades and prices into a Holding.
func NewHolding(on date.Date, currency string, trades []stockfolio.Trade, prices stockfolio.Prices) *Holding {
	positions := stockfolio.Aggregate(trades, prices)
	return &Holding{Date: on, Currency: currency, Positions: positions, Totals: stockfolio.Total(positions)}
}

// Analysis is the historical replay of some trades.
type Analysis struct {
	Title    string
	Currency string
	Points   []stockfolio.AnalysisPoint
	Realized decimal.Decimal
}

// NewAnalysis projects trades, collapsing points of the same date when
// collapse is set.
func NewAnalysis(title, currency string, trades []stockfolio.Trade, collapse bool) *Analysis {
	points := stockfolio.Project(trades)
	if collapse {
		points = stockfolio.CollapseByDate(points)
	}
	return &Analysis{Title: title, Currency: currency, Points: points, Realized: stockfolio.RealizedTotal(points)}
}

// RenderHolding renders positions and totals.
func RenderHolding(h *Holding) string {
	return renderTemplate("holding.md", h.Currency, h)
}

// RenderTotals renders the totals only.
func RenderTotals(currency string, t stockfolio.Totals) string {
	return renderTemplate("totals.md", currency, t)
}

// RenderTrades renders trades as a table.
func RenderTrades(currency string, trades []stockfolio.Trade) string {
	return renderTemplate("trades.md", currency, struct{ Trades []stockfolio.Trade }{trades})
}

// RenderAnalysis renders the analysis points as a table.
func RenderAnalysis(a *Analysis) string {
	return renderTemplate("analysis.md", a.Currency, a)
}

// RenderQuotes renders live quotes.
func RenderQuotes(currency string, quotes []quote.Quote) string {
	return renderTemplate("quotes.md", currency, struct{ Quotes []quote.Quote }{quotes})
}

// renderTemplate executes one of the embedded templates. Errors are rendered
// in place of the document.
func renderTemplate(name, currency string, data any) string {
	tmpl, err := template.New(name).Funcs(funcs(currency)).ParseFS(templates, "templates/*.md")
	if err != nil {
		return fmt.Sprintf("error parsing templates: %v", err)
	}
	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, name, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", name, err)
	}
	return b.String()
}

func funcs(currency string) template.FuncMap {
	return template.FuncMap{
		"money": func(v decimal.Decimal) string { return FormatMoney(v, currency) },
		"optMoney": func(v decimal.NullDecimal) string {
			if !v.Valid {
				return unknown
			}
			return FormatMoney(v.Decimal, currency)
		},
		"signed":    func(v decimal.NullDecimal) string { return signed(v, currency) },
		"signedDec": func(v decimal.Decimal) string { return signed(decimal.NewNullDecimal(v), currency) },
		"percent":   FormatPercent,
		"change": func(q quote.Quote) decimal.NullDecimal {
			c, _ := q.Change()
			return c
		},
		"changePercent": func(q quote.Quote) decimal.NullDecimal {
			_, p := q.Change()
			return p
		},
		"cell":  cell,
		"short": short,
		"join":  func(tags stockfolio.Tags) string { return cell(strings.Join(tags, ", ")) },
		"stamp": func(t time.Time) string {
			if t.IsZero() {
				return unknown
			}
			return t.Format("2006-01-02 15:04:05")
		},
	}
}

// FormatMoney formats v in currency, rounded to the currency's minor unit.
// Currencies unknown to go-money are written as a plain number followed by
// the code.
func FormatMoney(v decimal.Decimal, currency string) string {
	if money.GetCurrency(currency) == nil {
		s := v.StringFixed(2)
		if currency == "" {
			return s
		}
		return s + " " + currency
	}
	// to get a never nil currency the Money constructor is required
	cur := money.New(0, currency).Currency()
	fraction := int32(cur.Fraction)
	return cur.Formatter().Format(v.Round(fraction).Shift(fraction).IntPart())
}

// FormatPercent formats a percentage with two decimals and its sign.
func FormatPercent(v decimal.NullDecimal) string {
	if !v.Valid {
		return unknown
	}
	s := v.Decimal.StringFixed(2) + "%"
	if v.Decimal.IsPositive() {
		s = "+" + s
	}
	return s
}

// signed formats a profit or a loss with its sign. A known zero is written as
// money, only unknown values are "-".
func signed(v decimal.NullDecimal, currency string) string {
	if !v.Valid {
		return unknown
	}
	s := FormatMoney(v.Decimal, currency)
	if v.Decimal.IsPositive() {
		s = "+" + s
	}
	return s
}

// cell escapes a value for a markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// short abbreviates long generated ids, users only need a prefix.
func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
