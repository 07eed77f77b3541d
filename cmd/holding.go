package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/stockfolio"
	"github.com/etnz/stockfolio/date"
	"github.com/etnz/stockfolio/renderer"
	"github.com/google/subcommands"
)

// holdingCmd holds the flags for the 'holding' subcommand.
type holdingCmd struct {
	date   string
	code   string
	update bool
}

func (*holdingCmd) Name() string     { return "holding" }
func (*holdingCmd) Synopsis() string { return "display the positions held on a specific date" }
func (*holdingCmd) Usage() string {
	return `folio holding [-d <date>] [-c <code>] [-u]

  Displays the positions held at the end of a given date, their average cost,
  market value and profit, followed by the portfolio totals.
  Market values use the manual prices, and the live quotes with -u.
`
}

func (c *holdingCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", date.Today().String(), "Date for the holdings report. See 'folio topic dates' for supported date formats.")
	f.StringVar(&c.code, "c", "", "Only this stock code")
	f.BoolVar(&c.update, "u", false, "update with latest quotes before calculating the report")
}

func (c *holdingCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := date.Parse(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}

	ledger, err := DecodeLedger(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	prices, err := DecodePrices(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading prices: %v\n", err)
		return subcommands.ExitFailure
	}

	filters := []stockfolio.Filter{stockfolio.InRange(date.Range{To: on})}
	if c.code != "" {
		filters = append(filters, stockfolio.ByCode(c.code))
	}
	trades := ledger.Trades(filters...)

	if c.update {
		prices = livePrices(ctx, prices, codesOf(trades))
	}

	printMarkdown(renderer.RenderHolding(renderer.NewHolding(on, cfg.Currency, trades, prices)))
	return subcommands.ExitSuccess
}

// codesOf returns the distinct codes of trades, in order of appearance.
func codesOf(trades []stockfolio.Trade) []string {
	var codes []string
	seen := make(map[string]bool)
	for _, t := range trades {
		if !seen[t.Code] {
			seen[t.Code] = true
			codes = append(codes, t.Code)
		}
	}
	return codes
}
