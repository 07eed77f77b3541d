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

type analysisCmd struct {
	rangeFlags
	code     string
	collapse bool
}

func (*analysisCmd) Name() string     { return "analysis" }
func (*analysisCmd) Synopsis() string { return "replay trades: cost, realized profit and cumulative cost" }
func (*analysisCmd) Usage() string {
	return `folio analysis [-r <from..to> | -p <period> | -s <start_date>] [-d <end_date>] [-c <code>] [-collapse]

  Replays the trades in time order. For each trade it shows the gross amount,
  the profit realized by sells, and the cost of everything still held.
`
}

func (c *analysisCmd) SetFlags(f *flag.FlagSet) {
	c.rangeFlags.SetFlags(f)
	f.StringVar(&c.code, "c", "", "Only trades on this stock code")
	f.BoolVar(&c.collapse, "collapse", false, "Merge the trades of the same day")
}

// selection returns the trades selected by the flags, and the title
// describing them.
func (c *analysisCmd) selection(ctx context.Context) ([]stockfolio.Trade, string, error) {
	r, err := c.Range()
	if err != nil {
		return nil, "", err
	}
	ledger, err := DecodeLedger(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("could not load ledger: %w", err)
	}
	filters := []stockfolio.Filter{stockfolio.InRange(r)}
	if c.code != "" {
		filters = append(filters, stockfolio.ByCode(c.code))
	}
	return ledger.Trades(filters...), title(c.code, r), nil
}

// title names a selection: "600519", "2025-01", "600519 in 2025-Q1".
func title(code string, r date.Range) string {
	switch {
	case r.IsZero():
		return code
	case code == "":
		return r.String()
	default:
		return code + " in " + r.String()
	}
}

func (c *analysisCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	trades, name, err := c.selection(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderAnalysis(renderer.NewAnalysis(name, cfg.Currency, trades, c.collapse)))
	return subcommands.ExitSuccess
}

type chartCmd struct {
	analysisCmd
	width int
}

func (*chartCmd) Name() string     { return "chart" }
func (*chartCmd) Synopsis() string { return "chart the cumulative cost and the realized profit" }
func (*chartCmd) Usage() string {
	return `folio chart [-r <from..to> | -p <period> | -s <start_date>] [-d <end_date>] [-c <code>] [-w <width>]

  Draws the history of the cost of the stocks held, and of the realized
  profit, one bar per day.
`
}

func (c *chartCmd) SetFlags(f *flag.FlagSet) {
	c.rangeFlags.SetFlags(f)
	f.StringVar(&c.code, "c", "", "Only trades on this stock code")
	f.IntVar(&c.width, "w", 40, "Width of the longest bar")
}

func (c *chartCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	trades, name, err := c.selection(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	points := stockfolio.CollapseByDate(stockfolio.Project(trades))
	heading := "# History"
	if name != "" {
		heading += " of " + name
	}
	printMarkdown(heading + "\n\n" + renderer.Chart(points, cfg.Currency, c.width))
	return subcommands.ExitSuccess
}
