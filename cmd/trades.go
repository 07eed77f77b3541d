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

// rangeFlags select a range of dates: an explicit from..to range, a period,
// or a start date, ending on the -d date.
type rangeFlags struct {
	span   string
	period string
	start  string
	date   string
}

func (r *rangeFlags) SetFlags(f *flag.FlagSet) {
	f.StringVar(&r.span, "r", "", "Range of dates 'from..to', either side may be empty. Overrides -p, -s and -d.")
	f.StringVar(&r.period, "p", "", "Predefined period containing the -d date (day, week, month, quarter, year).")
	f.StringVar(&r.start, "s", "", "The start date for a custom range. Overrides -p.")
	f.StringVar(&r.date, "d", "", "The end date for the range.")
}

// Range returns the selected range, unbounded when no flag is set.
func (r *rangeFlags) Range() (date.Range, error) {
	if r.span != "" {
		return date.ParseRange(r.span)
	}
	if r.start == "" && r.date == "" && r.period == "" {
		return date.Range{}, nil
	}
	end := date.Today()
	if r.date != "" {
		var err error
		if end, err = date.Parse(r.date); err != nil {
			return date.Range{}, err
		}
	}
	if r.start != "" {
		return date.ParseRange(r.start + ".." + end.String())
	}
	if r.period != "" {
		p, err := date.ParsePeriod(r.period)
		if err != nil {
			return date.Range{}, err
		}
		return date.NewRange(end, p), nil
	}
	return date.Range{To: end}, nil
}

type tradesCmd struct {
	rangeFlags
	code string
	tag  string
	head int
	tail int
}

func (*tradesCmd) Name() string     { return "trades" }
func (*tradesCmd) Synopsis() string { return "list the trades in the ledger" }
func (*tradesCmd) Usage() string {
	return `folio trades [-r <from..to> | -p <period> | -s <start_date>] [-d <end_date>] [-c <code>] [-tag <tag>] [-head <n>] [-tail <n>]

  Lists trades from the ledger, in the ledger's order, with options for
  filtering and limiting the output.
`
}

func (c *tradesCmd) SetFlags(f *flag.FlagSet) {
	c.rangeFlags.SetFlags(f)
	f.StringVar(&c.code, "c", "", "Only trades on this stock code")
	f.StringVar(&c.tag, "tag", "", "Only trades with this tag")
	f.IntVar(&c.head, "head", 0, "Show only the first N trades.")
	f.IntVar(&c.tail, "tail", 0, "Show only the last N trades.")
}

func (c *tradesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.head > 0 && c.tail > 0 {
		fmt.Fprintln(os.Stderr, "Error: -head and -tail flags cannot be used together.")
		return subcommands.ExitUsageError
	}
	r, err := c.Range()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	ledger, err := DecodeLedger(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading ledger: %v\n", err)
		return subcommands.ExitFailure
	}

	filters := []stockfolio.Filter{stockfolio.InRange(r)}
	if c.code != "" {
		filters = append(filters, stockfolio.ByCode(c.code))
	}
	if c.tag != "" {
		filters = append(filters, stockfolio.ByTag(c.tag))
	}
	trades := ledger.Trades(filters...)
	switch {
	case c.head > 0 && len(trades) > c.head:
		trades = trades[:c.head]
	case c.tail > 0 && len(trades) > c.tail:
		trades = trades[len(trades)-c.tail:]
	}

	printMarkdown(renderer.RenderTrades(cfg.Currency, trades))
	return subcommands.ExitSuccess
}
