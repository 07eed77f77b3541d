package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/etnz/stockfolio"
	"github.com/etnz/stockfolio/date"
	"github.com/etnz/stockfolio/quote"
	"github.com/etnz/stockfolio/renderer"
	"github.com/google/subcommands"
)

type watchCmd struct {
	schedule string
}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "refresh the holding with live quotes" }
func (*watchCmd) Usage() string {
	return `folio watch [-s <schedule>]

  Polls live quotes on a schedule and prints the holding every time they
  arrive, until interrupted.
`
}

func (c *watchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.schedule, "s", "", "Cron schedule or '@every <duration>'. Defaults to $FOLIO_POLL.")
}

func (c *watchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	schedule := c.schedule
	if schedule == "" {
		schedule = cfg.Poll
	}
	ledger, err := DecodeLedger(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	manual, err := DecodePrices(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading prices: %v\n", err)
		return subcommands.ExitFailure
	}
	trades := ledger.Trades()

	var mu sync.Mutex
	live := make(map[string]quote.Quote)
	poller := quote.NewPoller(newSource(), ledger.Codes, func(quotes map[string]quote.Quote) {
		mu.Lock()
		defer mu.Unlock()
		for code, q := range quotes {
			live[code] = q
		}
		printWatch(trades, quote.ToPrices(live).Merge(manual))
	})
	if err := poller.Start(ctx, schedule); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid schedule %q: %v\n", schedule, err)
		return subcommands.ExitUsageError
	}
	<-ctx.Done()
	poller.Stop()
	return subcommands.ExitSuccess
}

func printWatch(trades []stockfolio.Trade, prices stockfolio.Prices) {
	fmt.Print("\033[H\033[2J")
	printMarkdown(renderer.RenderHolding(renderer.NewHolding(date.Today(), cfg.Currency, trades, prices)))
	fmt.Printf("\nUpdated at %s\n", time.Now().Format(time.TimeOnly))
}
