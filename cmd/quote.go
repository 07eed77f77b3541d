package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/stockfolio/quote"
	"github.com/etnz/stockfolio/renderer"
	"github.com/google/subcommands"
)

type quoteCmd struct{}

func (*quoteCmd) Name() string     { return "quote" }
func (*quoteCmd) Synopsis() string { return "show live quotes" }
func (*quoteCmd) Usage() string {
	return `folio quote [<code>...]

  Fetches the live quotes of the given stock codes, of every stock in the
  ledger by default. See 'folio topic quotes' to configure the provider.
`
}

func (*quoteCmd) SetFlags(*flag.FlagSet) {}

func (*quoteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	codes := f.Args()
	if len(codes) == 0 {
		ledger, err := DecodeLedger(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading ledger: %v\n", err)
			return subcommands.ExitFailure
		}
		codes = ledger.Codes()
	}
	if len(codes) == 0 {
		fmt.Fprintln(os.Stderr, "Nothing to quote.")
		return subcommands.ExitSuccess
	}

	quotes, err := newSource().Quotes(ctx, codes...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching quotes: %v\n", err)
		if len(quotes) == 0 {
			return subcommands.ExitFailure
		}
	}

	list := make([]quote.Quote, 0, len(quotes))
	for _, code := range codes {
		if q, ok := quotes[code]; ok {
			list = append(list, q)
		}
	}
	printMarkdown(renderer.RenderQuotes(cfg.Currency, list))
	return subcommands.ExitSuccess
}
