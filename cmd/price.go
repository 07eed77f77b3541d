package cmd

import (
	"context"
	"flag"
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/etnz/stockfolio"
	"github.com/etnz/stockfolio/renderer"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

type priceCmd struct {
	remove bool
}

func (*priceCmd) Name() string     { return "price" }
func (*priceCmd) Synopsis() string { return "set, remove or list manual prices" }
func (*priceCmd) Usage() string {
	return `folio price [<code> <price> | -rm <code>...]

  Sets the manual price of a stock. Manual prices win over live quotes.
  Without arguments, lists the manual prices.
`
}

func (c *priceCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.remove, "rm", false, "Remove the manual prices of the given codes")
}

func (c *priceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	st, err := openStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer st.Close()

	prices, err := st.LoadPrices(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading prices: %v\n", err)
		return subcommands.ExitFailure
	}

	switch {
	case c.remove:
		for _, code := range f.Args() {
			if _, ok := prices[code]; !ok {
				fmt.Fprintf(os.Stderr, "Error: no manual price for %q\n", code)
				return subcommands.ExitFailure
			}
			delete(prices, code)
		}
	case f.NArg() == 2:
		price, err := decimal.NewFromString(f.Arg(1))
		if err != nil || !price.IsPositive() {
			fmt.Fprintf(os.Stderr, "Error: invalid price %q, it must be a positive number\n", f.Arg(1))
			return subcommands.ExitUsageError
		}
		prices[f.Arg(0)] = price
	case f.NArg() == 0:
		printMarkdown(pricesMarkdown(prices))
		return subcommands.ExitSuccess
	default:
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}

	if err := st.SavePrices(ctx, prices); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving prices: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("%d manual price(s)\n", len(prices))
	return subcommands.ExitSuccess
}

func pricesMarkdown(prices stockfolio.Prices) string {
	if len(prices) == 0 {
		return "No manual price.\n"
	}
	md := "# Manual prices\n\n| Code | Price |\n|:---|---:|\n"
	for _, code := range slices.Sorted(maps.Keys(prices)) {
		md += fmt.Sprintf("| %s | %s |\n", code, renderer.FormatMoney(prices[code], cfg.Currency))
	}
	return md
}
