package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/stockfolio"
	"github.com/google/subcommands"
)

type fmtCmd struct{}

func (*fmtCmd) Name() string { return "fmt" }
func (*fmtCmd) Synopsis() string {
	return "validates and formats the ledger into a canonical form"
}
func (*fmtCmd) Usage() string {
	return `folio fmt

  Validates the ledger and writes it back in its canonical form: one trade per
  line with a stable key order, generated ids for trades without one, sorted
  tags. The order of trades is kept.
`
}

func (*fmtCmd) SetFlags(*flag.FlagSet) {}

func (*fmtCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var n int
	err := updateLedger(ctx, func(l *stockfolio.Ledger) error {
		n = l.Len()
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(os.Stderr, "Formatted %d trade(s) in %s\n", n, cfg.Ledger)
	return subcommands.ExitSuccess
}
