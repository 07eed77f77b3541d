package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/stockfolio"
	"github.com/google/subcommands"
)

type rmCmd struct{}

func (*rmCmd) Name() string     { return "rm" }
func (*rmCmd) Synopsis() string { return "remove trades" }
func (*rmCmd) Usage() string {
	return `folio rm <id>...

  Removes the trades with those ids, or id prefixes. Nothing is removed when
  one of them is unknown or ambiguous.
`
}

func (*rmCmd) SetFlags(*flag.FlagSet) {}

func (*rmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: no trade id given")
		return subcommands.ExitUsageError
	}
	var n int
	err := updateLedger(ctx, func(l *stockfolio.Ledger) error {
		ids := make([]string, 0, f.NArg())
		for _, prefix := range f.Args() {
			id, err := resolveID(l, prefix)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		n = l.DeleteAll(ids...)
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Removed %d trade(s)\n", n)
	return subcommands.ExitSuccess
}
