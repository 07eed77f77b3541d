package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/stockfolio"
	"github.com/google/subcommands"
)

type editCmd struct {
	tradeFlags
	kind string
}

func (*editCmd) Name() string     { return "edit" }
func (*editCmd) Synopsis() string { return "edit a trade" }
func (*editCmd) Usage() string {
	return `folio edit [-d <date>] [-c <code>] [-n <name>] [-q <quantity>] [-p <price>] [-fee <commission>] [-tags <tags>] [-memo <memo>] [-kind buy|sell] <id>

  Replaces the fields given on the command line in the trade with that id, or
  id prefix. The other fields are kept.
`
}

func (c *editCmd) SetFlags(f *flag.FlagSet) {
	c.tradeFlags.SetFlags(f)
	f.StringVar(&c.kind, "kind", "", "Trade kind, buy or sell")
}

func (c *editCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: edit takes exactly one trade id")
		return subcommands.ExitUsageError
	}
	set := make(map[string]bool)
	f.Visit(func(fl *flag.Flag) { set[fl.Name] = true })

	var edited stockfolio.Trade
	err := updateLedger(ctx, func(l *stockfolio.Ledger) error {
		id, err := resolveID(l, f.Arg(0))
		if err != nil {
			return err
		}
		edited, _ = l.Trade(id)
		if err := c.apply(&edited, set); err != nil {
			return err
		}
		if set["kind"] {
			if edited.Kind, err = stockfolio.ParseKind(c.kind); err != nil {
				return err
			}
		}
		return l.Replace(edited)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Updated trade %s\n", edited.ID)
	return subcommands.ExitSuccess
}
