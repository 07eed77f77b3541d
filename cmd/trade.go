package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/etnz/stockfolio"
	"github.com/etnz/stockfolio/date"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

// tradeFlags are the fields of a trade on the command line.
type tradeFlags struct {
	date       string
	code       string
	name       string
	quantity   int64
	price      string
	commission string
	tags       string
	memo       string
}

func (t *tradeFlags) SetFlags(f *flag.FlagSet) {
	f.StringVar(&t.date, "d", "today", "Date or RFC3339 time of the trade. See 'folio topic dates'.")
	f.StringVar(&t.code, "c", "", "Stock code")
	f.StringVar(&t.name, "n", "", "Stock name")
	f.Int64Var(&t.quantity, "q", 0, "Quantity of shares")
	f.StringVar(&t.price, "p", "", "Price per share")
	f.StringVar(&t.commission, "fee", "0", "Commission paid")
	f.StringVar(&t.tags, "tags", "", "Comma separated tags")
	f.StringVar(&t.memo, "memo", "", "Free-form note")
}

// apply sets the fields of t whose flag is in set, all of them when set is nil.
func (t *tradeFlags) apply(tr *stockfolio.Trade, set map[string]bool) error {
	has := func(name string) bool { return set == nil || set[name] }
	if has("d") {
		on, err := date.ParseTime(t.date)
		if err != nil {
			return err
		}
		tr.Time = on
	}
	if has("c") {
		tr.Code = strings.TrimSpace(t.code)
	}
	if has("n") {
		tr.Name = strings.TrimSpace(t.name)
	}
	if has("q") {
		tr.Quantity = t.quantity
	}
	if has("p") {
		p, err := decimal.NewFromString(t.price)
		if err != nil {
			return fmt.Errorf("invalid price %q: %w", t.price, err)
		}
		tr.Price = p
	}
	if has("fee") {
		c, err := decimal.NewFromString(t.commission)
		if err != nil {
			return fmt.Errorf("invalid commission %q: %w", t.commission, err)
		}
		tr.Commission = c
	}
	if has("tags") {
		tr.Tags = stockfolio.NewTags(strings.Split(t.tags, ",")...)
	}
	if has("memo") {
		tr.Memo = t.memo
	}
	return nil
}

// tradeCmd records a buy or a sell.
type tradeCmd struct {
	tradeFlags
	kind stockfolio.Kind
	id   string
}

func (c *tradeCmd) Name() string { return string(c.kind) }
func (c *tradeCmd) Synopsis() string {
	return fmt.Sprintf("record a %s trade", c.kind)
}
func (c *tradeCmd) Usage() string {
	return fmt.Sprintf(`folio %s -c <code> -q <quantity> -p <price> [-d <date>] [-n <name>] [-fee <commission>] [-tags <tags>] [-memo <memo>] [-id <id>]

  Appends a %s trade to the ledger. The trade is validated first, nothing is
  written when it is invalid.
`, c.kind, c.kind)
}

func (c *tradeCmd) SetFlags(f *flag.FlagSet) {
	c.tradeFlags.SetFlags(f)
	f.StringVar(&c.id, "id", "", "Trade id, generated when empty")
}

func (c *tradeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	t := stockfolio.Trade{Kind: c.kind, ID: c.id}
	if err := c.apply(&t, nil); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	err := updateLedger(ctx, func(l *stockfolio.Ledger) error {
		if err := l.Add(t); err != nil {
			return err
		}
		trades := l.Trades()
		t = trades[len(trades)-1]
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Recorded %s of %d %s at %s on %s (id %s)\n", t.Kind, t.Quantity, t.Code, t.Price, t.Time.Format(time.DateOnly), t.ID)
	return subcommands.ExitSuccess
}
