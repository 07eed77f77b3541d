// Package cmd implements the folio subcommands.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/stockfolio"
	"github.com/etnz/stockfolio/config"
	"github.com/etnz/stockfolio/logger"
	"github.com/etnz/stockfolio/quote"
	"github.com/etnz/stockfolio/store"
	"github.com/google/subcommands"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&tradeCmd{kind: stockfolio.Buy}, "trades")
	c.Register(&tradeCmd{kind: stockfolio.Sell}, "trades")
	c.Register(&editCmd{}, "trades")
	c.Register(&rmCmd{}, "trades")
	c.Register(&fmtCmd{}, "trades")

	c.Register(&tradesCmd{}, "reports")
	c.Register(&holdingCmd{}, "reports")
	c.Register(&analysisCmd{}, "reports")
	c.Register(&chartCmd{}, "reports")

	c.Register(&quoteCmd{}, "prices")
	c.Register(&priceCmd{}, "prices")
	c.Register(&watchCmd{}, "prices")

	c.Register(&assistCmd{}, "")
	c.Register(&serveCmd{}, "")
	c.Register(&topicCmd{}, "")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var ledgerFile = flag.String("ledger", "", "Path to the ledger: a .jsonl file or a .db/.sqlite database. Defaults to $FOLIO_LEDGER or trades.jsonl")
var currencyFlag = flag.String("currency", "", "Currency of all prices. Defaults to $FOLIO_CURRENCY or CNY")
var verbose = flag.Bool("v", false, "Log debug messages")

var cfg *config.Config

// Setup loads the configuration, applies the global flags, and sets up
// logging. It is called once flags are parsed.
func Setup() error {
	c, err := config.Load()
	if err != nil {
		return err
	}
	if *ledgerFile != "" {
		c.Ledger = *ledgerFile
	}
	if *currencyFlag != "" {
		c.Currency = strings.ToUpper(*currencyFlag)
	}
	if *verbose {
		c.LogLevel = "debug"
	}
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c
	logger.SetGlobalLogger(logger.New(logger.Config{Level: c.LogLevel, Pretty: true}))
	return nil
}

// openStore opens the configured ledger.
func openStore() (store.Store, error) {
	return store.Open(cfg.Ledger)
}

// DecodeLedger loads the configured ledger. A missing file is an empty ledger.
func DecodeLedger(ctx context.Context) (*stockfolio.Ledger, error) {
	st, err := openStore()
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.LoadLedger(ctx)
}

// updateLedger loads the ledger, applies change, and saves it.
func updateLedger(ctx context.Context, change func(*stockfolio.Ledger) error) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	ledger, err := st.LoadLedger(ctx)
	if err != nil {
		return fmt.Errorf("could not load ledger %q: %w", cfg.Ledger, err)
	}
	if err := change(ledger); err != nil {
		return err
	}
	if err := st.SaveLedger(ctx, ledger); err != nil {
		return fmt.Errorf("could not save ledger %q: %w", cfg.Ledger, err)
	}
	return nil
}

// DecodePrices loads the manual prices.
func DecodePrices(ctx context.Context) (stockfolio.Prices, error) {
	st, err := openStore()
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.LoadPrices(ctx)
}

// newSource creates the configured quote source.
func newSource(opts ...quote.Option) quote.Source {
	opts = append([]quote.Option{quote.WithRate(cfg.QuoteRate)}, opts...)
	var src quote.Source
	switch cfg.QuoteSource {
	case config.SourceJSON:
		src = quote.NewJSON(cfg.QuoteURL, cfg.QuotePricePath, cfg.QuoteNamePath, opts...)
	default:
		src = quote.NewDelimited(cfg.QuoteURL, opts...)
	}
	return quote.Cached(src, cfg.QuoteTTL)
}

// livePrices returns the manual prices over the live quotes of codes. A
// failure to get quotes is only a warning, prices are then unknown.
func livePrices(ctx context.Context, manual stockfolio.Prices, codes []string) stockfolio.Prices {
	if len(codes) == 0 {
		return manual
	}
	quotes, err := newSource().Quotes(ctx, codes...)
	if err != nil {
		log.Warn().Err(err).Msg("could not get all quotes")
	}
	return quote.ToPrices(quotes).Merge(manual)
}

// resolveID returns the id of the only trade whose id starts with prefix.
func resolveID(l *stockfolio.Ledger, prefix string) (string, error) {
	if _, ok := l.Trade(prefix); ok {
		return prefix, nil
	}
	var found []string
	for t := range l.All() {
		if strings.HasPrefix(t.ID, prefix) {
			found = append(found, t.ID)
		}
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("%w: no id starts with %q", stockfolio.ErrNotFound, prefix)
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("ambiguous id %q matches %d trades", prefix, len(found))
	}
}

// printMarkdown renders markdown for the terminal. Output that is not a
// terminal gets the markdown as is.
func printMarkdown(md string) {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Print(md)
		return
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err != nil {
		fmt.Print(md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}
