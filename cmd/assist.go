package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/stockfolio"
	"github.com/etnz/stockfolio/advisor"
	"github.com/google/subcommands"
	"google.golang.org/genai"
)

// assistCmd is the subcommand for the AI assistant.
type assistCmd struct{}

func (*assistCmd) Name() string { return "assist" }
func (*assistCmd) Synopsis() string {
	return "start an interactive session with the AI assistant"
}
func (*assistCmd) Usage() string {
	return `folio assist [<question>...]

  Starts an interactive session with the AI assistant. Each argument is asked
  first, then questions are read from the terminal until 'bye'.
  See 'folio topic advisor'.
`
}

func (*assistCmd) SetFlags(*flag.FlagSet) {}

func (c *assistCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if cfg.APIKey == "" {
		fmt.Fprintln(os.Stderr, "Error: set GEMINI_API_KEY or GOOGLE_API_KEY to use the assistant")
		return subcommands.ExitFailure
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error initializing Gemini's client:", err)
		return subcommands.ExitFailure
	}

	a := advisor.New(os.Stdout, os.Stdin, advisor.NewAccountant(storePortfolio{}), advisor.NewAnalyst())
	a.SetModel(cfg.Model)
	a.Print = printAnswer

	if err := a.Run(ctx, client, f.Args()...); err != nil {
		fmt.Fprintln(os.Stderr, "Agent failed:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func printAnswer(w io.Writer, md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err == nil {
		if out, err := r.Render(md); err == nil {
			fmt.Fprint(w, out)
			return
		}
	}
	fmt.Fprintln(w, md)
}

// storePortfolio reads the configured ledger every time, so that the
// assistant sees trades recorded during the session.
type storePortfolio struct{}

func (storePortfolio) Ledger(ctx context.Context) (*stockfolio.Ledger, error) {
	return DecodeLedger(ctx)
}

// Prices returns the manual prices over the live quotes.
func (storePortfolio) Prices(ctx context.Context) (stockfolio.Prices, error) {
	ledger, err := DecodeLedger(ctx)
	if err != nil {
		return nil, err
	}
	manual, err := DecodePrices(ctx)
	if err != nil {
		return nil, err
	}
	return livePrices(ctx, manual, ledger.Codes()), nil
}

func (storePortfolio) Currency() string { return cfg.Currency }
