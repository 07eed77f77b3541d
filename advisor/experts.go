package advisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/etnz/stockfolio"
	"github.com/etnz/stockfolio/date"
	"github.com/etnz/stockfolio/docs"
	"github.com/etnz/stockfolio/renderer"
	"google.golang.org/genai"
)

// DefaultModel is the model used by experts unless told otherwise.
const DefaultModel = "gemini-2.5-flash"

// Portfolio gives access to the current state of the user's portfolio.
type Portfolio interface {
	Ledger(ctx context.Context) (*stockfolio.Ledger, error)
	Prices(ctx context.Context) (stockfolio.Prices, error)
	Currency() string
}

func instruction(text string) *genai.Content {
	return &genai.Content{Parts: []*genai.Part{{Text: text}}}
}

// NewFacilitator creates the expert in charge of the conversation with the
// user. It asks the other experts.
func NewFacilitator(experts ...*Expert) *Expert {
	return &Expert{
		Name:      "Facilitator",
		ModelName: DefaultModel,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(experts)},
			},
			SystemInstruction: instruction(`
			As a facilitator you are in charge of the conversation and of solving the user's request.

			Learn about the experts' skills from the Tools and ask them questions.
			They are at your service and keep the context of your previous questions.

			The user comes to get insight about the stocks in their portfolio: positions, costs,
			profits, and news about the companies. They assume you know their stock codes,
			ask the Accountant first to find out what they are.

			Devise a plan of questions for the experts and come up with the best answer.
			Answer in markdown.
		`),
		},
		Library: NewLibrary(experts),
	}
}

// NewAnalyst creates an expert grounded with Google Search.
func NewAnalyst() *Expert {
	return &Expert{
		Name: "Analyst",
		Description: `This is a market analyst, aware of listed companies, their stocks and the latest
		news about them. Ask the Analyst whenever you need recent or grounding information.`,
		ModelName: DefaultModel,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
			SystemInstruction: instruction(`
			You are a stock market analyst. You search and find about anything related to
			listed companies, markets and exchanges. You leverage Google Search to ground your
			assertions. You know the latest news and how they relate to the user's request.
			Stock codes might be exchange local codes, like 600519 for Kweichow Moutai.
		`),
		},
	}
}

// NewAccountant creates the expert reading the user's portfolio.
func NewAccountant(p Portfolio) *Expert {
	a := &accountant{p: p}
	lib := []*Func{a.positions(), a.totals(), a.analysis(), a.trades()}
	return &Expert{
		Name: "Accountant",
		Description: `This is the Accountant. They read the user's ledger of trades and compute the
		positions, costs, market values, profits and their history.`,
		ModelName: DefaultModel,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(lib)},
			},
			SystemInstruction: instruction(`
			You are an accountant in charge of the user's ledger of stock trades.
			You know how to use the Tools to extract relevant information about the user's portfolio.
			You are part of a team of experts, yours is everything about the user's portfolio. They might ask
			you questions in approximate language, figure out what they meant.

			Costs include commissions. A "-" stands for an unknown value, usually because the
			current price of the stock is not known.
		`),
		},
		Library: NewLibrary(lib),
	}
}

type accountant struct {
	p Portfolio
}

var codeSchema = &genai.Schema{
	Type:        genai.TypeString,
	Description: "Restrict to the stock with this code. All stocks when empty.",
}

func datesDescription() string {
	topic, err := docs.GetTopic("dates")
	if err != nil {
		return ""
	}
	return topic
}

func markdownResponse(description string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: description}
}

// load returns the selected trades and the current prices.
func (a *accountant) load(ctx context.Context, args map[string]any) ([]stockfolio.Trade, stockfolio.Prices, error) {
	ledger, err := a.p.Ledger(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("could not load ledger: %w", err)
	}
	prices, err := a.p.Prices(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("could not load prices: %w", err)
	}
	var filters []stockfolio.Filter
	if code := stringArg(args, "code"); code != "" {
		filters = append(filters, stockfolio.ByCode(code))
	}
	r, err := rangeArg(args)
	if err != nil {
		return nil, nil, err
	}
	if !r.IsZero() {
		filters = append(filters, stockfolio.InRange(r))
	}
	return ledger.Trades(filters...), prices, nil
}

func (a *accountant) positions() *Func {
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name:        "Positions",
			Description: "Positions lists the stocks currently held, with their quantity, average cost, market value and profit or loss.",
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: map[string]*genai.Schema{"code": codeSchema},
			},
			Response: markdownResponse("A markdown report of the positions followed by the portfolio totals."),
		},
		Func: func(ctx context.Context, args map[string]any) (string, error) {
			trades, prices, err := a.load(ctx, args)
			if err != nil {
				return "", err
			}
			return renderer.RenderHolding(renderer.NewHolding(date.Today(), a.p.Currency(), trades, prices)), nil
		},
	}
}

func (a *accountant) totals() *Func {
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name:        "Totals",
			Description: "Totals sums up the whole portfolio: total cost, market value and profit or loss.",
			Response:    markdownResponse("The portfolio totals in markdown."),
		},
		Func: func(ctx context.Context, args map[string]any) (string, error) {
			trades, prices, err := a.load(ctx, args)
			if err != nil {
				return "", err
			}
			totals := stockfolio.Total(stockfolio.Aggregate(trades, prices))
			return renderer.RenderTotals(a.p.Currency(), totals), nil
		},
	}
}

func (a *accountant) analysis() *Func {
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name: "Analysis",
			Description: `Analysis replays the trades in time order. For each trade it reports the cost of the
			trade, the profit realized by sells and the cumulative cost of the stocks still held.`,
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"code": codeSchema,
					"from": {Type: genai.TypeString, Description: "Only trades on or after this date.\n\n" + datesDescription()},
					"to":   {Type: genai.TypeString, Description: "Only trades on or before this date, same format as from."},
					"collapse": {
						Type:        genai.TypeBoolean,
						Description: "Merge the trades of the same day into a single line.",
					},
				},
			},
			Response: markdownResponse("A markdown table of the replayed trades followed by the realized profit."),
		},
		Func: func(ctx context.Context, args map[string]any) (string, error) {
			trades, _, err := a.load(ctx, args)
			if err != nil {
				return "", err
			}
			collapse, _ := args["collapse"].(bool)
			return renderer.RenderAnalysis(renderer.NewAnalysis(stringArg(args, "code"), a.p.Currency(), trades, collapse)), nil
		},
	}
}

func (a *accountant) trades() *Func {
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name:        "Trades",
			Description: "Trades lists the buy and sell trades recorded in the ledger.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"code": codeSchema,
					"from": {Type: genai.TypeString, Description: "Only trades on or after this date, YYYY-MM-DD."},
					"to":   {Type: genai.TypeString, Description: "Only trades on or before this date, YYYY-MM-DD."},
				},
			},
			Response: markdownResponse("A markdown table of the trades."),
		},
		Func: func(ctx context.Context, args map[string]any) (string, error) {
			trades, _, err := a.load(ctx, args)
			if err != nil {
				return "", err
			}
			return renderer.RenderTrades(a.p.Currency(), trades), nil
		},
	}
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return strings.TrimSpace(s)
}

// rangeArg reads the optional "from" and "to" arguments.
func rangeArg(args map[string]any) (date.Range, error) {
	return date.ParseRange(stringArg(args, "from") + ".." + stringArg(args, "to"))
}
