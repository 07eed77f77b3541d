package stockfolio

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/etnz/stockfolio/date"
	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// ErrInvalidTrade is wrapped by every validation failure at the ledger-write boundary.
var ErrInvalidTrade = errors.New("invalid trade")

// Kind tells whether a trade buys or sells units.
type Kind string

const (
	Buy  Kind = "buy"
	Sell Kind = "sell"
)

// ParseKind reads a trade kind, case insensitive.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case Buy:
		return Buy, nil
	case Sell:
		return Sell, nil
	default:
		return "", fmt.Errorf("unknown trade kind %q, want %q or %q", s, Buy, Sell)
	}
}

// Tags is a set of free-form labels. It is kept sorted and without
// duplicates so that two equal sets have the same representation.
type Tags []string

// NewTags builds a normalized tag set. Blank labels are dropped.
func NewTags(labels ...string) Tags {
	tags := make(Tags, 0, len(labels))
	for _, l := range labels {
		if l = strings.TrimSpace(l); l != "" {
			tags = append(tags, l)
		}
	}
	slices.Sort(tags)
	return slices.Compact(tags)
}

// Has reports whether label is in the set.
func (t Tags) Has(label string) bool {
	_, found := slices.BinarySearch(t, label)
	return found
}

func (t *Tags) UnmarshalJSON(data []byte) error {
	var labels []string
	if err := json.Unmarshal(data, &labels); err != nil {
		return err
	}
	*t = NewTags(labels...)
	return nil
}

// Trade is a single buy or sell execution. Trades are values: editing one
// means replacing it in the ledger with a new value carrying the same ID.
type Trade struct {
	ID         string          // ID is opaque and stable for the trade's lifetime.
	Kind       Kind            // Kind is Buy or Sell.
	Time       time.Time       // Time of execution, midnight UTC for date-only entries.
	Code       string          // Code identifies the instrument, it is the aggregation key.
	Name       string          // Name is the instrument's display name.
	Price      decimal.Decimal // Price per unit.
	Quantity   int64           // Quantity of units transacted.
	Commission decimal.Decimal // Commission is added to buy cost and deducted from sell proceeds.
	Tags       Tags
	Memo       string
}

// NewBuy returns a buy trade without id, commission or tags.
func NewBuy(on time.Time, code, name string, quantity int64, price decimal.Decimal) Trade {
	return Trade{Kind: Buy, Time: on, Code: code, Name: name, Quantity: quantity, Price: price}
}

// NewSell returns a sell trade without id, commission or tags.
func NewSell(on time.Time, code, name string, quantity int64, price decimal.Decimal) Trade {
	return Trade{Kind: Sell, Time: on, Code: code, Name: name, Quantity: quantity, Price: price}
}

// WithCommission returns a copy of t with the commission set.
func (t Trade) WithCommission(c decimal.Decimal) Trade {
	t.Commission = c
	return t
}

// WithTags returns a copy of t with the given tags.
func (t Trade) WithTags(labels ...string) Trade {
	t.Tags = NewTags(labels...)
	return t
}

// WithMemo returns a copy of t with the memo set.
func (t Trade) WithMemo(memo string) Trade {
	t.Memo = memo
	return t
}

// WithID returns a copy of t with the id set.
func (t Trade) WithID(id string) Trade {
	t.ID = id
	return t
}

// Date returns the calendar day of the trade.
func (t Trade) Date() date.Date { return date.Of(t.Time) }

// Amount returns the gross amount price × quantity, without commission.
func (t Trade) Amount() decimal.Decimal {
	return t.Price.Mul(decimal.NewFromInt(t.Quantity))
}

// Validate checks the trade's shape. It reports every violation at once and
// never fixes anything.
func (t Trade) Validate() error {
	var problems []string
	if strings.TrimSpace(t.Code) == "" {
		problems = append(problems, "instrument code is missing")
	}
	if t.Kind != Buy && t.Kind != Sell {
		problems = append(problems, fmt.Sprintf("kind must be %q or %q, got %q", Buy, Sell, t.Kind))
	}
	if !t.Price.IsPositive() {
		problems = append(problems, fmt.Sprintf("price must be positive, got %s", t.Price))
	}
	if t.Quantity <= 0 {
		problems = append(problems, fmt.Sprintf("quantity must be positive, got %d", t.Quantity))
	}
	if t.Commission.IsNegative() {
		problems = append(problems, fmt.Sprintf("commission must not be negative, got %s", t.Commission))
	}
	if t.Time.IsZero() {
		problems = append(problems, "time is missing")
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w %s: %s", ErrInvalidTrade, t.label(), strings.Join(problems, "; "))
}

// label identifies the trade in error messages.
func (t Trade) label() string {
	switch {
	case t.ID != "":
		return fmt.Sprintf("%q", t.ID)
	case t.Code != "":
		return fmt.Sprintf("%s %s on %s", t.Kind, t.Code, formatTime(t.Time))
	default:
		return fmt.Sprintf("%s on %s", t.Kind, formatTime(t.Time))
	}
}

// Equal reports whether two trades are identical, comparing decimals by value.
func (t Trade) Equal(o Trade) bool {
	return t.ID == o.ID && t.Kind == o.Kind && t.Time.Equal(o.Time) &&
		t.Code == o.Code && t.Name == o.Name &&
		t.Price.Equal(o.Price) && t.Quantity == o.Quantity &&
		t.Commission.Equal(o.Commission) && slices.Equal(t.Tags, o.Tags) && t.Memo == o.Memo
}

// formatTime writes date-only timestamps as YYYY-MM-DD and others as RFC3339.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	if h, m, s := t.Clock(); h == 0 && m == 0 && s == 0 && t.Nanosecond() == 0 {
		return date.Of(t).String()
	}
	return t.Format(time.RFC3339)
}

// MarshalJSON writes the trade with a stable key order.
func (t Trade) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Optional("id", t.ID)
	w.Append("kind", t.Kind)
	w.Append("time", formatTime(t.Time))
	w.Append("code", t.Code)
	w.Optional("name", t.Name)
	w.Append("price", t.Price)
	w.Append("quantity", t.Quantity)
	if !t.Commission.IsZero() {
		w.Append("commission", t.Commission)
	}
	w.Optional("tags", []string(t.Tags))
	w.Optional("memo", t.Memo)
	return w.MarshalJSON()
}

// UnmarshalJSON reads a trade. A missing or null commission is zero, and
// "date" is accepted in place of "time".
func (t *Trade) UnmarshalJSON(data []byte) error {
	var temp struct {
		ID         string          `json:"id"`
		Kind       Kind            `json:"kind"`
		Time       string          `json:"time"`
		Date       string          `json:"date"`
		Code       string          `json:"code"`
		Name       string          `json:"name"`
		Price      decimal.Decimal `json:"price"`
		Quantity   int64           `json:"quantity"`
		Commission decimal.Decimal `json:"commission"`
		Tags       Tags            `json:"tags"`
		Memo       string          `json:"memo"`
	}
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	stamp := temp.Time
	if stamp == "" {
		stamp = temp.Date
	}
	var on time.Time
	if stamp != "" {
		var err error
		if on, err = date.ParseTime(stamp); err != nil {
			return fmt.Errorf("invalid trade time: %w", err)
		}
	}
	*t = Trade{
		ID:         temp.ID,
		Kind:       Kind(strings.ToLower(string(temp.Kind))),
		Time:       on,
		Code:       temp.Code,
		Name:       temp.Name,
		Price:      temp.Price,
		Quantity:   temp.Quantity,
		Commission: temp.Commission,
		Tags:       temp.Tags,
		Memo:       temp.Memo,
	}
	return nil
}
