package quote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
)

// JSON reads quotes from a JSON endpoint, one request per code. The price
// and the optional name are located in the response with jsonpath
// expressions.
type JSON struct {
	URL       string // template, {code} is replaced by the escaped code
	PricePath string // e.g. "$.quote.last"
	NamePath  string // optional
	f         fetcher
}

// NewJSON returns a JSON source.
func NewJSON(urlTemplate, pricePath, namePath string, opts ...Option) *JSON {
	return &JSON{URL: urlTemplate, PricePath: pricePath, NamePath: namePath, f: newFetcher("json", opts)}
}

// Quotes fetches codes one by one. Failures are joined in the error, the
// quotes fetched successfully are still returned.
func (j *JSON) Quotes(ctx context.Context, codes ...string) (map[string]Quote, error) {
	quotes := make(map[string]Quote, len(codes))
	var errs []error
	for _, code := range codes {
		q, err := j.quote(ctx, code)
		if err != nil {
			if ctx.Err() != nil {
				return quotes, ctx.Err()
			}
			errs = append(errs, fmt.Errorf("error retrieving %q: %w", code, err))
			continue
		}
		if q.Price.IsPositive() {
			quotes[code] = q
		}
	}
	return quotes, errors.Join(errs...)
}

func (j *JSON) quote(ctx context.Context, code string) (Quote, error) {
	addr := strings.ReplaceAll(j.URL, "{code}", url.PathEscape(code))
	body, err := j.f.get(ctx, addr)
	if err != nil {
		return Quote{}, err
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber() // keep prices exact
	var jobj any
	if err := dec.Decode(&jobj); err != nil {
		return Quote{}, err
	}

	q := Quote{Code: code}
	jval, err := lookup(j.PricePath, jobj)
	if err != nil {
		return Quote{}, err
	}
	if q.Price, err = toDecimal(jval); err != nil {
		return Quote{}, fmt.Errorf("%q: %w", j.PricePath, err)
	}
	if j.NamePath != "" {
		if jval, err := lookup(j.NamePath, jobj); err == nil {
			q.Name, _ = jval.(string)
		}
	}
	return q, nil
}

// lookup evaluates a jsonpath expression.
func lookup(path string, jobj any) (any, error) {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return nil, fmt.Errorf("error parsing %q: %w", path, err)
	}
	// jsonpath returns either a single answer or a list of one.
	if jlist, ok := jval.([]any); ok {
		if len(jlist) == 0 {
			return nil, fmt.Errorf("no value at %q", path)
		}
		jval = jlist[0]
	}
	return jval, nil
}

// toDecimal reads a price. Some providers send numbers as strings, possibly
// with a decimal comma.
func toDecimal(jval any) (decimal.Decimal, error) {
	switch v := jval.(type) {
	case json.Number:
		return decimal.NewFromString(v.String())
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(v), " ", "")
		s = strings.ReplaceAll(s, ",", ".")
		return decimal.NewFromString(s)
	case nil:
		return decimal.Zero, errors.New("no value")
	default:
		return decimal.Zero, fmt.Errorf("not a number: %v", jval)
	}
}
