package quote

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// Delimited reads quotes from an endpoint answering one line per code in a
// fixed comma-delimited format, GBK encoded:
//
//	var hq_str_sh600519="贵州茅台,1500.00,1499.00,1520.50,1530.00,1490.00,...,2025-01-06,15:00:00,00";
//
// The fields are name, open, previous close, price, high and low, and the
// trade date and time at positions 30 and 31. An empty string means the
// provider has no data for that code.
type Delimited struct {
	URL string // codes are appended, comma separated
	f   fetcher
}

// DefaultReferer is sent by Delimited unless WithReferer says otherwise.
const DefaultReferer = "https://finance.sina.com.cn"

// NewDelimited returns a Delimited source on url.
func NewDelimited(url string, opts ...Option) *Delimited {
	opts = append([]Option{WithReferer(DefaultReferer)}, opts...)
	return &Delimited{URL: url, f: newFetcher("delimited", opts)}
}

// Quotes fetches all codes in a single request.
func (d *Delimited) Quotes(ctx context.Context, codes ...string) (map[string]Quote, error) {
	if len(codes) == 0 {
		return map[string]Quote{}, nil
	}
	body, err := d.f.get(ctx, d.URL+strings.Join(codes, ","))
	if err != nil {
		return nil, fmt.Errorf("could not fetch quotes: %w", err)
	}
	return ParseDelimited(transform.NewReader(bytes.NewReader(body), simplifiedchinese.GBK.NewDecoder()))
}

const (
	linePrefix = "var hq_str_"
	minFields  = 6 // name to low
)

// exchangeZone is the time zone of the date and time fields.
var exchangeZone = time.FixedZone("CST", 8*60*60)

// ParseDelimited parses an already decoded response. Lines that are not quote
// assignments are ignored.
func ParseDelimited(r io.Reader) (map[string]Quote, error) {
	quotes := make(map[string]Quote)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1024*1024)
	n := 0
	for scanner.Scan() {
		n++
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, linePrefix) {
			continue
		}
		code, payload, ok := strings.Cut(strings.TrimPrefix(line, linePrefix), "=")
		if !ok {
			return nil, fmt.Errorf("line %d: missing '=' in %q", n, line)
		}
		payload = strings.TrimSuffix(strings.TrimSpace(payload), ";")
		payload = strings.Trim(payload, `"`)
		if payload == "" {
			continue
		}
		q, err := parseFields(code, strings.Split(payload, ","))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		if q.Price.IsPositive() {
			quotes[code] = q
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return quotes, nil
}

func parseFields(code string, fields []string) (Quote, error) {
	if len(fields) < minFields {
		return Quote{}, fmt.Errorf("quote of %q has %d fields, want at least %d", code, len(fields), minFields)
	}
	q := Quote{Code: code, Name: strings.TrimSpace(fields[0])}
	for i, dst := range []*decimal.Decimal{&q.Open, &q.PrevClose, &q.Price, &q.High, &q.Low} {
		s := strings.TrimSpace(fields[i+1])
		if s == "" {
			continue
		}
		v, err := decimal.NewFromString(s)
		if err != nil {
			return Quote{}, fmt.Errorf("quote of %q: field %d: %w", code, i+1, err)
		}
		*dst = v
	}
	// A suspended instrument trades at zero, its last known price is the
	// previous close.
	if q.Price.IsZero() && q.PrevClose.IsPositive() {
		q.Price = q.PrevClose
	}
	if len(fields) > 31 {
		stamp := strings.TrimSpace(fields[30]) + " " + strings.TrimSpace(fields[31])
		if t, err := time.ParseInLocation("2006-01-02 15:04:05", stamp, exchangeZone); err == nil {
			q.Time = t
		}
	}
	return q, nil
}
