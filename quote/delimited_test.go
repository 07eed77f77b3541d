package quote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"
)

// fullLine returns a quote line with all 33 fields.
func fullLine(code, name, open, prev, price, high, low string) string {
	fields := []string{name, open, prev, price, high, low}
	for len(fields) < 30 {
		fields = append(fields, "0")
	}
	fields = append(fields, "2025-01-06", "15:00:00", "00")
	return `var hq_str_` + code + `="` + strings.Join(fields, ",") + `";`
}

func TestParseDelimited(t *testing.T) {
	input := strings.Join([]string{
		fullLine("sh600519", "贵州茅台", "1500.00", "1499.00", "1520.50", "1530.00", "1490.00"),
		`var hq_str_sz000001="平安银行,11.00,10.90,0.000,0.000,0.000";`, // suspended
		`var hq_str_sh999999="";`, // unknown code
		`var hq_str_sz000002="万科A,0,0,0,0,0";`, // no price at all
		``,
	}, "\n")

	quotes, err := ParseDelimited(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, quotes, 2)

	q := quotes["sh600519"]
	assert.Equal(t, "贵州茅台", q.Name)
	assert.True(t, q.Price.Equal(decimal.RequireFromString("1520.5")))
	assert.True(t, q.PrevClose.Equal(decimal.RequireFromString("1499")))
	assert.True(t, q.High.Equal(decimal.RequireFromString("1530")))
	assert.Equal(t, time.Date(2025, 1, 6, 7, 0, 0, 0, time.UTC), q.Time.UTC())

	suspended := quotes["sz000001"]
	assert.True(t, suspended.Price.Equal(decimal.RequireFromString("10.9")), "suspended price = %v", suspended.Price)
	assert.True(t, suspended.Time.IsZero())

	_, found := quotes["sh999999"]
	assert.False(t, found)
}

func TestParseDelimited_Errors(t *testing.T) {
	for name, input := range map[string]string{
		"too few fields": `var hq_str_sh600519="name,1,2";`,
		"bad number":     `var hq_str_sh600519="name,1,2,three,4,5";`,
		"no assignment":  `var hq_str_sh600519`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDelimited(strings.NewReader(input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "line 1")
		})
	}
}

func TestQuote_Change(t *testing.T) {
	q := Quote{Price: decimal.RequireFromString("110"), PrevClose: decimal.RequireFromString("100")}
	change, pct := q.Change()
	require.True(t, change.Valid)
	assert.True(t, change.Decimal.Equal(decimal.RequireFromString("10")))
	assert.True(t, pct.Decimal.Equal(decimal.RequireFromString("10")))

	change, pct = Quote{Price: decimal.RequireFromString("110")}.Change()
	assert.False(t, change.Valid)
	assert.False(t, pct.Valid)
}

func TestDelimited_Quotes(t *testing.T) {
	gbk, err := simplifiedchinese.GBK.NewEncoder().String(fullLine("sh600519", "贵州茅台", "1500", "1499", "1520.5", "1530", "1490") + "\n")
	require.NoError(t, err)

	var gotPath, gotReferer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.String()
		gotReferer = r.Header.Get("Referer")
		w.Header().Set("Content-Type", "application/javascript; charset=GB18030")
		w.Write([]byte(gbk))
	}))
	defer srv.Close()

	m := NewMetrics()
	src := NewDelimited(srv.URL+"/list=", WithMetrics(m), WithRate(100))
	quotes, err := src.Quotes(context.Background(), "sh600519", "sz000001")
	require.NoError(t, err)

	assert.Equal(t, "/list=sh600519,sz000001", gotPath)
	assert.Equal(t, DefaultReferer, gotReferer)
	require.Contains(t, quotes, "sh600519")
	assert.Equal(t, "贵州茅台", quotes["sh600519"].Name)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("delimited", "ok")))

	prices := ToPrices(quotes)
	assert.True(t, prices.Lookup("sh600519").Valid)
	assert.False(t, prices.Lookup("sz000001").Valid)
}

func TestDelimited_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	m := NewMetrics()
	_, err := NewDelimited(srv.URL+"/list=", WithMetrics(m)).Quotes(context.Background(), "sh600519")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("delimited", "error")))
}
