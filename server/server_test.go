package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/etnz/stockfolio"
	"github.com/etnz/stockfolio/quote"
	"github.com/etnz/stockfolio/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	buyMoutai  = `{"id":"t1","kind":"buy","date":"2025-01-05","code":"600519","name":"Moutai","price":10,"quantity":100,"commission":5}`
	sellMoutai = `{"id":"t2","kind":"sell","date":"2025-01-06","code":"600519","price":12,"quantity":50,"commission":2}`
	buyPingAn  = `{"id":"t3","kind":"buy","date":"2025-01-06","code":"000001","name":"Ping An","price":20,"quantity":10}`
)

type fakeSource struct {
	quotes map[string]quote.Quote
	err    error
}

func (f *fakeSource) Quotes(_ context.Context, codes ...string) (map[string]quote.Quote, error) {
	result := make(map[string]quote.Quote)
	for _, c := range codes {
		if q, ok := f.quotes[c]; ok {
			result[c] = q
		}
	}
	return result, f.err
}

type testServer struct {
	*httptest.Server
	path string
}

func newTestServer(t *testing.T, cfg Config) *testServer {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trades.jsonl")
	cfg.Store = store.NewFileStore(path)
	cfg.Log = zerolog.Nop()
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	s, err := New(context.Background(), cfg)
	require.NoError(t, err)
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return &testServer{Server: ts, path: path}
}

func (ts *testServer) do(t *testing.T, method, path, body string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func (ts *testServer) mustDo(t *testing.T, method, path, body string, want int) string {
	t.Helper()
	status, resp := ts.do(t, method, path, body)
	require.Equal(t, want, status, "%s %s: %s", method, path, resp)
	return resp
}

func (ts *testServer) positions(t *testing.T) []stockfolio.Position {
	t.Helper()
	var positions []stockfolio.Position
	require.NoError(t, json.Unmarshal([]byte(ts.mustDo(t, "GET", "/api/positions", "", http.StatusOK)), &positions))
	return positions
}

func TestTrades(t *testing.T) {
	ts := newTestServer(t, Config{})

	assert.JSONEq(t, `[]`, ts.mustDo(t, "GET", "/api/trades", "", http.StatusOK))

	created := ts.mustDo(t, "POST", "/api/trades", buyMoutai, http.StatusCreated)
	assert.JSONEq(t, `{"id":"t1","kind":"buy","time":"2025-01-05","code":"600519","name":"Moutai","price":10,"quantity":100,"commission":5}`, created)
	ts.mustDo(t, "POST", "/api/trades", sellMoutai, http.StatusCreated)

	positions := ts.positions(t)
	require.Len(t, positions, 1)
	assert.Equal(t, int64(50), positions[0].Quantity)
	assert.True(t, decimal.RequireFromString("502.5").Equal(positions[0].Cost))
	assert.False(t, positions[0].MarketValue.Valid)

	// the ledger was saved
	l, err := store.NewFileStore(ts.path).LoadLedger(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, l.Len())
}

func TestTrades_Invalid(t *testing.T) {
	ts := newTestServer(t, Config{})
	ts.mustDo(t, "POST", "/api/trades", buyMoutai, http.StatusCreated)

	resp := ts.mustDo(t, "POST", "/api/trades", `{"kind":"buy","date":"2025-01-05","code":"600519","price":10,"quantity":0}`, http.StatusBadRequest)
	assert.Contains(t, resp, "quantity must be positive")
	ts.mustDo(t, "POST", "/api/trades", buyMoutai, http.StatusBadRequest) // duplicate id
	ts.mustDo(t, "POST", "/api/trades", `{"kind":`, http.StatusBadRequest)

	ts.mustDo(t, "PUT", "/api/trades/t1", `{"kind":"buy","date":"2025-01-05","code":"600519","price":-1,"quantity":10}`, http.StatusBadRequest)
	ts.mustDo(t, "PUT", "/api/trades/missing", buyMoutai, http.StatusNotFound)
	ts.mustDo(t, "DELETE", "/api/trades/missing", "", http.StatusNotFound)

	l, err := store.NewFileStore(ts.path).LoadLedger(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, l.Len())
	got, _ := l.Trade("t1")
	assert.Equal(t, int64(100), got.Quantity)
}

func TestTrades_ReplaceAndDelete(t *testing.T) {
	ts := newTestServer(t, Config{})
	ts.mustDo(t, "POST", "/api/trades", buyMoutai, http.StatusCreated)
	ts.mustDo(t, "POST", "/api/trades", sellMoutai, http.StatusCreated)
	ts.mustDo(t, "POST", "/api/trades", buyPingAn, http.StatusCreated)

	replaced := ts.mustDo(t, "PUT", "/api/trades/t2", `{"kind":"sell","date":"2025-01-06","code":"600519","price":12,"quantity":100}`, http.StatusOK)
	assert.Contains(t, replaced, `"id":"t2"`)
	positions := ts.positions(t)
	require.Len(t, positions, 1)
	assert.Equal(t, "000001", positions[0].Code)

	ts.mustDo(t, "DELETE", "/api/trades/t3", "", http.StatusNoContent)
	assert.JSONEq(t, `{"deleted":1}`, ts.mustDo(t, "POST", "/api/trades/delete", `{"ids":["t1","t3","other"]}`, http.StatusOK))

	trades := ts.mustDo(t, "GET", "/api/trades", "", http.StatusOK)
	assert.Contains(t, trades, `"id":"t2"`)
	assert.NotContains(t, trades, `"id":"t1"`)
}

func TestTrades_Filters(t *testing.T) {
	ts := newTestServer(t, Config{})
	for _, tr := range []string{buyMoutai, sellMoutai, buyPingAn} {
		ts.mustDo(t, "POST", "/api/trades", tr, http.StatusCreated)
	}

	var trades []stockfolio.Trade
	require.NoError(t, json.Unmarshal([]byte(ts.mustDo(t, "GET", "/api/trades?code=600519&from=2025-01-06", "", http.StatusOK)), &trades))
	require.Len(t, trades, 1)
	assert.Equal(t, "t2", trades[0].ID)

	require.NoError(t, json.Unmarshal([]byte(ts.mustDo(t, "GET", "/api/trades?range=2025-01-06", "", http.StatusOK)), &trades))
	require.Len(t, trades, 2)
	assert.Equal(t, "t2", trades[0].ID)
	assert.Equal(t, "t3", trades[1].ID)

	require.NoError(t, json.Unmarshal([]byte(ts.mustDo(t, "GET", "/api/trades?range=..2025-01-05", "", http.StatusOK)), &trades))
	require.Len(t, trades, 1)
	assert.Equal(t, "t1", trades[0].ID)

	ts.mustDo(t, "GET", "/api/trades?from=someday", "", http.StatusBadRequest)
	ts.mustDo(t, "GET", "/api/trades?range=2025-01-06..someday", "", http.StatusBadRequest)
	ts.mustDo(t, "GET", "/api/trades?from=2025-01-06&to=2025-01-05", "", http.StatusBadRequest)
}

func TestPricesAndTotals(t *testing.T) {
	ts := newTestServer(t, Config{})
	ts.mustDo(t, "POST", "/api/trades", buyMoutai, http.StatusCreated)
	ts.mustDo(t, "POST", "/api/trades", buyPingAn, http.StatusCreated)

	assert.JSONEq(t, `{"cost":1205,"marketValue":null,"profitLoss":null,"profitLossPercent":null}`,
		ts.mustDo(t, "GET", "/api/totals", "", http.StatusOK))

	ts.mustDo(t, "PUT", "/api/prices/600519", `{"price":0}`, http.StatusBadRequest)
	ts.mustDo(t, "PUT", "/api/prices/600519", `{"price":11}`, http.StatusNoContent)

	var totals stockfolio.Totals
	require.NoError(t, json.Unmarshal([]byte(ts.mustDo(t, "GET", "/api/totals", "", http.StatusOK)), &totals))
	assert.True(t, decimal.NewFromInt(1205).Equal(totals.Cost))
	assert.True(t, decimal.NewFromInt(1100).Equal(totals.MarketValue.Decimal))
	assert.True(t, decimal.NewFromInt(95).Equal(totals.ProfitLoss.Decimal))

	assert.JSONEq(t, `{"600519":11}`, ts.mustDo(t, "GET", "/api/prices", "", http.StatusOK))
	prices, err := store.NewFileStore(ts.path).LoadPrices(context.Background())
	require.NoError(t, err)
	assert.Len(t, prices, 1)

	ts.mustDo(t, "DELETE", "/api/prices/600519", "", http.StatusNoContent)
	ts.mustDo(t, "DELETE", "/api/prices/600519", "", http.StatusNotFound)
}

func TestAnalysis(t *testing.T) {
	ts := newTestServer(t, Config{})
	for _, tr := range []string{buyMoutai, sellMoutai, buyPingAn} {
		ts.mustDo(t, "POST", "/api/trades", tr, http.StatusCreated)
	}

	assert.JSONEq(t, `{"points":[
		{"date":"2025-01-05","costOfTrade":1000,"realizedProfit":0,"cumulativeCost":1005},
		{"date":"2025-01-06","costOfTrade":800,"realizedProfit":95.5,"cumulativeCost":702.5}
	],"realized":95.5}`, ts.mustDo(t, "GET", "/api/analysis?collapse=true", "", http.StatusOK))

	assert.JSONEq(t, `{"points":[
		{"date":"2025-01-06","costOfTrade":200,"realizedProfit":0,"cumulativeCost":200}
	],"realized":0}`, ts.mustDo(t, "GET", "/api/analysis?ids=t3", "", http.StatusOK))

	ts.mustDo(t, "GET", "/api/analysis?collapse=maybe", "", http.StatusBadRequest)
}

func TestQuotes(t *testing.T) {
	src := &fakeSource{quotes: map[string]quote.Quote{
		"600519": {Code: "600519", Name: "Moutai", Price: decimal.NewFromInt(12)},
		"000001": {Code: "000001", Name: "Ping An", Price: decimal.NewFromInt(21)},
	}}
	ts := newTestServer(t, Config{Source: src})
	ts.mustDo(t, "POST", "/api/trades", buyMoutai, http.StatusCreated)
	ts.mustDo(t, "POST", "/api/trades", buyPingAn, http.StatusCreated)
	ts.mustDo(t, "PUT", "/api/prices/000001", `{"price":19}`, http.StatusNoContent)

	var quotes map[string]quote.Quote
	require.NoError(t, json.Unmarshal([]byte(ts.mustDo(t, "GET", "/api/quotes", "", http.StatusOK)), &quotes))
	assert.True(t, decimal.NewFromInt(12).Equal(quotes["600519"].Price))
	assert.True(t, decimal.NewFromInt(19).Equal(quotes["000001"].Price), "manual prices win")

	// live quotes are now used by positions
	positions := ts.positions(t)
	require.Len(t, positions, 2)
	assert.True(t, decimal.NewFromInt(1200).Equal(positions[0].MarketValue.Decimal))
	assert.True(t, decimal.NewFromInt(190).Equal(positions[1].MarketValue.Decimal))

	src.quotes, src.err = nil, io.ErrUnexpectedEOF
	ts.mustDo(t, "GET", "/api/quotes?codes=600519", "", http.StatusBadGateway)
}

func TestReport(t *testing.T) {
	ts := newTestServer(t, Config{})
	ts.mustDo(t, "POST", "/api/trades", buyMoutai, http.StatusCreated)

	html := ts.mustDo(t, "GET", "/report", "", http.StatusOK)
	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, ">Moutai</td>")
	assert.Contains(t, html, "$1,005.00")
}

func TestMetrics(t *testing.T) {
	ts := newTestServer(t, Config{Registry: prometheus.NewRegistry()})
	ts.mustDo(t, "GET", "/health", "", http.StatusOK)

	metrics := ts.mustDo(t, "GET", "/metrics", "", http.StatusOK)
	assert.Contains(t, metrics, `folio_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestProxy(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, r.URL.RequestURI()+" "+r.Header.Get("Referer"))
	}))
	defer upstream.Close()

	ts := newTestServer(t, Config{Upstream: upstream.URL + "/list=", Referer: "https://example.com"})
	assert.Equal(t, "/list=sh600519 https://example.com", ts.mustDo(t, "GET", "/proxy/list=sh600519", "", http.StatusOK))
}

func TestNew_InvalidUpstream(t *testing.T) {
	_, err := New(context.Background(), Config{
		Store:    store.NewFileStore(filepath.Join(t.TempDir(), "trades.jsonl")),
		Upstream: "not a url",
	})
	assert.Error(t, err)
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t, Config{})
	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/positions", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
