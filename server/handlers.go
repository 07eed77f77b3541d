package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/etnz/stockfolio"
	"github.com/etnz/stockfolio/date"
	"github.com/etnz/stockfolio/quote"
	"github.com/etnz/stockfolio/renderer"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// maxBody limits request bodies.
const maxBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeFailure maps an error to its status.
func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, stockfolio.ErrInvalidTrade), errors.Is(err, stockfolio.ErrDuplicateID):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, stockfolio.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		s.log.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(v)
}

// filters reads the trade selection from the query: code, tag, ids, from
// and to.
func filters(r *http.Request) ([]stockfolio.Filter, error) {
	q := r.URL.Query()
	var fs []stockfolio.Filter
	if codes := list(q.Get("code")); len(codes) > 0 {
		fs = append(fs, stockfolio.ByCode(codes...))
	}
	if tag := q.Get("tag"); tag != "" {
		fs = append(fs, stockfolio.ByTag(tag))
	}
	if ids := list(q.Get("ids")); len(ids) > 0 {
		fs = append(fs, stockfolio.ByIDs(ids...))
	}
	// range=from..to, or its bounds given apart.
	bounds := q.Get("range")
	if bounds == "" {
		bounds = q.Get("from") + ".." + q.Get("to")
	}
	rg, err := date.ParseRange(bounds)
	if err != nil {
		return nil, err
	}
	if !rg.IsZero() {
		fs = append(fs, stockfolio.InRange(rg))
	}
	return fs, nil
}

// list splits a comma separated list, ignoring blanks.
func list(s string) []string {
	var items []string
	for item := range strings.SplitSeq(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func (s *Server) handleListTrades(w http.ResponseWriter, r *http.Request) {
	fs, err := filters(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	trades, _ := s.state.snapshot(fs...)
	if trades == nil {
		trades = []stockfolio.Trade{}
	}
	writeJSON(w, http.StatusOK, trades)
}

func (s *Server) handleAddTrade(w http.ResponseWriter, r *http.Request) {
	var t stockfolio.Trade
	if err := decodeBody(w, r, &t); err != nil {
		writeError(w, http.StatusBadRequest, "invalid trade: "+err.Error())
		return
	}
	var added stockfolio.Trade
	err := s.state.updateLedger(r.Context(), func(l *stockfolio.Ledger) error {
		if err := l.Add(t); err != nil {
			return err
		}
		// the new trade is the last one
		trades := l.Trades()
		added = trades[len(trades)-1]
		return nil
	})
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.log.Info().Str("id", added.ID).Str("code", added.Code).Str("kind", string(added.Kind)).Msg("trade added")
	writeJSON(w, http.StatusCreated, added)
}

func (s *Server) handleReplaceTrade(w http.ResponseWriter, r *http.Request) {
	var t stockfolio.Trade
	if err := decodeBody(w, r, &t); err != nil {
		writeError(w, http.StatusBadRequest, "invalid trade: "+err.Error())
		return
	}
	t.ID = chi.URLParam(r, "id")
	var replaced stockfolio.Trade
	err := s.state.updateLedger(r.Context(), func(l *stockfolio.Ledger) error {
		if err := l.Replace(t); err != nil {
			return err
		}
		replaced, _ = l.Trade(t.ID)
		return nil
	})
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, replaced)
}

func (s *Server) handleDeleteTrade(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.state.updateLedger(r.Context(), func(l *stockfolio.Ledger) error { return l.Delete(id) })
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteTrades(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	var n int
	err := s.state.updateLedger(r.Context(), func(l *stockfolio.Ledger) error {
		n = l.DeleteAll(req.IDs...)
		return nil
	})
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	trades, prices := s.state.snapshot()
	positions := stockfolio.Aggregate(trades, prices)
	if positions == nil {
		positions = []stockfolio.Position{}
	}
	writeJSON(w, http.StatusOK, positions)
}

func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	trades, prices := s.state.snapshot()
	writeJSON(w, http.StatusOK, stockfolio.Total(stockfolio.Aggregate(trades, prices)))
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	fs, err := filters(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	collapse := false
	if v := r.URL.Query().Get("collapse"); v != "" {
		if collapse, err = strconv.ParseBool(v); err != nil {
			writeError(w, http.StatusBadRequest, "invalid collapse: "+err.Error())
			return
		}
	}
	trades, _ := s.state.snapshot(fs...)
	points := stockfolio.Project(trades)
	if collapse {
		points = stockfolio.CollapseByDate(points)
	}
	if points == nil {
		points = []stockfolio.AnalysisPoint{}
	}
	writeJSON(w, http.StatusOK, struct {
		Points   []stockfolio.AnalysisPoint `json:"points"`
		Realized decimal.Decimal            `json:"realized"`
	}{points, stockfolio.RealizedTotal(points)})
}

// handleQuotes fetches live quotes of the requested codes, the ledger's by
// default. Codes with a manual price report it instead.
func (s *Server) handleQuotes(w http.ResponseWriter, r *http.Request) {
	codes := list(r.URL.Query().Get("codes"))
	if len(codes) == 0 {
		codes = s.state.codes()
	}
	quotes := make(map[string]quote.Quote)
	if s.source != nil && len(codes) > 0 {
		fresh, err := s.source.Quotes(r.Context(), codes...)
		if err != nil {
			s.log.Warn().Err(err).Msg("quote fetch failed")
			if len(fresh) == 0 {
				writeError(w, http.StatusBadGateway, err.Error())
				return
			}
		}
		s.state.receive(fresh)
		quotes = fresh
	}
	manual, _ := s.state.prices()
	for _, code := range codes {
		if price, ok := manual[code]; ok {
			q := quotes[code]
			q.Code, q.Price = code, price
			quotes[code] = q
		}
	}
	writeJSON(w, http.StatusOK, quotes)
}

func (s *Server) handleListPrices(w http.ResponseWriter, r *http.Request) {
	manual, _ := s.state.prices()
	writeJSON(w, http.StatusOK, manual)
}

func (s *Server) handleSetPrice(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	var req struct {
		Price decimal.Decimal `json:"price"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid price: "+err.Error())
		return
	}
	if !req.Price.IsPositive() {
		writeError(w, http.StatusBadRequest, "price must be positive, got "+req.Price.String())
		return
	}
	err := s.state.updatePrices(r.Context(), func(p stockfolio.Prices) error {
		p[code] = req.Price
		return nil
	})
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeletePrice(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	err := s.state.updatePrices(r.Context(), func(p stockfolio.Prices) error {
		if _, ok := p[code]; !ok {
			return stockfolio.ErrNotFound
		}
		delete(p, code)
		return nil
	})
	if err != nil {
		if errors.Is(err, stockfolio.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no manual price for "+code)
			return
		}
		s.writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleReport renders the holding as an HTML page.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	trades, prices := s.state.snapshot()
	md := renderer.RenderHolding(renderer.NewHolding(date.Today(), s.currency, trades, prices))

	var body bytes.Buffer
	gm := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := gm.Convert([]byte(md), &body); err != nil {
		s.writeFailure(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>folio</title></head><body>\n"))
	_, _ = body.WriteTo(w)
	_, _ = w.Write([]byte("</body></html>\n"))
}
