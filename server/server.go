// Package server exposes the portfolio over HTTP.
//
// The JSON API under /api reads and edits the ledger and the manual prices,
// every change is saved through the store before it is visible. /proxy
// forwards requests to the quote provider so that browser front-ends avoid
// CORS restrictions.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"time"

	"github.com/etnz/stockfolio/quote"
	"github.com/etnz/stockfolio/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Config holds server configuration.
type Config struct {
	Addr     string
	Currency string
	Store    store.Store
	Log      zerolog.Logger

	// Source provides live quotes, none when nil.
	Source quote.Source
	// Schedule polls Source in the background, it is disabled when empty.
	Schedule string
	// Upstream is the address /proxy forwards to, disabled when empty.
	Upstream string
	// Referer is sent to Upstream.
	Referer string
	// Registry collects metrics served on /metrics.
	Registry *prometheus.Registry
}

// Server represents the HTTP server.
type Server struct {
	router   *chi.Mux
	server   *http.Server
	log      zerolog.Logger
	state    *state
	currency string
	source   quote.Source
	schedule string
	requests *prometheus.CounterVec
}

// New creates a server on the content of cfg.Store.
func New(ctx context.Context, cfg Config) (*Server, error) {
	st, err := loadState(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("could not load portfolio: %w", err)
	}
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	s := &Server{
		router:   chi.NewRouter(),
		log:      cfg.Log.With().Str("component", "server").Logger(),
		state:    st,
		currency: cfg.Currency,
		source:   cfg.Source,
		schedule: cfg.Schedule,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_http_requests_total",
			Help: "Total HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
	}
	registry.MustRegister(s.requests)

	s.setupMiddleware()
	if err := s.setupRoutes(cfg.Upstream, cfg.Referer, registry); err != nil {
		return nil, err
	}

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes(upstream, referer string, registry *prometheus.Registry) error {
	s.router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	s.router.Get("/report", s.handleReport)
	s.router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/trades", func(r chi.Router) {
			r.Get("/", s.handleListTrades)
			r.Post("/", s.handleAddTrade)
			r.Post("/delete", s.handleDeleteTrades)
			r.Put("/{id}", s.handleReplaceTrade)
			r.Delete("/{id}", s.handleDeleteTrade)
		})
		r.Get("/positions", s.handlePositions)
		r.Get("/totals", s.handleTotals)
		r.Get("/analysis", s.handleAnalysis)
		r.Get("/quotes", s.handleQuotes)
		r.Route("/prices", func(r chi.Router) {
			r.Get("/", s.handleListPrices)
			r.Put("/{code}", s.handleSetPrice)
			r.Delete("/{code}", s.handleDeletePrice)
		})
	})

	if upstream == "" {
		return nil
	}
	proxy, err := newProxy(upstream, referer)
	if err != nil {
		return err
	}
	s.router.Handle("/proxy/*", http.StripPrefix("/proxy", proxy))
	return nil
}

// newProxy forwards requests to the scheme and host of upstream.
func newProxy(upstream, referer string) (*httputil.ReverseProxy, error) {
	u, err := url.Parse(upstream)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy upstream %q: %w", upstream, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid proxy upstream %q: scheme and host are required", upstream)
	}
	target := &url.URL{Scheme: u.Scheme, Host: u.Host}
	return &httputil.ReverseProxy{
		Rewrite: func(r *httputil.ProxyRequest) {
			r.SetURL(target)
			r.Out.Host = target.Host
			if referer != "" {
				r.Out.Header.Set("Referer", referer)
			}
		},
	}, nil
}

// ServeHTTP makes the server usable as a handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run serves until ctx is done, then shuts down gracefully. Quotes are
// polled in the background when a source and a schedule are configured.
func (s *Server) Run(ctx context.Context) error {
	if s.source != nil && s.schedule != "" {
		poller := quote.NewPoller(s.source, s.state.codes, s.state.receive)
		if err := poller.Start(ctx, s.schedule); err != nil {
			return fmt.Errorf("invalid poll schedule %q: %w", s.schedule, err)
		}
		defer poller.Stop()
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
		errc <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	s.log.Info().Msg("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// loggingMiddleware logs and counts HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		s.requests.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).Inc()

		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
