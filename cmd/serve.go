package cmd

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"

	"github.com/etnz/stockfolio/config"
	"github.com/etnz/stockfolio/logger"
	"github.com/etnz/stockfolio/quote"
	"github.com/etnz/stockfolio/server"
	"github.com/google/subcommands"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
)

type serveCmd struct {
	addr  string
	proxy bool
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the portfolio over HTTP" }
func (*serveCmd) Usage() string {
	return `folio serve [-addr <host:port>] [-proxy=false]

  Serves the JSON API on /api, an HTML report on /report, and metrics on
  /metrics. Live quotes are polled on $FOLIO_POLL. /proxy forwards to the
  quote provider for browser front-ends.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "", "Listen address. Defaults to $FOLIO_LISTEN.")
	f.BoolVar(&c.proxy, "proxy", true, "Forward /proxy/ to the quote provider")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	addr := c.addr
	if addr == "" {
		addr = cfg.Listen
	}
	// servers log JSON lines
	l := logger.New(logger.Config{Level: cfg.LogLevel})
	logger.SetGlobalLogger(l)

	st, err := openStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer st.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := quote.NewMetrics()
	metrics.MustRegister(registry)

	srvCfg := server.Config{
		Addr:     addr,
		Currency: cfg.Currency,
		Store:    st,
		Log:      l,
		Source:   newSource(quote.WithMetrics(metrics)),
		Schedule: cfg.Poll,
		Registry: registry,
	}
	if c.proxy {
		srvCfg.Upstream = upstream(cfg)
		if cfg.QuoteSource == config.SourceDelimited {
			srvCfg.Referer = quote.DefaultReferer
		}
	}

	s, err := server.New(ctx, srvCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := s.Run(ctx); err != nil {
		log.Error().Err(err).Msg("server failed")
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// upstream returns the scheme and host of the quote endpoint.
func upstream(c *config.Config) string {
	u, err := url.Parse(c.QuoteURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
