package quote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// fetcher sends throttled HTTP GET requests to a provider.
type fetcher struct {
	source  string // metrics label
	client  *http.Client
	limiter *rate.Limiter
	metrics *Metrics
	referer string
}

// Option configures a source.
type Option func(*fetcher)

// WithClient sets the HTTP client, http.DefaultClient otherwise.
func WithClient(c *http.Client) Option { return func(f *fetcher) { f.client = c } }

// WithRate limits requests to perSecond, with bursts of one request.
func WithRate(perSecond float64) Option {
	return func(f *fetcher) { f.limiter = rate.NewLimiter(rate.Limit(perSecond), 1) }
}

// WithMetrics records requests in m.
func WithMetrics(m *Metrics) Option { return func(f *fetcher) { f.metrics = m } }

// WithReferer sets the Referer header, some providers reject requests without.
func WithReferer(referer string) Option { return func(f *fetcher) { f.referer = referer } }

func newFetcher(source string, opts []Option) fetcher {
	f := fetcher{
		source:  source,
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// get returns the body of addr. Non-2xx statuses are errors.
func (f *fetcher) get(ctx context.Context, addr string) (body []byte, err error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { f.metrics.observe(f.source, start, err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, err
	}
	if f.referer != "" {
		req.Header.Set("Referer", f.referer)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	log.Debug().Str("component", "quote").Str("source", f.source).
		Str("host", req.URL.Host).Str("path", req.URL.Path).Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).Msg("quote request")
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("cannot http GET %v%v: %v", req.URL.Host, req.URL.Path, resp.Status)
	}
	return io.ReadAll(resp.Body)
}
