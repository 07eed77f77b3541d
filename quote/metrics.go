package quote

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts quote requests. A nil *Metrics records nothing.
type Metrics struct {
	Requests *prometheus.CounterVec   // labels: source, result
	Duration *prometheus.HistogramVec // labels: source
}

// NewMetrics creates unregistered metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_quote_requests_total",
			Help: "Total quote requests sent to providers",
		}, []string{"source", "result"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "folio_quote_request_duration_seconds",
			Help:    "Duration of quote requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
	}
}

// MustRegister registers the metrics, it panics on duplicates.
func (m *Metrics) MustRegister(r prometheus.Registerer) {
	r.MustRegister(m.Requests, m.Duration)
}

func (m *Metrics) observe(source string, start time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Requests.WithLabelValues(source, result).Inc()
	m.Duration.WithLabelValues(source).Observe(time.Since(start).Seconds())
}
