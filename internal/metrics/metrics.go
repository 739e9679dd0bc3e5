// Package metrics exposes process-wide Prometheus metrics for the store.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Aggregate label values for SentBytes, matching the six chunk kinds.
var Aggregates = []string{"raw", "count", "sum", "min", "max", "counter"}

// Metrics holds the store's Prometheus collectors. Per-stream telemetry
// lives on the tracing span; these counters aggregate across streams for
// dashboards and alerting.
type Metrics struct {
	registry *prometheus.Registry

	SeriesRequests  *prometheus.CounterVec
	SeriesSent      prometheus.Counter
	SentBytes       *prometheus.CounterVec
	RequestDuration prometheus.Histogram
	BlocksLoaded    prometheus.Gauge
}

// New creates and registers the store metrics on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		SeriesRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "thanos_store_series_requests_total",
			Help: "Total Series requests served, by gRPC status code.",
		}, []string{"code"}),
		SeriesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "thanos_store_series_sent_total",
			Help: "Total series frames sent to clients.",
		}),
		SentBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "thanos_store_sent_bytes_total",
			Help: "Total encoded chunk bytes sent to clients, by aggregate.",
		}, []string{"aggregate"}),
		RequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "thanos_store_series_request_duration_seconds",
			Help:    "Wall time of Series requests.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		BlocksLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "thanos_store_blocks_loaded",
			Help: "Number of block files currently loaded.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.SeriesRequests,
		m.SeriesSent,
		m.SentBytes,
		m.RequestDuration,
		m.BlocksLoaded,
	)

	// Pre-create the aggregate series so dashboards see zeroes, not gaps.
	for _, a := range Aggregates {
		m.SentBytes.WithLabelValues(a)
	}

	return m
}

// Handler returns the HTTP handler serving the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, e.g. for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
