// internal/observability/metrics.go
// Package observability covers the web form's operational surface: Prometheus
// metrics and question/answer traces shipped to an external trace service.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the web form's Prometheus metrics. Each collector owns its
// registry so building one per server never double-registers.
type Collector struct {
	RequestDuration *prometheus.HistogramVec
	RequestCount    *prometheus.CounterVec

	QueryLatency *prometheus.HistogramVec

	PersistenceFailures prometheus.Counter
	TraceFailures       prometheus.Counter

	registry *prometheus.Registry
}

// NewCollector creates a metrics collector with all metrics registered.
func NewCollector() *Collector {
	c := &Collector{
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		QueryLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rag_query_latency_seconds",
				Help:    "End-to-end retrieval and generation latency in seconds",
				Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"model"},
		),
		PersistenceFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "contact_persistence_failures_total",
				Help: "Contact submissions that could not be written to the queue",
			},
		),
		TraceFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "trace_record_failures_total",
				Help: "Question traces that could not be shipped",
			},
		),
	}

	c.registry = prometheus.NewRegistry()
	c.registry.MustRegister(
		c.RequestDuration,
		c.RequestCount,
		c.QueryLatency,
		c.PersistenceFailures,
		c.TraceFailures,
	)

	return c
}

// Handler returns the HTTP handler serving this collector's metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
