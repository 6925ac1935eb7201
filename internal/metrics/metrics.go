// Package metrics provides Prometheus metrics for the secret endpoint.
// It tracks HTTP traffic, resolution kinds and parameter store lookups.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "paramsecret"
)

// LatencyBuckets defines histogram buckets for latency metrics (in seconds).
var LatencyBuckets = []float64{
	0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1,
	0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0,
}

// =============================================================================
// HTTP Metrics
// =============================================================================

var (
	// HTTPRequestsTotal counts served requests by method, route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration tracks request latency per route.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   LatencyBuckets,
		},
		[]string{"route"},
	)
)

// =============================================================================
// Secret Metrics
// =============================================================================

var (
	// ResolutionsTotal counts resolutions by kind (literal, reference).
	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Total number of secret resolutions by kind",
		},
		[]string{"kind"},
	)

	// LookupsTotal counts parameter store lookups by backend and outcome.
	LookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Total number of parameter store lookups",
		},
		[]string{"backend", "outcome"},
	)

	// LookupDuration tracks parameter store lookup latency.
	LookupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lookup_duration_seconds",
			Help:      "Parameter store lookup latency in seconds",
			Buckets:   LatencyBuckets,
		},
		[]string{"backend"},
	)
)

// RecordResolution records a resolution of the given kind.
func RecordResolution(kind string) {
	ResolutionsTotal.WithLabelValues(kind).Inc()
}

// RecordLookup records a completed parameter store lookup.
func RecordLookup(backend, outcome string, latency time.Duration) {
	LookupsTotal.WithLabelValues(backend, outcome).Inc()
	LookupDuration.WithLabelValues(backend).Observe(latency.Seconds())
}
