// Package metrics holds the Prometheus collectors for the swap service.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// QuoteRequestsTotal counts aggregator requests by operation (price|quote)
	// and outcome (ok|upstream_rejected|retrieval_failure).
	QuoteRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tinyswap_quote_requests_total",
			Help: "Aggregator requests by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	// UpstreamLatencySeconds observes aggregator round-trip latency.
	UpstreamLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tinyswap_upstream_latency_seconds",
			Help:    "Aggregator request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// SwapsTotal counts orchestrated swaps by terminal state.
	SwapsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tinyswap_swaps_total",
			Help: "Swap attempts by terminal state.",
		},
		[]string{"state"},
	)

	// ApprovalsTotal counts approval transactions by outcome.
	ApprovalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tinyswap_approvals_total",
			Help: "ERC-20 approval submissions by outcome.",
		},
		[]string{"outcome"},
	)
)

// MustRegisterMetrics registers all collectors with the default registry.
// Call once at startup.
func MustRegisterMetrics() {
	prometheus.MustRegister(
		QuoteRequestsTotal,
		UpstreamLatencySeconds,
		SwapsTotal,
		ApprovalsTotal,
	)
}
