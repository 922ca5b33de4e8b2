// Package metrics defines Prometheus metrics for the explorer.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aip_explorer_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aip_explorer_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	APICallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aip_explorer_api_call_duration_seconds",
			Help:    "Remote API call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "outcome"},
	)

	APICacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "aip_explorer_api_cache_hits_total",
			Help: "Author graph lookups served from the cache",
		},
	)

	GraphUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aip_explorer_graph_updates_total",
			Help: "Author graph updates by kind (search, merge)",
		},
		[]string{"kind"},
	)

	StaleResponses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "aip_explorer_stale_responses_total",
			Help: "Author graph responses dropped because a newer search won",
		},
	)

	VisibleNodes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "aip_explorer_visible_nodes",
			Help: "Nodes in the last rendered view",
		},
	)

	FavouriteCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "aip_explorer_favourites",
			Help: "Stored favourite queries",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal,
		APICallDuration, APICacheHits,
		GraphUpdates, StaleResponses, VisibleNodes,
		FavouriteCount,
	)
}
