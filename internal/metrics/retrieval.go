package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Retrieval Prometheus metrics.
var (
	BackendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatnoir",
			Name:      "backend_requests_total",
			Help:      "Total number of search backend requests",
		},
		[]string{"endpoint", "status"},
	)

	BackendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "chatnoir",
			Name:      "backend_request_duration_seconds",
			Help:      "Search backend request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint"},
	)

	BackendRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatnoir",
			Name:      "backend_retries_total",
			Help:      "Total retried search backend requests",
		},
		[]string{"endpoint"},
	)

	PagesFetchedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatnoir",
			Name:      "pages_fetched_total",
			Help:      "Total result pages fetched from the search backend",
		},
		[]string{"endpoint"},
	)

	ResultsYieldedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chatnoir",
			Name:      "results_yielded_total",
			Help:      "Total raw results handed to the projector",
		},
	)

	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatnoir",
			Name:      "queries_total",
			Help:      "Total transformed queries",
		},
		[]string{"status"},
	)

	QueryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "chatnoir",
			Name:      "query_duration_seconds",
			Help:      "Per-query retrieval duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	DegradedFieldsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatnoir",
			Name:      "degraded_fields_total",
			Help:      "Cached-content fields set to null after a failed fetch",
		},
		[]string{"column"},
	)

	FrameCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatnoir",
			Name:      "frame_cache_total",
			Help:      "Frame cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var registerRetrieval sync.Once

// RegisterRetrievalMetrics registers Prometheus retrieval metrics on the default
// registry. Repeated calls are no-ops.
func RegisterRetrievalMetrics() {
	registerRetrieval.Do(registerRetrievalMetrics)
}

func registerRetrievalMetrics() {
	prometheus.MustRegister(BackendRequestsTotal)
	prometheus.MustRegister(BackendRequestDuration)
	prometheus.MustRegister(BackendRetriesTotal)
	prometheus.MustRegister(PagesFetchedTotal)
	prometheus.MustRegister(ResultsYieldedTotal)
	prometheus.MustRegister(QueriesTotal)
	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(DegradedFieldsTotal)
	prometheus.MustRegister(FrameCacheTotal)
}
