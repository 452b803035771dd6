package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus collectors for the serving path. Names are part of the
// external contract consumed by the offline A/B analysis dashboards.
var (
	RecommendationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_requests_total",
			Help: "Total recommendation requests.",
		},
		[]string{"endpoint"},
	)

	RecommendationLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommendation_latency_seconds",
			Help:    "Latency for recommendation endpoints.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	ActiveUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_users_count",
			Help: "Count of unique users seen since process start.",
		},
	)

	ModelLoadTime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "model_load_time_seconds",
			Help: "Time spent loading models at startup.",
		},
	)

	PredictionLogFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "prediction_log_failures_total",
			Help: "Ranking calls whose prediction batch could not be persisted.",
		},
	)

	UpstreamTimeouts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_timeouts_total",
			Help: "Model or storage calls that exceeded their deadline.",
		},
		[]string{"target"}, // "model", "storage"
	)

	RetrievalCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "retrieval_cache_hits_total",
			Help: "Retrieval requests served from the result cache.",
		},
	)

	RetrievalCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "retrieval_cache_misses_total",
			Help: "Retrieval requests that went to the index.",
		},
	)
)
