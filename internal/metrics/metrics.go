package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Chatbot service metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "campus",
			Subsystem: "chatbot",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "campus",
			Subsystem: "chatbot",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	// Answer pipeline turns
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "campus",
			Subsystem: "chatbot",
			Name:      "turns_total",
			Help:      "Total answer pipeline turns",
		},
		[]string{"status"},
	)

	// End-to-end turn duration
	TurnDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "campus",
			Subsystem: "chatbot",
			Name:      "turn_duration_seconds",
			Help:      "Answer pipeline duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	// Vector search duration per index
	VectorSearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "campus",
			Subsystem: "chatbot",
			Name:      "vector_search_duration_seconds",
			Help:      "Vector search duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"index"},
	)

	// Generation duration (time to last token)
	GenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "campus",
			Subsystem: "chatbot",
			Name:      "generation_duration_seconds",
			Help:      "Streamed generation duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	// Dedup outcomes
	DedupTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "campus",
			Subsystem: "chatbot",
			Name:      "dedup_total",
			Help:      "Question deduplication outcomes",
		},
		[]string{"outcome"},
	)
)

// Handler returns the Prometheus metrics handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordTurn records one answer pipeline turn
func RecordTurn(status string, durationSec float64) {
	TurnsTotal.WithLabelValues(status).Inc()
	TurnDuration.Observe(durationSec)
}

// RecordVectorSearch records vector search time for an index
func RecordVectorSearch(index string, durationSec float64) {
	VectorSearchDuration.WithLabelValues(index).Observe(durationSec)
}

// RecordGeneration records streamed generation time
func RecordGeneration(durationSec float64) {
	GenerationDuration.Observe(durationSec)
}

// RecordDedup records a merge or create outcome
func RecordDedup(outcome string) {
	DedupTotal.WithLabelValues(outcome).Inc()
}
