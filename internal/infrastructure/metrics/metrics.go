package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Assistant-API Metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "exception",
			Subsystem: "assistant_api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "exception",
			Subsystem: "assistant_api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint"},
	)

	// Pipeline stage duration histogram
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "exception",
			Subsystem: "assistant_api",
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Duration of each assistant pipeline stage in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"stage"},
	)

	// Classified intents
	IntentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "exception",
			Subsystem: "assistant_api",
			Name:      "intents_total",
			Help:      "Total number of classified intents",
		},
		[]string{"intent"},
	)

	// Per-source-type retrieval outcomes
	RetrievalSourcesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "exception",
			Subsystem: "assistant_api",
			Name:      "retrieval_sources_total",
			Help:      "Per-source-type retrieval outcomes (ok, empty, error)",
		},
		[]string{"source_type", "status"},
	)

	// Safety outcomes
	SafetyViolationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "exception",
			Subsystem: "assistant_api",
			Name:      "safety_violations_total",
			Help:      "Total number of safety violations recorded",
		},
	)

	RedactionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "exception",
			Subsystem: "assistant_api",
			Name:      "redactions_total",
			Help:      "Total number of responses with redacted content",
		},
	)

	// Pipeline fallbacks
	FallbackResponsesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "exception",
			Subsystem: "assistant_api",
			Name:      "fallback_responses_total",
			Help:      "Total number of turns answered with the error fallback response",
		},
	)
)
