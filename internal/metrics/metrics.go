// Package metrics registers the Prometheus metrics used by the translation
// gateway. Import this package from the server entry point before mounting
// the /metrics handler.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TranslationsTotal counts translation requests labelled by tier and
	// outcome ("success", "error", "rejected").
	TranslationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "translator_requests_total",
			Help: "Total number of translation requests processed.",
		},
		[]string{"tier", "status"},
	)

	// TranslationDuration observes end-to-end single-translation latency.
	TranslationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "translator_request_duration_seconds",
			Help:    "End-to-end translation duration in seconds.",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"tier"},
	)

	// MemoryLookups counts translation-memory lookups by result ("hit", "miss").
	MemoryLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "translator_memory_lookups_total",
			Help: "Translation memory lookups by result.",
		},
		[]string{"result"},
	)

	// BatchSize observes the number of texts per batch request.
	BatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "translator_batch_size",
			Help:    "Number of texts per batch translation request.",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		},
	)

	// DetectionsTotal counts language detections by source ("local", "llm",
	// "default").
	DetectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "translator_detections_total",
			Help: "Language detections by resolution source.",
		},
		[]string{"source"},
	)

	// UpstreamErrors counts collaborator failures by error type
	// ("provider_error", "timeout", "circuit_open").
	UpstreamErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "translator_upstream_errors_total",
			Help: "Collaborator errors by type.",
		},
		[]string{"error_type"},
	)

	// TokensUsed counts collaborator token consumption by direction
	// ("input", "output").
	TokensUsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "translator_tokens_total",
			Help: "Collaborator tokens consumed.",
		},
		[]string{"model", "direction"},
	)

	// RateLimitRejections counts requests rejected by the per-IP limiter.
	RateLimitRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "translator_rate_limit_rejections_total",
			Help: "Total requests rejected by rate limiting.",
		},
	)
)
