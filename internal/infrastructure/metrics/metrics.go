package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Agent-API Metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bootlang",
			Subsystem: "agent_api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bootlang",
			Subsystem: "agent_api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint"},
	)

	// Conversation turn counters
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bootlang",
			Subsystem: "agent_api",
			Name:      "turns_total",
			Help:      "Conversation turns processed, labeled by resulting stage",
		},
		[]string{"stage"},
	)

	// Ingestion counters
	IngestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bootlang",
			Subsystem: "agent_api",
			Name:      "ingests_total",
			Help:      "Document ingestion attempts",
		},
		[]string{"type", "status"},
	)

	// Generation counters
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bootlang",
			Subsystem: "agent_api",
			Name:      "generations_total",
			Help:      "Document set generations",
		},
		[]string{"trigger", "status"},
	)

	// Generation duration histogram
	GenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "bootlang",
			Subsystem: "agent_api",
			Name:      "generation_duration_seconds",
			Help:      "Document generation duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)

	// Queue depth gauge
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "bootlang",
			Subsystem: "agent_api",
			Name:      "queue_depth",
			Help:      "Generation queue depth",
		},
	)
)

// RecordRequest records an HTTP request.
func RecordRequest(method, endpoint, status string, duration time.Duration) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordTurn records a processed conversation turn.
func RecordTurn(stage string) {
	TurnsTotal.WithLabelValues(stage).Inc()
}

// RecordIngest records a document ingestion attempt.
func RecordIngest(docType, status string) {
	IngestsTotal.WithLabelValues(docType, status).Inc()
}

// RecordGeneration records one generation run.
func RecordGeneration(trigger, status string, duration time.Duration) {
	GenerationsTotal.WithLabelValues(trigger, status).Inc()
	GenerationDuration.Observe(duration.Seconds())
}

// SetQueueDepth updates the queue depth gauge.
func SetQueueDepth(depth int64) {
	QueueDepth.Set(float64(depth))
}
