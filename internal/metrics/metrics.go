// Package metrics exposes Prometheus instrumentation for the query path and
// the ingestion pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine's instruments.
type Metrics struct {
	registry *prometheus.Registry

	// QuestionsTotal counts answered questions by the tier that resolved
	// them ("documentation", "database", "exhausted").
	QuestionsTotal *prometheus.CounterVec

	// TierAttempts counts agent invocations by agent and result
	// ("found", "not_found", "error", "rejected").
	TierAttempts *prometheus.CounterVec

	// AnswerDuration observes end-to-end question latency in seconds.
	AnswerDuration prometheus.Histogram
}

// New creates the metric set on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		QuestionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "askd_questions_total",
			Help: "Questions answered, labeled by the resolving tier.",
		}, []string{"tier"}),
		TierAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "askd_tier_attempts_total",
			Help: "Agent invocations by agent name and outcome.",
		}, []string{"agent", "result"}),
		AnswerDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "askd_answer_duration_seconds",
			Help:    "End-to-end latency from question to final answer.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}
}

// Handler returns the HTTP handler serving this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
