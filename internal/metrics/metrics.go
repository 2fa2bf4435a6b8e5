// Package metrics provides Prometheus metrics for the answer relay.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	StageDuration        *prometheus.HistogramVec
	StageFailuresTotal   *prometheus.CounterVec
	RelayFragmentsTotal  prometheus.Counter
	RelayOutcomesTotal   *prometheus.CounterVec
	ContextTokens        prometheus.Histogram
	PromptTokens         prometheus.Histogram
	EmbeddingCacheTotal  *prometheus.CounterVec
	AnswerEventsConsumed *prometheus.CounterVec
}

// New registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "concierge_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "concierge_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds, including streamed bodies",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"route"},
		),
		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "concierge_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		StageFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "concierge_stage_failures_total",
				Help: "Total number of failed pipeline stages",
			},
			[]string{"stage"},
		),
		RelayFragmentsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "concierge_relay_fragments_total",
				Help: "Total number of answer fragments relayed to callers",
			},
		),
		RelayOutcomesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "concierge_relay_outcomes_total",
				Help: "Relay terminal states",
			},
			[]string{"state"},
		),
		ContextTokens: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "concierge_context_tokens",
				Help:    "Tokens of retrieved context included in a prompt",
				Buckets: prometheus.LinearBuckets(0, 300, 10),
			},
		),
		PromptTokens: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "concierge_prompt_tokens",
				Help:    "Token length of built prompts",
				Buckets: prometheus.LinearBuckets(0, 400, 10),
			},
		),
		EmbeddingCacheTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "concierge_embedding_cache_total",
				Help: "Embedding cache lookups by result",
			},
			[]string{"result"},
		),
		AnswerEventsConsumed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "concierge_answer_events_consumed_total",
				Help: "Answer-recorded events consumed by the stats worker",
			},
			[]string{"status"},
		),
	}
}

func (m *Metrics) ObserveStage(stage string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(started).Seconds())
	if err != nil {
		m.StageFailuresTotal.WithLabelValues(stage).Inc()
	}
}

func (m *Metrics) ObserveRequest(route, status string, started time.Time) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(time.Since(started).Seconds())
}

func (m *Metrics) FragmentRelayed() {
	if m == nil {
		return
	}
	m.RelayFragmentsTotal.Inc()
}

func (m *Metrics) RelayFinished(state string) {
	if m == nil {
		return
	}
	m.RelayOutcomesTotal.WithLabelValues(state).Inc()
}

func (m *Metrics) ObserveTokens(contextTokens, promptTokens int) {
	if m == nil {
		return
	}
	m.ContextTokens.Observe(float64(contextTokens))
	m.PromptTokens.Observe(float64(promptTokens))
}

func (m *Metrics) EmbeddingCache(result string) {
	if m == nil {
		return
	}
	m.EmbeddingCacheTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) AnswerEventConsumed(status string) {
	if m == nil {
		return
	}
	m.AnswerEventsConsumed.WithLabelValues(status).Inc()
}
