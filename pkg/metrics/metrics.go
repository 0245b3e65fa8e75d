// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// PipelineStageDuration tracks the duration of each intake pipeline stage.
	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "intake_pipeline_stage_duration_seconds",
			Help:    "Intake pipeline stage duration in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"stage", "status"},
	)

	// TurnsTotal tracks turns appended to conversations.
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_turns_total",
			Help: "Total conversation turns processed",
		},
		[]string{"role", "language"},
	)

	// IntakeCompletionsTotal tracks conversations that produced a complete
	// intake record.
	IntakeCompletionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "intake_completions_total",
			Help: "Total completed intake records extracted",
		},
	)

	// LLMTokensTotal tracks total LLM tokens processed.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"model", "direction"},
	)

	// SynthesisBytesTotal tracks synthesized audio volume.
	SynthesisBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tts_synthesis_bytes_total",
			Help: "Total bytes of synthesized speech",
		},
		[]string{"voice"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordStage records the outcome of one pipeline stage (stt, llm, tts).
func RecordStage(stage, status string, duration float64) {
	PipelineStageDuration.WithLabelValues(stage, status).Observe(duration)
}

// RecordTurn records a turn appended to a conversation.
func RecordTurn(role, language string) {
	TurnsTotal.WithLabelValues(role, language).Inc()
}

// RecordLLMUsage records token usage for a completion.
func RecordLLMUsage(model string, tokensIn, tokensOut int) {
	LLMTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	LLMTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
}
