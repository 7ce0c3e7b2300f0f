// Package metrics holds the prometheus collectors of the service. Collectors
// are registered with the default registry and exposed on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Pipeline outcomes. An envelope is a request Metabase rejected; an error is
// a failure of the service itself.
const (
	OutcomeSuccess  = "success"
	OutcomeEnvelope = "envelope"
	OutcomeError    = "error"
)

// Remote operations against Metabase.
const (
	OperationRun  = "run"
	OperationSave = "save"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nlsql_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nlsql_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nlsql_generations_total",
			Help: "Total number of SQL generation requests by outcome.",
		},
		[]string{"outcome"},
	)

	generationDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nlsql_generation_duration_seconds",
			Help:    "Latency of SQL generation including the model call.",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		},
	)

	remoteCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nlsql_metabase_calls_total",
			Help: "Total number of Metabase calls by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	remoteCallDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nlsql_metabase_call_duration_seconds",
			Help:    "Latency of Metabase calls by operation.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	suspiciousQuestionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nlsql_suspicious_questions_total",
			Help: "Total number of questions matching a SQL injection pattern.",
		},
	)

	mcpToolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nlsql_mcp_tool_calls_total",
			Help: "Total number of MCP tool calls by tool and outcome.",
		},
		[]string{"tool", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDurationSeconds,
		generationsTotal,
		generationDurationSeconds,
		remoteCallsTotal,
		remoteCallDurationSeconds,
		suspiciousQuestionsTotal,
		mcpToolCallsTotal,
	)
}

// ObserveHTTPRequest records one served HTTP request.
func ObserveHTTPRequest(method, route, status string, elapsed time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, status).Observe(elapsed.Seconds())
}

// ObserveGeneration records one SQL generation.
func ObserveGeneration(outcome string, elapsed time.Duration) {
	generationsTotal.WithLabelValues(outcome).Inc()
	generationDurationSeconds.Observe(elapsed.Seconds())
}

// ObserveRemoteCall records one Metabase call.
func ObserveRemoteCall(operation, outcome string, elapsed time.Duration) {
	remoteCallsTotal.WithLabelValues(operation, outcome).Inc()
	remoteCallDurationSeconds.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// IncrementSuspiciousQuestions counts a question flagged by the injection check.
func IncrementSuspiciousQuestions() {
	suspiciousQuestionsTotal.Inc()
}

// ObserveMCPToolCall records one MCP tool call.
func ObserveMCPToolCall(tool, outcome string) {
	if tool == "" {
		tool = "none"
	}
	mcpToolCallsTotal.WithLabelValues(tool, outcome).Inc()
}
