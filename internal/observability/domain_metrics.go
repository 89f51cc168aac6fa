package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	pipelineRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dbchat_pipeline_requests_total",
			Help: "Total number of pipeline requests by classified intent.",
		},
		[]string{"intent"},
	)
	pipelineOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dbchat_pipeline_outcomes_total",
			Help: "Total number of pipeline terminations by final state.",
		},
		[]string{"state"},
	)
	pipelineDurationMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dbchat_pipeline_duration_ms",
			Help:    "End-to-end pipeline latency in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		},
	)
	synthesisAttempts = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dbchat_synthesis_attempts",
			Help:    "Synthesis attempts consumed per request, including repairs.",
			Buckets: []float64{1, 2, 3, 4, 5},
		},
	)
	repairsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dbchat_repairs_total",
			Help: "Total number of repair transitions after a repairable execution failure.",
		},
	)
	executionFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dbchat_execution_failures_total",
			Help: "Total number of classified query execution failures.",
		},
		[]string{"kind"},
	)
	modelCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dbchat_model_calls_total",
			Help: "Total number of language model calls by operation and result.",
		},
		[]string{"provider", "operation", "result"},
	)
	modelCallLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dbchat_model_call_latency_ms",
			Help:    "Language model call latency in milliseconds.",
			Buckets: []float64{100, 250, 500, 1000, 2500, 5000, 10000, 20000, 30000},
		},
		[]string{"provider", "operation"},
	)
	schemaRefreshesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dbchat_schema_refreshes_total",
			Help: "Total number of schema snapshot refreshes (cache misses and forced).",
		},
	)
	artifactsWrittenTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dbchat_artifacts_written_total",
			Help: "Total number of artifacts written to the artifact store.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		pipelineRequestsTotal,
		pipelineOutcomesTotal,
		pipelineDurationMs,
		synthesisAttempts,
		repairsTotal,
		executionFailuresTotal,
		modelCallsTotal,
		modelCallLatencyMs,
		schemaRefreshesTotal,
		artifactsWrittenTotal,
	)
}

func ObservePipelineRequest(intent string) {
	pipelineRequestsTotal.WithLabelValues(intent).Inc()
}

func ObservePipelineOutcome(state string, attempts int, elapsed time.Duration) {
	pipelineOutcomesTotal.WithLabelValues(state).Inc()
	if attempts > 0 {
		synthesisAttempts.Observe(float64(attempts))
	}
	pipelineDurationMs.Observe(float64(elapsed.Milliseconds()))
}

func IncrementRepair() {
	repairsTotal.Inc()
}

func ObserveExecutionFailure(kind string) {
	executionFailuresTotal.WithLabelValues(kind).Inc()
}

func ObserveModelCall(provider, operation string, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	modelCallsTotal.WithLabelValues(provider, operation, result).Inc()
	modelCallLatencyMs.WithLabelValues(provider, operation).Observe(float64(elapsed.Milliseconds()))
}

func IncrementSchemaRefresh() {
	schemaRefreshesTotal.Inc()
}

func AddArtifactsWritten(count int) {
	if count > 0 {
		artifactsWrittenTotal.Add(float64(count))
	}
}
