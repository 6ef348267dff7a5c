// Package observability provides Prometheus metrics and the HTTP middleware
// that feeds the request-level ones.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestsTotal counts HTTP requests by method, path and status code.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskpilot_requests_total",
			Help: "Total HTTP requests processed.",
		},
		[]string{"method", "path", "status"},
	)

	// RequestDuration observes HTTP request latency by path.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskpilot_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// GenerationsTotal counts code generation calls by generator and outcome.
	GenerationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskpilot_generations_total",
			Help: "Total code generation calls.",
		},
		[]string{"generator", "outcome"},
	)

	// GenerationDuration observes generation latency by generator.
	GenerationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskpilot_generation_duration_seconds",
			Help:    "Code generation call duration in seconds.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
		[]string{"generator"},
	)

	// ExecutionsTotal counts subprocess executions by backend and outcome.
	ExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskpilot_executions_total",
			Help: "Total artifact executions.",
		},
		[]string{"backend", "outcome"},
	)

	// ExecutionDuration observes subprocess runtime by backend.
	ExecutionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskpilot_execution_duration_seconds",
			Help:    "Artifact execution duration in seconds.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		},
		[]string{"backend"},
	)

	// RetriesTotal counts retry rounds triggered by execution failures.
	RetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "taskpilot_retries_total",
			Help: "Total retry rounds triggered by failed executions.",
		},
	)

	// TasksTotal counts terminal task outcomes.
	TasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskpilot_tasks_total",
			Help: "Total tasks by terminal status.",
		},
		[]string{"status"},
	)

	// RateLimitRejectionsTotal counts requests rejected by the rate limiter.
	RateLimitRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskpilot_ratelimit_rejections_total",
			Help: "Total requests rejected by rate limiting.",
		},
		[]string{"tier"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		GenerationsTotal,
		GenerationDuration,
		ExecutionsTotal,
		ExecutionDuration,
		RetriesTotal,
		TasksTotal,
		RateLimitRejectionsTotal,
	)
}

// RecordGeneration records one generation call.
func RecordGeneration(generator, outcome string, elapsed time.Duration) {
	GenerationsTotal.WithLabelValues(generator, outcome).Inc()
	GenerationDuration.WithLabelValues(generator).Observe(elapsed.Seconds())
}

// RecordExecution records one artifact execution.
func RecordExecution(backend, outcome string, elapsed time.Duration) {
	ExecutionsTotal.WithLabelValues(backend, outcome).Inc()
	ExecutionDuration.WithLabelValues(backend).Observe(elapsed.Seconds())
}

// RecordRetry records one retry round.
func RecordRetry() {
	RetriesTotal.Inc()
}

// RecordTask records a terminal task outcome ("success" or "failure").
func RecordTask(status string) {
	TasksTotal.WithLabelValues(status).Inc()
}

// RecordRateLimitRejection records one rate-limited request.
func RecordRateLimitRejection(tier string) {
	RateLimitRejectionsTotal.WithLabelValues(tier).Inc()
}
