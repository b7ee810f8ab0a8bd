package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Question stages reported by the orchestrator.
const (
	StageEmpty           = "empty"
	StageModelFailed     = "model_failed"
	StageConnectFailed   = "connect_failed"
	StageExecutionFailed = "execution_failed"
	StageOK              = "ok"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "odoo_bridge_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "odoo_bridge_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	questionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "odoo_bridge_questions_total",
			Help: "Questions handled, by the stage at which handling ended.",
		},
		[]string{"stage"},
	)

	modelDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "odoo_bridge_model_duration_seconds",
			Help:    "Latency of the code-generation model call.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 90},
		},
	)

	executionDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "odoo_bridge_execution_duration_seconds",
			Help:    "Latency of query script execution, including remote reads.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDurationSeconds,
		questionsTotal,
		modelDurationSeconds,
		executionDurationSeconds,
	)
}

func ObserveQuestion(stage string) {
	questionsTotal.WithLabelValues(stage).Inc()
}

func ObserveModelCall(d time.Duration) {
	modelDurationSeconds.Observe(d.Seconds())
}

// ObserveExecution records one engine run; failed marks runs that ended
// with an error in their outcome.
func ObserveExecution(d time.Duration, failed bool) {
	result := "ok"
	if failed {
		result = "error"
	}
	executionDurationSeconds.WithLabelValues(result).Observe(d.Seconds())
}
