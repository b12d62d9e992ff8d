package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce            sync.Once
	httpRequestsTotal       *prometheus.CounterVec
	httpLatencySeconds      *prometheus.HistogramVec
	quizSubmissionsTotal    *prometheus.CounterVec
	certificatesIssuedTotal prometheus.Counter
	workflowExecutionsTotal *prometheus.CounterVec
	workflowActionsTotal    *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		quizSubmissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quiz_submissions_total",
			Help: "Total number of graded quiz submissions by result.",
		}, []string{"result"})

		certificatesIssuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "certificates_issued_total",
			Help: "Total number of course completion certificates issued.",
		})

		workflowExecutionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workflow_executions_total",
			Help: "Total number of workflow executions by terminal status.",
		}, []string{"status"})

		workflowActionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workflow_actions_total",
			Help: "Total number of workflow actions dispatched by type and outcome.",
		}, []string{"type", "outcome"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			quizSubmissionsTotal,
			certificatesIssuedTotal,
			workflowExecutionsTotal,
			workflowActionsTotal,
		)
	})
}

// HTTPRequests exposes the counter for served requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for served requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// QuizSubmissions exposes the counter for graded submissions.
func QuizSubmissions() *prometheus.CounterVec {
	RegisterMetrics()
	return quizSubmissionsTotal
}

// CertificatesIssued exposes the counter for issued certificates.
func CertificatesIssued() prometheus.Counter {
	RegisterMetrics()
	return certificatesIssuedTotal
}

// WorkflowExecutions exposes the counter for finished executions.
func WorkflowExecutions() *prometheus.CounterVec {
	RegisterMetrics()
	return workflowExecutionsTotal
}

// WorkflowActions exposes the counter for dispatched actions.
func WorkflowActions() *prometheus.CounterVec {
	RegisterMetrics()
	return workflowActionsTotal
}
