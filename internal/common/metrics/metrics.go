package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	DealDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deal_decisions_total",
			Help: "Execution gate decisions by result",
		},
		[]string{"result"},
	)

	ProviderFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logistics_provider_failures_total",
			Help: "Quote providers excluded from a route, by provider",
		},
		[]string{"provider"},
	)

	TransactionsRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_transactions_recorded_total",
			Help: "Transactions appended to account ledgers",
		},
	)
)

func RecordDecision(result string) {
	DealDecisions.WithLabelValues(result).Inc()
}

func RecordProviderFailure(provider string) {
	ProviderFailures.WithLabelValues(provider).Inc()
}

// ObserveJob records the outcome of a single job. errorCode is empty on success.
func ObserveJob(taskType string, seconds float64, errorCode string) {
	WorkerJobDuration.WithLabelValues(taskType).Observe(seconds)
	if errorCode != "" {
		WorkerJobsFailed.WithLabelValues(taskType, errorCode).Inc()
		return
	}
	WorkerJobsCompleted.WithLabelValues(taskType).Inc()
}
