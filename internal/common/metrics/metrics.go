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

	// StageOutcomes counts ok and degraded results per pipeline stage.
	StageOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_stage_outcomes_total",
			Help: "Pipeline stage results by status and error code",
		},
		[]string{"stage", "status", "error_code"},
	)

	GeoCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_geo_cache_lookups_total",
			Help: "Nearby-resource cache lookups by result",
		},
		[]string{"result"},
	)

	CrisisPlans = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "triage_crisis_plans_total",
			Help: "Assembled plans that lead with crisis resources",
		},
	)
)

// RecordStage counts one stage outcome.
func RecordStage(stage, status, errorCode string) {
	StageOutcomes.WithLabelValues(stage, status, errorCode).Inc()
}
