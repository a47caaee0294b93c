package jobs

import "github.com/prometheus/client_golang/prometheus"

var (
	jobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neurolog_job_runs_total",
			Help: "Total background job runs",
		},
		[]string{"job"},
	)

	jobErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neurolog_job_errors_total",
			Help: "Total background job errors",
		},
		[]string{"job"},
	)

	jobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "neurolog_job_duration_seconds",
			Help:    "Background job duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"job"},
	)

	activeChildren = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "neurolog_active_children",
		Help: "Active (non-deleted) children",
	})

	accessRelations = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "neurolog_access_relations",
		Help: "Access relation rows",
	})

	dailyLogs = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "neurolog_daily_logs",
		Help: "Daily log entries",
	})
)

func init() {
	prometheus.MustRegister(jobRuns, jobErrors, jobDuration, activeChildren, accessRelations, dailyLogs)
}
