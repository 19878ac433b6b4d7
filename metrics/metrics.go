package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all the available internal metrics
type Metrics struct {
	// APIResponseDurationsMilliseconds is the number of milliseconds it takes to
	// complete API responses.
	//
	// Labels: path (route path template), method (request HTTP method),
	// status_code (response HTTP status code)
	APIResponseDurationsMilliseconds *prometheus.HistogramVec

	// APIHandlerPanicsTotal is the number of times HTTP request handlers have paniced.
	//
	// Labels: path (route path template), method (request HTTP method)
	APIHandlerPanicsTotal *prometheus.CounterVec

	// ReportQueryDurationsMilliseconds is the number of milliseconds report queries
	// take, including fetching submissions.
	//
	// Labels: report (runs, teams, dashboard, stats), successful (0 = fail, 1 = success)
	ReportQueryDurationsMilliseconds *prometheus.HistogramVec

	// SubmissionsWrittenTotal is the number of submissions changed.
	//
	// Labels: operation (create, update, delete, recompute)
	SubmissionsWrittenTotal *prometheus.CounterVec

	// JobsSubmittedTotal is the number of jobs which are submitted.
	//
	// Labels: job_type (jobs.Job.Name)
	JobsSubmittedTotal *prometheus.CounterVec

	// JobsRunDurationsMilliseconds is the number of milliseconds jobs run for.
	//
	// Labels: job_type (jobs.Job.Name), successful (0 = fail, 1 = success)
	JobsRunDurationsMilliseconds *prometheus.HistogramVec
}

// NewMetrics creates a Metrics struct with all the Prometheus metrics recorders
// initialized and registered with reg
func NewMetrics(reg prometheus.Registerer) Metrics {
	metrics := Metrics{
		APIResponseDurationsMilliseconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "runboard_api",
			Subsystem: "api",
			Name:      "response_durations_milliseconds",
			Help:      "Time, in milliseconds, it took to respond to API requests",
		}, []string{"path", "method", "status_code"}),
		APIHandlerPanicsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "runboard_api",
			Subsystem: "api",
			Name:      "handler_panics_total",
			Help:      "Total number of HTTP handlers which have panicked while processing a request",
		}, []string{"path", "method"}),
		ReportQueryDurationsMilliseconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "runboard_api",
			Subsystem: "reports",
			Name:      "query_durations_milliseconds",
			Help:      "Time, in milliseconds, it took to build reports",
		}, []string{"report", "successful"}),
		SubmissionsWrittenTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "runboard_api",
			Subsystem: "submissions",
			Name:      "written_total",
			Help:      "Total number of submissions created, updated, deleted, or repaired",
		}, []string{"operation"}),
		JobsSubmittedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "runboard_api",
			Subsystem: "jobs",
			Name:      "submitted_total",
			Help:      "Total number of jobs submitted",
		}, []string{"job_type"}),
		JobsRunDurationsMilliseconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "runboard_api",
			Subsystem: "jobs",
			Name:      "run_durations_milliseconds",
			Help:      "Duration, in milliseconds, of jobs",
		}, []string{"job_type", "successful"}),
	}

	reg.MustRegister(metrics.APIResponseDurationsMilliseconds)
	reg.MustRegister(metrics.APIHandlerPanicsTotal)
	reg.MustRegister(metrics.ReportQueryDurationsMilliseconds)
	reg.MustRegister(metrics.SubmissionsWrittenTotal)
	reg.MustRegister(metrics.JobsSubmittedTotal)
	reg.MustRegister(metrics.JobsRunDurationsMilliseconds)

	return metrics
}

// StartTimer starts a Timer. Calling .Finish() on the returned timer records the
// time elapsed in milliseconds.
func (m Metrics) StartTimer() Timer {
	return Timer{
		startTime: time.Now(),
	}
}

// Successful returns the successful label value for err
func Successful(err error) string {
	if err != nil {
		return "0"
	}

	return "1"
}
