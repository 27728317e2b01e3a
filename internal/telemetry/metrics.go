package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	SubmissionsAccepted = prometheus.NewCounter(prometheus.CounterOpts{Name: "pdf_submissions_accepted_total", Help: "Uploads accepted and enqueued"})
	SubmissionsRejected = prometheus.NewCounter(prometheus.CounterOpts{Name: "pdf_submissions_rejected_total", Help: "Uploads rejected by validation"})
	EnqueueFailures     = prometheus.NewCounter(prometheus.CounterOpts{Name: "pdf_enqueue_failures_total", Help: "Accepted uploads that failed to enqueue"})
	RateLimitRejects    = prometheus.NewCounter(prometheus.CounterOpts{Name: "pdf_rate_limit_rejects_total", Help: "Requests rejected by rate limiter"})
	TasksSucceeded      = prometheus.NewCounter(prometheus.CounterOpts{Name: "pdf_tasks_succeeded_total", Help: "Analysis tasks completed successfully"})
	TasksFailed         = prometheus.NewCounter(prometheus.CounterOpts{Name: "pdf_tasks_failed_total", Help: "Analysis tasks that ended in FAILURE"})
	DownloadsServed     = prometheus.NewCounter(prometheus.CounterOpts{Name: "pdf_result_downloads_total", Help: "Result archives streamed to clients"})
	QueueDepthGauge     = prometheus.NewGauge(prometheus.GaugeOpts{Name: "pdf_queue_depth", Help: "Pending tasks waiting for an executor"})
	TasksInProgress     = prometheus.NewGauge(prometheus.GaugeOpts{Name: "pdf_tasks_in_progress", Help: "Tasks currently being analyzed"})
)

// Handler exposes /metrics HTTP handler with a singleton registry.
func Handler() http.Handler {
	once.Do(func() {
		prometheus.MustRegister(
			SubmissionsAccepted,
			SubmissionsRejected,
			EnqueueFailures,
			RateLimitRejects,
			TasksSucceeded,
			TasksFailed,
			DownloadsServed,
			QueueDepthGauge,
			TasksInProgress,
		)
	})
	return promhttp.Handler()
}
