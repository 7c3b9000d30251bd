// Package metrics registers the Prometheus collectors exported by filepulse.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Report generation metrics.
var (
	// GenerationsTotal counts report generations by trigger and outcome.
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filepulse_generations_total",
			Help: "Report generations by trigger and outcome",
		},
		[]string{"trigger", "outcome"},
	)

	// GenerationDuration tracks how long a generation takes end to end.
	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "filepulse_generation_duration_seconds",
			Help:    "Report generation duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"trigger"},
	)

	// GenerationInProgress is 1 while a generation holds the single-flight lock.
	GenerationInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "filepulse_generation_in_progress",
			Help: "Whether a report generation is currently running",
		},
	)

	// FilesScanned counts regular files collected by the scanner.
	FilesScanned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filepulse_files_scanned_total",
			Help: "Regular files collected across all scans",
		},
	)

	// FilesByBand holds the band distribution of the latest report.
	FilesByBand = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "filepulse_latest_report_files",
			Help: "Files per urgency band in the latest report",
		},
		[]string{"band"},
	)
)

// Scheduler and delivery metrics.
var (
	// JobRunsTotal counts scheduled job executions by outcome.
	JobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filepulse_job_runs_total",
			Help: "Scheduled job executions by job id and outcome",
		},
		[]string{"job", "outcome"},
	)

	// EmailsTotal counts email delivery attempts by outcome.
	EmailsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filepulse_emails_total",
			Help: "Email delivery attempts by outcome",
		},
		[]string{"outcome"},
	)

	// ArchivedReports is the number of reports listed in the archive index.
	ArchivedReports = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "filepulse_archived_reports",
			Help: "Reports currently listed in the archive index",
		},
	)
)

// HTTP API metrics.
var (
	// HTTPRequestsTotal counts API requests.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filepulse_http_requests_total",
			Help: "HTTP requests handled by the API",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration tracks API latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "filepulse_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeEmpty   = "empty"
	OutcomeBusy    = "busy"
	OutcomeSkipped = "skipped"
)

// ObserveGeneration records a finished generation.
func ObserveGeneration(trigger, outcome string, elapsed time.Duration) {
	GenerationsTotal.WithLabelValues(trigger, outcome).Inc()
	if outcome == OutcomeSuccess || outcome == OutcomeFailure {
		GenerationDuration.WithLabelValues(trigger).Observe(elapsed.Seconds())
	}
}

// SetBandCounts publishes the band distribution of the latest report.
func SetBandCounts(counts map[string]int) {
	for band, n := range counts {
		FilesByBand.WithLabelValues(band).Set(float64(n))
	}
}
