// Package metrics provides Prometheus metrics for rss-courier runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal counts finished runs by mode and final status.
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courier",
			Name:      "runs_total",
			Help:      "Total number of runs",
		},
		[]string{"mode", "status"},
	)

	// RunDuration measures run duration.
	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "courier",
			Name:      "run_duration_seconds",
			Help:      "Duration of runs in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	// OutcomesTotal counts publish attempts per destination.
	OutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courier",
			Name:      "outcomes_total",
			Help:      "Total number of publish attempts",
		},
		[]string{"mode", "destination", "result"},
	)

	WriteBackFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courier",
			Name:      "write_back_failures_total",
			Help:      "Publishes whose status write-back failed",
		},
		[]string{"mode"},
	)

	// SkippedTotal counts candidates skipped before publishing.
	SkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courier",
			Name:      "skipped_total",
			Help:      "Total number of skipped candidates",
		},
		[]string{"mode", "kind"},
	)
)

// RecordRun records a finished run.
func RecordRun(mode, status string, duration float64) {
	RunsTotal.WithLabelValues(mode, status).Inc()
	RunDuration.WithLabelValues(mode).Observe(duration)
}

// RecordOutcome records one publish attempt. result is "success" or a failure kind.
func RecordOutcome(mode, destination, result string) {
	OutcomesTotal.WithLabelValues(mode, destination, result).Inc()
}

func RecordWriteBackFailure(mode string) {
	WriteBackFailuresTotal.WithLabelValues(mode).Inc()
}

func RecordSkipped(mode, kind string) {
	SkippedTotal.WithLabelValues(mode, kind).Inc()
}
