// Package metrics provides performance tracking for Prism jobs using
// Prometheus metrics.
//
// # Overview
//
// The metrics package provides:
//   - Prometheus-compatible metrics collection
//   - Pre-defined metrics for pipeline runs
//   - Throughput tracking utilities
//   - Automatic metric registration
//
// # Basic Usage
//
//	// Count rows as they move
//	metrics.RowsRead.WithLabelValues("score-totals", "csv").Inc()
//	metrics.RowsWritten.WithLabelValues("score-totals", "jsonl").Inc()
//
//	// Track run duration
//	timer := metrics.NewTimer("run")
//	runJob(job)
//	metrics.RunDuration.WithLabelValues(job.Name).Observe(timer.Stop().Seconds())
//
//	// Track throughput
//	tracker := metrics.NewThroughputTracker(job.Name)
//	for row := range rows {
//	    process(row)
//	    tracker.Increment(1)
//	}
//	throughput := tracker.GetAndReset()
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RowsRead counts the rows pulled from job sources.
	// Labels: job (job name), format (source file format)
	//
	// Example:
	//	metrics.RowsRead.WithLabelValues("score-totals", "csv").Add(1000)
	RowsRead = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prism_rows_read_total",
			Help: "Total number of rows read from sources",
		},
		[]string{"job", "format"},
	)

	// RowsWritten counts the rows written to job outputs. For grouped
	// jobs this is the number of groups.
	// Labels: job (job name), format (output file format)
	RowsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prism_rows_written_total",
			Help: "Total number of rows written to outputs",
		},
		[]string{"job", "format"},
	)

	// Runs counts finished runs by outcome.
	// Labels: job (job name), status (success/failure)
	Runs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prism_runs_total",
			Help: "Total number of job runs",
		},
		[]string{"job", "status"},
	)

	// RunDuration tracks the distribution of run wall times in seconds.
	// The buckets cover quick ad-hoc runs through long batch jobs.
	// Labels: job (job name)
	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "prism_run_duration_seconds",
			Help: "Job run duration in seconds",
			Buckets: []float64{
				0.001, // 1ms - Tiny in-memory tables
				0.01,  // 10ms - Small files
				0.1,   // 100ms - Typical single-file runs
				1,     // 1s - Larger inputs
				10,    // 10s - Multi-file runs
				60,    // 1m - Heavy aggregation
				300,   // 5m - Full batch jobs
				600,   // 10m - Worst case before alerting
			},
		},
		[]string{"job"},
	)

	// Throughput tracks rows per second, set by ThroughputTracker.
	// Labels: job (job name)
	Throughput = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "prism_throughput_rows_per_second",
			Help: "Current throughput in rows per second",
		},
		[]string{"job"},
	)
)

// Timer provides a simple timing mechanism for measuring operation durations.
// It captures the start time on creation and calculates elapsed time on stop.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
// The name parameter is for identification in logs or metrics.
//
// Example:
//
//	timer := metrics.NewTimer("run")
//	runJob(job)
//	duration := timer.Stop()
//	logger.Info("job finished", zap.Duration("duration", duration))
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Stop stops the timer and returns the elapsed duration since creation.
// The timer can be stopped multiple times, each returning the total
// elapsed time since creation.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// ThroughputTracker tracks throughput (rows per second) over time windows.
// It updates the Throughput gauge when queried. Thread-safe for
// concurrent use.
type ThroughputTracker struct {
	mu        sync.Mutex
	count     int64     // Rows processed since last reset
	lastReset time.Time // Time of last reset
	job       string    // Job name used as the metric label
}

// NewThroughputTracker creates a new throughput tracker for a job.
//
// Example:
//
//	tracker := metrics.NewThroughputTracker("score-totals")
//	for row := range rows {
//	    process(row)
//	    tracker.Increment(1)
//	}
//	throughput := tracker.GetAndReset()
//	logger.Info("throughput", zap.Float64("rows_per_sec", throughput))
func NewThroughputTracker(job string) *ThroughputTracker {
	return &ThroughputTracker{
		lastReset: time.Now(),
		job:       job,
	}
}

// Increment adds n to the row count. Safe for concurrent use.
func (t *ThroughputTracker) Increment(n int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count += n
}

// GetAndReset calculates the current throughput (rows/second), updates
// the Prometheus gauge, resets the counter, and returns the calculated
// throughput. Safe for concurrent use.
func (t *ThroughputTracker) GetAndReset() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	elapsed := time.Since(t.lastReset).Seconds()
	if elapsed == 0 {
		return 0
	}

	throughput := float64(t.count) / elapsed

	t.count = 0
	t.lastReset = time.Now()

	Throughput.WithLabelValues(t.job).Set(throughput)

	return throughput
}
