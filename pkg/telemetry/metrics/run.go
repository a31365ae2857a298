package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"datascope-hq/datascope/pkg/config"
)

// RunMetrics tracks metrics related to analysis runs.
//
// Metrics:
//   - datascope_runs_total: Total analysis runs by policy and status
//   - datascope_run_duration_seconds: Analysis run duration by policy
//   - datascope_anomalies_total: Normalized anomalies emitted by policy and severity
//   - datascope_metric_rows: Metric rows produced per run by policy
type RunMetrics struct {
	// Total analysis runs
	runsTotal *prometheus.CounterVec

	// Run duration histogram
	runDuration *prometheus.HistogramVec

	// Normalized anomalies emitted
	anomaliesTotal *prometheus.CounterVec

	// Metric rows produced per run
	metricRows *prometheus.HistogramVec
}

// NewRunMetrics creates and registers run metrics with the provided registry.
func NewRunMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RunMetrics {
	rm := &RunMetrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "runs_total",
				Help:      "Total number of analysis runs",
			},
			[]string{"policy", "status"},
		),

		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of analysis runs in seconds",
				// Runs are query-bound; most finish well under a second.
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
			},
			[]string{"policy"},
		),

		anomaliesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "anomalies_total",
				Help:      "Total number of normalized anomalies emitted",
			},
			[]string{"policy", "severity"},
		),

		metricRows: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "metric_rows",
				Help:      "Metric rows produced per analysis run",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 8), // 1 to ~16K
			},
			[]string{"policy"},
		),
	}

	registry.MustRegister(
		rm.runsTotal,
		rm.runDuration,
		rm.anomaliesTotal,
		rm.metricRows,
	)
	return rm
}

// RecordRun records a completed or failed analysis run.
//
// Parameters:
//   - policy: Policy name (empty becomes "unresolved" for runs that failed
//     before policy resolution)
//   - status: "succeeded" or "failed"
//   - duration: Wall-clock run duration
func (rm *RunMetrics) RecordRun(policy, status string, duration time.Duration) {
	if policy == "" {
		policy = "unresolved"
	}
	rm.runsTotal.WithLabelValues(policy, status).Inc()
	rm.runDuration.WithLabelValues(policy).Observe(duration.Seconds())
}

// RecordAnomaly records one emitted normalized anomaly.
func (rm *RunMetrics) RecordAnomaly(policy, severity string) {
	rm.anomaliesTotal.WithLabelValues(policy, severity).Inc()
}

// RecordMetricRows records how many metric rows a run produced.
func (rm *RunMetrics) RecordMetricRows(policy string, rows int) {
	rm.metricRows.WithLabelValues(policy).Observe(float64(rows))
}
