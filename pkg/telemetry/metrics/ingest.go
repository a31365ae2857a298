package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"datascope-hq/datascope/pkg/config"
)

// IngestMetrics tracks metrics related to dataset ingestion.
//
// Metrics:
//   - datascope_ingests_total: Total ingest attempts by status
//   - datascope_ingest_rows_total: Total rows ingested
//   - datascope_ingest_duration_seconds: Ingest duration
type IngestMetrics struct {
	// Total ingest attempts
	ingestsTotal *prometheus.CounterVec

	// Total rows ingested
	rowsTotal prometheus.Counter

	// Ingest duration histogram
	ingestDuration prometheus.Histogram
}

// NewIngestMetrics creates and registers ingest metrics with the provided
// registry.
func NewIngestMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *IngestMetrics {
	im := &IngestMetrics{
		ingestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "ingests_total",
				Help:      "Total number of dataset ingest attempts",
			},
			[]string{"status"},
		),

		rowsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "ingest_rows_total",
				Help:      "Total number of rows ingested across all datasets",
			},
		),

		ingestDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "ingest_duration_seconds",
				Help:      "Duration of dataset ingestion in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
	}

	registry.MustRegister(im.ingestsTotal, im.rowsTotal, im.ingestDuration)
	return im
}

// RecordIngest records one ingest attempt.
//
// Parameters:
//   - status: "succeeded" or "failed"
//   - rows: Number of data rows ingested (zero on failure)
//   - duration: Wall-clock ingest duration
func (im *IngestMetrics) RecordIngest(status string, rows int, duration time.Duration) {
	im.ingestsTotal.WithLabelValues(status).Inc()
	if rows > 0 {
		im.rowsTotal.Add(float64(rows))
	}
	im.ingestDuration.Observe(duration.Seconds())
}
