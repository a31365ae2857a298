package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"datascope-hq/datascope/pkg/config"
)

// Collector is the orchestrator for all Prometheus metrics in DataScope. It
// manages metric registration and provides a unified interface for recording
// metrics across components.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	// Run metrics
	runMetrics *RunMetrics

	// Ingest metrics
	ingestMetrics *IngestMetrics
}

// NewCollector creates a new metrics collector with the specified
// configuration and Prometheus registry. If registry is nil, a fresh
// registry is created.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	return &Collector{
		config:        cfg,
		registry:      registry,
		runMetrics:    NewRunMetrics(cfg, registry),
		ingestMetrics: NewIngestMetrics(cfg, registry),
	}
}

// Runs returns the analysis run metrics.
func (c *Collector) Runs() *RunMetrics {
	return c.runMetrics
}

// Ingests returns the dataset ingestion metrics.
func (c *Collector) Ingests() *IngestMetrics {
	return c.ingestMetrics
}

// Registry returns the underlying Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
