// Package metrics provides Prometheus instrumentation for DataScope.
//
// The Collector owns a dedicated Prometheus registry and groups the metric
// families by concern: analysis runs and dataset ingestion. Only the watch
// daemon serves the metrics endpoint; one-shot commands record nothing.
package metrics
