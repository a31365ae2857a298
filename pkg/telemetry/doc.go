// Package telemetry groups observability for DataScope.
//
// Components:
//
//   - logging: structured logging on log/slog with run-scoped context fields
//   - metrics: Prometheus metrics for analysis runs and dataset ingestion
//
// One-shot commands only log; the watch daemon additionally records metrics
// and serves the Prometheus endpoint.
package telemetry
