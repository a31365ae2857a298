// Package artifact persists the outputs of an analysis run.
//
// Each run gets its own directory under the configured artifacts root,
// named by run identifier. The writer lays down the machine-readable
// artifacts (metrics CSV, analysis log, normalized anomalies, the verbatim
// SQL needed to reproduce the run) and optionally a Markdown report. All
// artifacts are rendered from the run result as-is; in particular the
// anomaly order produced by the normalizer is preserved everywhere.
package artifact
