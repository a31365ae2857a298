package autorun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"datascope-hq/datascope/pkg/analysis/runner"
	"datascope-hq/datascope/pkg/artifact"
	"datascope-hq/datascope/pkg/dataset"
	"datascope-hq/datascope/pkg/synth"
	"datascope-hq/datascope/pkg/telemetry/metrics"
)

// Pipeline runs the full ingest-analyze-persist cycle for one dataset file.
type Pipeline struct {
	runner    *runner.Runner
	artifacts *artifact.Writer
	narrator  *synth.Narrator
	collector *metrics.Collector
	policy    string
	timeout   time.Duration
	logger    *slog.Logger
}

// PipelineOptions configure a pipeline.
type PipelineOptions struct {
	// Runner executes analysis runs. Required.
	Runner *runner.Runner

	// Artifacts persists run results. Required.
	Artifacts *artifact.Writer

	// Narrator synthesizes an optional narrative. Nil disables narration.
	Narrator *synth.Narrator

	// Collector records run and ingest metrics. Nil disables metrics.
	Collector *metrics.Collector

	// Policy names the policy for every cycle. Empty selects automatically
	// per dataset.
	Policy string

	// Timeout bounds each run's query execution.
	Timeout time.Duration

	// Logger may be nil, in which case the default logger is used.
	Logger *slog.Logger
}

// NewPipeline creates a pipeline.
func NewPipeline(opts PipelineOptions) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		runner:    opts.Runner,
		artifacts: opts.Artifacts,
		narrator:  opts.Narrator,
		collector: opts.Collector,
		policy:    opts.Policy,
		timeout:   opts.Timeout,
		logger:    logger,
	}
}

// Process ingests the CSV file at path into a fresh in-memory session, runs
// the analysis, and persists the artifacts. It returns the artifact manifest
// on success.
func (p *Pipeline) Process(ctx context.Context, path string) (*artifact.Manifest, error) {
	log := p.logger.With("dataset", filepath.Base(path))

	session, err := dataset.OpenMemory()
	if err != nil {
		return nil, fmt.Errorf("opening session: %w", err)
	}
	defer session.Close()

	ingestStart := time.Now()
	summary, err := dataset.IngestCSVFile(ctx, session, path)
	if err != nil {
		p.recordIngest("failed", 0, time.Since(ingestStart))
		return nil, fmt.Errorf("ingesting %q: %w", path, err)
	}
	p.recordIngest("succeeded", summary.Rows, time.Since(ingestStart))
	log.Info("dataset ingested", "rows", summary.Rows, "columns", len(summary.Columns))

	runStart := time.Now()
	result, err := p.runner.Run(ctx, session, runner.Options{
		Policy:  p.policy,
		Timeout: p.timeout,
	})
	if err != nil {
		p.recordRun(p.policy, "failed", time.Since(runStart))
		return nil, err
	}
	p.recordRun(result.Policy, "succeeded", time.Since(runStart))
	if p.collector != nil {
		p.collector.Runs().RecordMetricRows(result.Policy, len(result.Metrics))
		for _, a := range result.AnomaliesNormalized {
			p.collector.Runs().RecordAnomaly(a.Policy, string(a.Severity))
		}
	}

	manifest, err := p.artifacts.Write(result)
	if err != nil {
		return nil, err
	}

	if p.narrator != nil {
		if narrative, err := p.narrator.Narrate(ctx, result); err != nil {
			log.Warn("narrative synthesis failed", "error", err)
		} else {
			narrativePath := filepath.Join(manifest.Dir, "narrative.md")
			if err := os.WriteFile(narrativePath, []byte(narrative+"\n"), 0o644); err != nil {
				log.Warn("writing narrative failed", "error", err)
			}
		}
	}

	log.Info("cycle complete",
		"run_id", result.RunID,
		"policy", result.Policy,
		"anomalies", len(result.AnomaliesNormalized))
	return manifest, nil
}

func (p *Pipeline) recordIngest(status string, rows int, d time.Duration) {
	if p.collector != nil {
		p.collector.Ingests().RecordIngest(status, rows, d)
	}
}

func (p *Pipeline) recordRun(policy, status string, d time.Duration) {
	if p.collector != nil {
		p.collector.Runs().RecordRun(policy, status, d)
	}
}
