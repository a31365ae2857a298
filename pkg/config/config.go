package config

import "time"

// Config is the root configuration structure for DataScope. It contains all
// configuration sections for dataset storage, analysis execution, artifact
// output, telemetry, narrative synthesis, and the autorun watcher.
type Config struct {
	// Dataset contains configuration for dataset ingestion and the SQLite
	// session backing each run.
	Dataset DatasetConfig `yaml:"dataset"`

	// Analysis contains configuration for analysis runs including the
	// default policy and the per-run execution timeout.
	Analysis AnalysisConfig `yaml:"analysis"`

	// Artifacts contains configuration for run artifact output including
	// the output directory and report generation.
	Artifacts ArtifactsConfig `yaml:"artifacts"`

	// Telemetry contains configuration for observability including logging
	// and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Synth contains configuration for the optional LLM narrative layer.
	// Synthesis is presentation-only and never feeds back into analysis.
	Synth SynthConfig `yaml:"synth"`

	// Autorun contains configuration for the drop-directory watcher and the
	// cron scheduler.
	Autorun AutorunConfig `yaml:"autorun"`
}

// DatasetConfig contains configuration for dataset ingestion.
type DatasetConfig struct {
	// Path is the SQLite database file backing ingested datasets. The
	// special value ":memory:" keeps each session in memory.
	// Default: ":memory:"
	Path string `yaml:"path"`
}

// AnalysisConfig contains configuration for analysis run execution.
type AnalysisConfig struct {
	// DefaultPolicy is the policy to run when none is named on the command
	// line. Empty or "auto" selects a policy automatically from the dataset
	// schema.
	// Default: "" (automatic selection)
	DefaultPolicy string `yaml:"default_policy"`

	// Timeout bounds query execution for a single run. A run that exceeds
	// it fails with a timeout error; there is no partial result.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`
}

// ArtifactsConfig contains configuration for run artifact output.
type ArtifactsConfig struct {
	// Dir is the directory under which per-run artifact directories are
	// created. Each run writes into <dir>/<run_id>/.
	// Default: "runs"
	Dir string `yaml:"dir"`

	// Report controls whether a Markdown report is written alongside the
	// JSON and CSV artifacts.
	// Default: true
	Report bool `yaml:"report"`

	// PrettyJSON controls whether JSON artifacts are indented.
	// Default: true
	PrettyJSON bool `yaml:"pretty_json"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource controls whether log records include the source file and
	// line of the logging call.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether the metrics endpoint is served. Only the
	// watch daemon serves metrics; one-shot commands never do.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the address and port for the metrics server.
	// Format: "host:port".
	// Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path the metrics are exposed on.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the Prometheus namespace prefix for all metrics.
	// Default: "datascope"
	Namespace string `yaml:"namespace"`
}

// SynthConfig contains configuration for the optional LLM narrative layer.
type SynthConfig struct {
	// Enabled controls whether a narrative is synthesized after a run.
	// When disabled the deterministic report is the only prose output.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// BaseURL is the base URL of the OpenAI-compatible API endpoint. Empty
	// uses the client library's default.
	BaseURL string `yaml:"base_url"`

	// APIKey is the API key for the endpoint. Prefer setting it through
	// the DATASCOPE_SYNTH_API_KEY environment variable.
	APIKey string `yaml:"api_key"`

	// Model is the model name requested for synthesis.
	// Default: "gpt-4o-mini"
	Model string `yaml:"model"`

	// Timeout bounds a single synthesis request. A failed or slow request
	// never fails the run; the narrative is simply omitted.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// MaxTokens caps the length of the synthesized narrative.
	// Default: 1024
	MaxTokens int `yaml:"max_tokens"`
}

// AutorunConfig contains configuration for unattended runs.
type AutorunConfig struct {
	// Enabled controls whether the watch daemon processes the drop
	// directory.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// DropDir is the directory watched for new CSV files. Each completed
	// file triggers an ingest-and-analyze cycle.
	// Default: "drop"
	DropDir string `yaml:"drop_dir"`

	// Debounce is how long a dropped file must be quiet before it is
	// picked up, so partially written files are not ingested.
	// Default: 2s
	Debounce time.Duration `yaml:"debounce"`

	// Schedule is an optional cron expression (standard five-field syntax)
	// for re-analyzing the drop directory on a schedule. Empty disables
	// scheduled runs.
	// Default: "" (disabled)
	Schedule string `yaml:"schedule"`

	// Policy is the policy to run for autorun cycles. Empty selects
	// automatically per dataset.
	// Default: "" (automatic selection)
	Policy string `yaml:"policy"`
}
