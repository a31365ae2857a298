package config

import "time"

// Default values for configuration fields.
const (
	// Dataset defaults
	DefaultDatasetPath = ":memory:"

	// Analysis defaults
	DefaultAnalysisTimeout = 30 * time.Second

	// Artifacts defaults
	DefaultArtifactsDir        = "runs"
	DefaultArtifactsReport     = true
	DefaultArtifactsPrettyJSON = true

	// Telemetry defaults
	DefaultLoggingLevel         = "info"
	DefaultLoggingFormat        = "json"
	DefaultMetricsEnabled       = true
	DefaultMetricsListenAddress = "127.0.0.1:9090"
	DefaultMetricsPath          = "/metrics"
	DefaultMetricsNamespace     = "datascope"

	// Synth defaults
	DefaultSynthModel     = "gpt-4o-mini"
	DefaultSynthTimeout   = 30 * time.Second
	DefaultSynthMaxTokens = 1024

	// Autorun defaults
	DefaultAutorunEnabled  = true
	DefaultAutorunDropDir  = "drop"
	DefaultAutorunDebounce = 2 * time.Second
)

// ApplyDefaults applies default values to a Config struct. It sets defaults
// for any fields that have zero values. This function is idempotent and safe
// to call multiple times.
func ApplyDefaults(cfg *Config) {
	if cfg.Dataset.Path == "" {
		cfg.Dataset.Path = DefaultDatasetPath
	}

	if cfg.Analysis.Timeout == 0 {
		cfg.Analysis.Timeout = DefaultAnalysisTimeout
	}

	if cfg.Artifacts.Dir == "" {
		cfg.Artifacts.Dir = DefaultArtifactsDir
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = DefaultMetricsListenAddress
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}

	if cfg.Synth.Model == "" {
		cfg.Synth.Model = DefaultSynthModel
	}
	if cfg.Synth.Timeout == 0 {
		cfg.Synth.Timeout = DefaultSynthTimeout
	}
	if cfg.Synth.MaxTokens == 0 {
		cfg.Synth.MaxTokens = DefaultSynthMaxTokens
	}

	if cfg.Autorun.DropDir == "" {
		cfg.Autorun.DropDir = DefaultAutorunDropDir
	}
	if cfg.Autorun.Debounce == 0 {
		cfg.Autorun.Debounce = DefaultAutorunDebounce
	}
}

// NewDefaultConfig returns a Config populated entirely with defaults. Boolean
// fields whose default is true are set here because ApplyDefaults cannot
// distinguish false from unset.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	cfg.Artifacts.Report = DefaultArtifactsReport
	cfg.Artifacts.PrettyJSON = DefaultArtifactsPrettyJSON
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	cfg.Autorun.Enabled = DefaultAutorunEnabled
	ApplyDefaults(cfg)
	return cfg
}
