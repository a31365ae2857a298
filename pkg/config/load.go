package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path. It
// applies default values, validates the configuration, and returns any
// errors. The configuration is not modified by environment variables; use
// LoadConfigWithEnvOverrides for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := NewDefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention DATASCOPE_SECTION_FIELD (e.g., DATASCOPE_ANALYSIS_TIMEOUT).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Environment variables use the format
// DATASCOPE_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Dataset overrides
	if val := os.Getenv("DATASCOPE_DATASET_PATH"); val != "" {
		cfg.Dataset.Path = val
	}

	// Analysis overrides
	if val := os.Getenv("DATASCOPE_ANALYSIS_DEFAULT_POLICY"); val != "" {
		cfg.Analysis.DefaultPolicy = val
	}
	if val := os.Getenv("DATASCOPE_ANALYSIS_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Analysis.Timeout = d
		}
	}

	// Artifacts overrides
	if val := os.Getenv("DATASCOPE_ARTIFACTS_DIR"); val != "" {
		cfg.Artifacts.Dir = val
	}
	if val := os.Getenv("DATASCOPE_ARTIFACTS_REPORT"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Artifacts.Report = b
		}
	}
	if val := os.Getenv("DATASCOPE_ARTIFACTS_PRETTY_JSON"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Artifacts.PrettyJSON = b
		}
	}

	// Telemetry overrides
	if val := os.Getenv("DATASCOPE_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("DATASCOPE_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("DATASCOPE_LOGGING_ADD_SOURCE"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Logging.AddSource = b
		}
	}
	if val := os.Getenv("DATASCOPE_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("DATASCOPE_METRICS_LISTEN_ADDRESS"); val != "" {
		cfg.Telemetry.Metrics.ListenAddress = val
	}
	if val := os.Getenv("DATASCOPE_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
	if val := os.Getenv("DATASCOPE_METRICS_NAMESPACE"); val != "" {
		cfg.Telemetry.Metrics.Namespace = val
	}

	// Synth overrides
	if val := os.Getenv("DATASCOPE_SYNTH_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Synth.Enabled = b
		}
	}
	if val := os.Getenv("DATASCOPE_SYNTH_BASE_URL"); val != "" {
		cfg.Synth.BaseURL = val
	}
	if val := os.Getenv("DATASCOPE_SYNTH_API_KEY"); val != "" {
		cfg.Synth.APIKey = val
	}
	if val := os.Getenv("DATASCOPE_SYNTH_MODEL"); val != "" {
		cfg.Synth.Model = val
	}
	if val := os.Getenv("DATASCOPE_SYNTH_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Synth.Timeout = d
		}
	}
	if val := os.Getenv("DATASCOPE_SYNTH_MAX_TOKENS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Synth.MaxTokens = i
		}
	}

	// Autorun overrides
	if val := os.Getenv("DATASCOPE_AUTORUN_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Autorun.Enabled = b
		}
	}
	if val := os.Getenv("DATASCOPE_AUTORUN_DROP_DIR"); val != "" {
		cfg.Autorun.DropDir = val
	}
	if val := os.Getenv("DATASCOPE_AUTORUN_DEBOUNCE"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Autorun.Debounce = d
		}
	}
	if val := os.Getenv("DATASCOPE_AUTORUN_SCHEDULE"); val != "" {
		cfg.Autorun.Schedule = val
	}
	if val := os.Getenv("DATASCOPE_AUTORUN_POLICY"); val != "" {
		cfg.Autorun.Policy = val
	}
}
