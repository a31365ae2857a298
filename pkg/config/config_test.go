package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	if cfg.Dataset.Path != ":memory:" {
		t.Errorf("dataset.path = %q, want :memory:", cfg.Dataset.Path)
	}
	if cfg.Analysis.Timeout != 30*time.Second {
		t.Errorf("analysis.timeout = %v, want 30s", cfg.Analysis.Timeout)
	}
	if cfg.Artifacts.Dir != "runs" || !cfg.Artifacts.Report || !cfg.Artifacts.PrettyJSON {
		t.Errorf("artifacts = %+v, want dir=runs report=true pretty_json=true", cfg.Artifacts)
	}
	if cfg.Telemetry.Logging.Level != "info" || cfg.Telemetry.Logging.Format != "json" {
		t.Errorf("logging = %+v, want info/json", cfg.Telemetry.Logging)
	}
	if !cfg.Telemetry.Metrics.Enabled || cfg.Telemetry.Metrics.Path != "/metrics" {
		t.Errorf("metrics = %+v, want enabled with /metrics path", cfg.Telemetry.Metrics)
	}
	if cfg.Synth.Enabled {
		t.Error("synth enabled by default, want disabled")
	}
	if cfg.Autorun.DropDir != "drop" || cfg.Autorun.Debounce != 2*time.Second {
		t.Errorf("autorun = %+v, want drop_dir=drop debounce=2s", cfg.Autorun)
	}

	if err := Validate(cfg); err != nil {
		t.Errorf("Validate(default) error = %v, want nil", err)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Dataset.Path = "data/sets.db"
	cfg.Analysis.Timeout = 5 * time.Second
	cfg.Telemetry.Logging.Level = "debug"

	ApplyDefaults(cfg)

	if cfg.Dataset.Path != "data/sets.db" {
		t.Errorf("dataset.path = %q, want explicit value preserved", cfg.Dataset.Path)
	}
	if cfg.Analysis.Timeout != 5*time.Second {
		t.Errorf("analysis.timeout = %v, want 5s", cfg.Analysis.Timeout)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("logging.level = %q, want debug", cfg.Telemetry.Logging.Level)
	}
	if cfg.Telemetry.Logging.Format != "json" {
		t.Errorf("logging.format = %q, want default json", cfg.Telemetry.Logging.Format)
	}
}

func TestValidate_CollectsErrors(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Telemetry.Logging.Level = "verbose"
	cfg.Telemetry.Logging.Format = "xml"
	cfg.Artifacts.Dir = ""

	err := Validate(cfg)
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if len(verr.Errors) != 3 {
		t.Fatalf("errors = %d (%v), want 3", len(verr.Errors), verr)
	}

	fields := make(map[string]bool)
	for _, fe := range verr.Errors {
		fields[fe.Field] = true
	}
	for _, want := range []string{"telemetry.logging.level", "telemetry.logging.format", "artifacts.dir"} {
		if !fields[want] {
			t.Errorf("missing field error for %s in %v", want, verr)
		}
	}
}

func TestValidate_SynthRequiresKey(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Synth.Enabled = true

	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "synth.api_key") {
		t.Errorf("error = %v, want synth.api_key violation", err)
	}

	cfg.Synth.APIKey = "sk-test"
	if err := Validate(cfg); err != nil {
		t.Errorf("Validate() error = %v, want nil once key is set", err)
	}
}

func TestValidate_AutorunSchedule(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Autorun.Schedule = "not a cron line"
	if err := Validate(cfg); err == nil || !strings.Contains(err.Error(), "autorun.schedule") {
		t.Errorf("error = %v, want autorun.schedule violation", err)
	}

	cfg.Autorun.Schedule = "0 3 * * *"
	if err := Validate(cfg); err != nil {
		t.Errorf("Validate() error = %v, want nil for daily schedule", err)
	}
}

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "datascope.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfigFile(t, `
dataset:
  path: data/sets.db
analysis:
  default_policy: orders_v1
  timeout: 10s
telemetry:
  logging:
    level: debug
    format: text
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Dataset.Path != "data/sets.db" {
		t.Errorf("dataset.path = %q, want data/sets.db", cfg.Dataset.Path)
	}
	if cfg.Analysis.DefaultPolicy != "orders_v1" || cfg.Analysis.Timeout != 10*time.Second {
		t.Errorf("analysis = %+v, want orders_v1/10s", cfg.Analysis)
	}
	if cfg.Telemetry.Logging.Format != "text" {
		t.Errorf("logging.format = %q, want text", cfg.Telemetry.Logging.Format)
	}
	if cfg.Artifacts.Dir != "runs" {
		t.Errorf("artifacts.dir = %q, want default runs", cfg.Artifacts.Dir)
	}
	if !cfg.Artifacts.Report {
		t.Error("artifacts.report = false, want default true for unset field")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("LoadConfig() error = nil, want read failure")
	}
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	path := writeConfigFile(t, "telemetry:\n  logging:\n    level: noisy\n")
	_, err := LoadConfig(path)
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfigFile(t, "analysis:\n  timeout: 10s\n")

	t.Setenv("DATASCOPE_ANALYSIS_TIMEOUT", "90s")
	t.Setenv("DATASCOPE_ANALYSIS_DEFAULT_POLICY", "sales_v1")
	t.Setenv("DATASCOPE_METRICS_ENABLED", "false")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error = %v", err)
	}
	if cfg.Analysis.Timeout != 90*time.Second {
		t.Errorf("analysis.timeout = %v, want env override 90s", cfg.Analysis.Timeout)
	}
	if cfg.Analysis.DefaultPolicy != "sales_v1" {
		t.Errorf("analysis.default_policy = %q, want sales_v1", cfg.Analysis.DefaultPolicy)
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("metrics.enabled = true, want env override false")
	}
}

func TestLoadConfigWithEnvOverrides_InvalidAfterOverride(t *testing.T) {
	path := writeConfigFile(t, "dataset:\n  path: data/sets.db\n")

	t.Setenv("DATASCOPE_LOGGING_LEVEL", "shouting")

	if _, err := LoadConfigWithEnvOverrides(path); err == nil {
		t.Error("error = nil, want validation failure after override")
	}
}
