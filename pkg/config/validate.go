package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration
// field.
type FieldError struct {
	// Field is the dotted path to the configuration field
	// (e.g., "analysis.timeout").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a
// configuration. It implements the error interface and provides access to
// all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is
// valid. All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateDataset(&cfg.Dataset)...)
	errs = append(errs, validateAnalysis(&cfg.Analysis)...)
	errs = append(errs, validateArtifacts(&cfg.Artifacts)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)
	errs = append(errs, validateSynth(&cfg.Synth)...)
	errs = append(errs, validateAutorun(&cfg.Autorun)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateDataset(cfg *DatasetConfig) []FieldError {
	var errs []FieldError
	if cfg.Path == "" {
		errs = append(errs, FieldError{Field: "dataset.path", Message: "must not be empty"})
	}
	return errs
}

func validateAnalysis(cfg *AnalysisConfig) []FieldError {
	var errs []FieldError
	if cfg.Timeout < 0 {
		errs = append(errs, FieldError{Field: "analysis.timeout", Message: "must not be negative"})
	}
	return errs
}

func validateArtifacts(cfg *ArtifactsConfig) []FieldError {
	var errs []FieldError
	if cfg.Dir == "" {
		errs = append(errs, FieldError{Field: "artifacts.dir", Message: "must not be empty"})
	}
	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid level %q (must be debug, info, warn, or error)", cfg.Logging.Level),
		})
	}

	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid format %q (must be json or text)", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.ListenAddress == "" {
			errs = append(errs, FieldError{Field: "telemetry.metrics.listen_address", Message: "must not be empty when metrics are enabled"})
		}
		if !strings.HasPrefix(cfg.Metrics.Path, "/") {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: fmt.Sprintf("must start with / (got %q)", cfg.Metrics.Path),
			})
		}
	}
	return errs
}

func validateSynth(cfg *SynthConfig) []FieldError {
	var errs []FieldError
	if !cfg.Enabled {
		return nil
	}
	if cfg.APIKey == "" {
		errs = append(errs, FieldError{Field: "synth.api_key", Message: "must be set when synthesis is enabled"})
	}
	if cfg.Model == "" {
		errs = append(errs, FieldError{Field: "synth.model", Message: "must not be empty when synthesis is enabled"})
	}
	if cfg.Timeout <= 0 {
		errs = append(errs, FieldError{Field: "synth.timeout", Message: "must be positive when synthesis is enabled"})
	}
	if cfg.MaxTokens <= 0 {
		errs = append(errs, FieldError{Field: "synth.max_tokens", Message: "must be positive when synthesis is enabled"})
	}
	return errs
}

func validateAutorun(cfg *AutorunConfig) []FieldError {
	var errs []FieldError
	if !cfg.Enabled {
		return nil
	}
	if cfg.DropDir == "" {
		errs = append(errs, FieldError{Field: "autorun.drop_dir", Message: "must not be empty when autorun is enabled"})
	}
	if cfg.Debounce < 0 {
		errs = append(errs, FieldError{Field: "autorun.debounce", Message: "must not be negative"})
	}
	if cfg.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "autorun.schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}
	return errs
}
