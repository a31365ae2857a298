package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"datascope-hq/datascope/pkg/config"
	"datascope-hq/datascope/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

const defaultConfigFile = "config.yaml"

var rootCmd = &cobra.Command{
	Use:   "datascope",
	Short: "DataScope - deterministic policy-governed tabular analytics",
	Long: `DataScope analyzes tabular datasets under explicit, versioned policies.

Every run is deterministic: the policy generates the SQL, declarative
threshold rules decide what counts as an anomaly, and the interpreter only
restates metrics it can cite. Identical data always produces identical
results, and every run leaves behind the exact queries needed to reproduce
it.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", defaultConfigFile, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig loads the configuration for a command. A missing default
// config file is not an error; explicit --config paths must exist.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && cfgFile == defaultConfigFile {
			return config.NewDefaultConfig(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// buildLogger builds the process logger from configuration, honoring the
// --verbose flag.
func buildLogger(cfg *config.Config) (*slog.Logger, error) {
	logCfg := cfg.Telemetry.Logging
	if verbose {
		logCfg.Level = "debug"
	}
	return logging.New(logCfg, os.Stderr)
}
