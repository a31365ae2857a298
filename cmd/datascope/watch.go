package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"datascope-hq/datascope/pkg/analysis/runner"
	"datascope-hq/datascope/pkg/artifact"
	"datascope-hq/datascope/pkg/autorun"
	"datascope-hq/datascope/pkg/cli"
	"datascope-hq/datascope/pkg/config"
	"datascope-hq/datascope/pkg/policy"
	"datascope-hq/datascope/pkg/synth"
	"datascope-hq/datascope/pkg/telemetry/metrics"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a drop directory and analyze every CSV that lands in it",
	Long: `Run the autorun daemon.

Files dropped into the configured directory are debounced, ingested into a
fresh session, analyzed, and persisted as artifacts. When a cron schedule
is configured the whole directory is re-analyzed on that schedule. When
metrics are enabled a Prometheus endpoint is served for the daemon's
lifetime.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if !cfg.Autorun.Enabled {
			return cli.NewConfigError("autorun.enabled", "the watch daemon is disabled")
		}
		logger, err := buildLogger(cfg)
		if err != nil {
			return err
		}

		r, err := runner.New(policy.NewBuiltinRegistry(), logger)
		if err != nil {
			return err
		}

		var collector *metrics.Collector
		if cfg.Telemetry.Metrics.Enabled {
			collector = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
		}

		var narrator *synth.Narrator
		if n, err := synth.New(cfg.Synth); err == nil {
			narrator = n
		} else if !errors.Is(err, synth.ErrDisabled) {
			return err
		}

		pipeline := autorun.NewPipeline(autorun.PipelineOptions{
			Runner:    r,
			Artifacts: artifact.NewWriter(cfg.Artifacts, logger),
			Narrator:  narrator,
			Collector: collector,
			Policy:    resolvePolicyName(cfg.Autorun.Policy, ""),
			Timeout:   cfg.Analysis.Timeout,
			Logger:    logger,
		})

		ctx, cancel := context.WithCancel(cli.SetupSignalHandler())
		defer cancel()

		if collector != nil {
			go serveMetrics(ctx, cfg, collector, logger)
		}

		process := func(ctx context.Context, path string) error {
			_, err := pipeline.Process(ctx, path)
			return err
		}

		watcher := autorun.NewDirWatcher(cfg.Autorun.DropDir, cfg.Autorun.Debounce, logger)

		if cfg.Autorun.Schedule != "" {
			scheduler, err := autorun.NewScheduler(cfg.Autorun.Schedule, logger)
			if err != nil {
				return err
			}
			go func() {
				_ = scheduler.Start(ctx, func(ctx context.Context) error {
					return watcher.ScanExisting(ctx, process)
				})
			}()
		}

		return watcher.Watch(ctx, process)
	},
}

// serveMetrics runs the Prometheus endpoint until the context is cancelled.
func serveMetrics(ctx context.Context, cfg *config.Config, collector *metrics.Collector, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())

	server := &http.Server{
		Addr:              cfg.Telemetry.Metrics.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics endpoint started",
		"address", cfg.Telemetry.Metrics.ListenAddress,
		"path", cfg.Telemetry.Metrics.Path)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics endpoint failed", "error", err)
	}
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
