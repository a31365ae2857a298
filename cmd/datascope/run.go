package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"datascope-hq/datascope/pkg/analysis/runner"
	"datascope-hq/datascope/pkg/anomaly"
	"datascope-hq/datascope/pkg/artifact"
	"datascope-hq/datascope/pkg/cli"
	"datascope-hq/datascope/pkg/dataset"
	"datascope-hq/datascope/pkg/policy"
	"datascope-hq/datascope/pkg/synth"
)

var (
	runPolicy  string
	runRoles   []string
	runTimeout time.Duration
	runOutDir  string
	runOutput  string
)

var runCmd = &cobra.Command{
	Use:   "run <file.csv>",
	Short: "Analyze a CSV file end to end",
	Long: `Ingest a CSV file, run the analysis, and persist the run artifacts.

Without --policy the engine scores every registered policy against the
dataset's schema and picks the best fit, falling back to the generic
baseline when nothing matches. Role hints map dataset columns onto policy
roles when the column names are unusual:

  datascope run orders.csv --role customer=buyer_id --role amount=order_total

The run is all-or-nothing: on any failure no artifacts are written and the
command exits nonzero.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := buildLogger(cfg)
		if err != nil {
			return err
		}

		hints, err := parseRoleHints(runRoles)
		if err != nil {
			return err
		}

		session, err := dataset.OpenMemory()
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		defer session.Close()

		summary, err := dataset.IngestCSVFile(cmd.Context(), session, args[0])
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		logger.Debug("dataset ingested", "rows", summary.Rows, "columns", len(summary.Columns))

		name := resolvePolicyName(runPolicy, cfg.Analysis.DefaultPolicy)
		timeout := runTimeout
		if timeout == 0 {
			timeout = cfg.Analysis.Timeout
		}

		r, err := runner.New(policy.NewBuiltinRegistry(), logger)
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		result, err := r.Run(cmd.Context(), session, runner.Options{
			Policy:  name,
			Hints:   hints,
			Timeout: timeout,
		})
		if err != nil {
			return cli.NewCommandError("run", err)
		}

		artifactsCfg := cfg.Artifacts
		if runOutDir != "" {
			artifactsCfg.Dir = runOutDir
		}
		manifest, err := artifact.NewWriter(artifactsCfg, logger).Write(result)
		if err != nil {
			return cli.NewCommandError("run", err)
		}

		if narrator, err := synth.New(cfg.Synth); err == nil {
			if narrative, err := narrator.Narrate(cmd.Context(), result); err != nil {
				logger.Warn("narrative synthesis failed", "error", err)
			} else {
				path := filepath.Join(manifest.Dir, "narrative.md")
				if err := os.WriteFile(path, []byte(narrative+"\n"), 0o644); err != nil {
					logger.Warn("writing narrative failed", "error", err)
				}
			}
		} else if !errors.Is(err, synth.ErrDisabled) {
			logger.Warn("narrator unavailable", "error", err)
		}

		if runOutput == string(cli.FormatJSON) {
			return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, result)
		}
		fmt.Printf("Run %s: policy %s (version %s)\n", result.RunID, result.Policy, result.PolicyVersion)
		fmt.Printf("Anomalies: %d (max severity: %s)\n",
			len(result.AnomaliesNormalized), anomaly.MaxSeverity(result.AnomaliesNormalized))
		for _, a := range result.AnomaliesNormalized {
			fmt.Printf("  [%s] %s: %s\n", a.Severity, a.Metric, a.Summary)
		}
		fmt.Printf("Artifacts: %s\n", manifest.Dir)
		return nil
	},
}

// resolvePolicyName picks the policy for a run, preferring the flag over the
// configured default. The literal name "auto" requests automatic selection,
// same as naming no policy at all.
func resolvePolicyName(flagValue, configured string) string {
	name := flagValue
	if name == "" {
		name = configured
	}
	if name == "auto" {
		return ""
	}
	return name
}

// parseRoleHints converts --role flags of the form role=column[,column...]
// into role hints tried in order.
func parseRoleHints(specs []string) (dataset.Roles, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	hints := make(dataset.Roles, len(specs))
	for _, spec := range specs {
		role, cols, ok := strings.Cut(spec, "=")
		if !ok || role == "" || cols == "" {
			return nil, fmt.Errorf("invalid role hint %q (expected role=column)", spec)
		}
		for _, col := range strings.Split(cols, ",") {
			col = strings.TrimSpace(col)
			if col == "" {
				return nil, fmt.Errorf("invalid role hint %q (empty column)", spec)
			}
			hints[role] = append(hints[role], col)
		}
	}
	return hints, nil
}

func init() {
	runCmd.Flags().StringVarP(&runPolicy, "policy", "p", "", `policy to run ("auto" or empty selects automatically)`)
	runCmd.Flags().StringArrayVar(&runRoles, "role", nil, "role hint, role=column (repeatable)")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "query execution timeout (default: from config)")
	runCmd.Flags().StringVar(&runOutDir, "out", "", "artifacts directory (default: from config)")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "text", "output format (text, json)")
	rootCmd.AddCommand(runCmd)
}
