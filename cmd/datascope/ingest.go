package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"datascope-hq/datascope/pkg/cli"
	"datascope-hq/datascope/pkg/dataset"
)

var ingestOutput string

var ingestCmd = &cobra.Command{
	Use:   "ingest <file.csv>",
	Short: "Validate and ingest a CSV file",
	Long: `Ingest a CSV file into a dataset session and report its shape.

The first record is treated as the header. Column names are sanitized to
valid identifiers and all values are stored as text, matching what the
analysis policies consume.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		session, err := dataset.Open(cfg.Dataset.Path)
		if err != nil {
			return cli.NewCommandError("ingest", err)
		}
		defer session.Close()

		summary, err := dataset.IngestCSVFile(cmd.Context(), session, args[0])
		if err != nil {
			return cli.NewCommandError("ingest", err)
		}

		if ingestOutput == string(cli.FormatJSON) {
			return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, map[string]any{
				"table":   summary.Table,
				"rows":    summary.Rows,
				"columns": summary.Columns,
			})
		}
		fmt.Printf("Ingested %d rows into %q (%d columns: %s)\n",
			summary.Rows, summary.Table, len(summary.Columns),
			strings.Join(summary.Columns, ", "))
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestOutput, "output", "o", "text", "output format (text, json)")
	rootCmd.AddCommand(ingestCmd)
}
