package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"datascope-hq/datascope/pkg/cli"
	"datascope-hq/datascope/pkg/policy"
)

var policyOutput string

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Inspect the built-in analysis policies",
}

var policyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered policies",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := policy.NewBuiltinRegistry()

		if policyOutput == string(cli.FormatJSON) {
			var descriptions []policy.Description
			for _, p := range registry.List() {
				descriptions = append(descriptions, policy.Describe(p))
			}
			return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, descriptions)
		}
		for _, p := range registry.List() {
			fmt.Printf("%-16s v%-3s %s\n", p.Name(), p.Version(), p.Description())
		}
		return nil
	},
}

var policyDescribeCmd = &cobra.Command{
	Use:   "describe <name>",
	Short: "Show a policy's contract",
	Long: `Show a policy's roles, expected metrics, and threshold rules.

The output is the policy's published contract: what the schema must
provide, what metrics the policy computes, and exactly which thresholds
turn a metric into an anomaly.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := policy.NewBuiltinRegistry().Resolve(args[0])
		if err != nil {
			return err
		}
		d := policy.Describe(p)

		if policyOutput == string(cli.FormatJSON) {
			return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, d)
		}
		fmt.Printf("%s (version %s)\n%s\n\n", d.Name, d.Version, d.Summary)
		fmt.Printf("Required roles: %s\n", orNone(d.RequiredRoles))
		fmt.Printf("Optional roles: %s\n", orNone(d.OptionalRoles))
		fmt.Printf("Expected metrics: %s\n", orNone(d.ExpectedMetrics))
		fmt.Println("Rules:")
		if len(d.Rules) == 0 {
			fmt.Println("  (none)")
		}
		for _, r := range d.Rules {
			fmt.Printf("  %s\n", r)
		}
		return nil
	},
}

func orNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}

func init() {
	policyCmd.PersistentFlags().StringVarP(&policyOutput, "output", "o", "text", "output format (text, json)")
	policyCmd.AddCommand(policyListCmd)
	policyCmd.AddCommand(policyDescribeCmd)
	rootCmd.AddCommand(policyCmd)
}
