package synth

import (
	"fmt"
	"strings"

	"datascope-hq/datascope/pkg/analysis"
)

const systemPrompt = "You are a data analyst writing a short narrative for a completed " +
	"tabular analysis. Restate only the findings, anomalies, and caveats you are given. " +
	"Do not invent numbers, thresholds, or causes that are not present in the input."

// BuildPrompt renders the user prompt for narrative synthesis. The prompt is
// a deterministic function of the result, so identical runs produce
// identical prompts.
func BuildPrompt(result *analysis.Result) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Policy: %s (version %s)\n\n", result.Policy, result.PolicyVersion)

	sb.WriteString("Findings:\n")
	if len(result.Interpretation.Findings) == 0 {
		sb.WriteString("- none\n")
	}
	for _, f := range result.Interpretation.Findings {
		fmt.Fprintf(&sb, "- %s: %s\n", f.Title, f.Text)
	}

	sb.WriteString("\nAnomalies (already ordered by severity):\n")
	if len(result.AnomaliesNormalized) == 0 {
		sb.WriteString("- none\n")
	}
	for _, a := range result.AnomaliesNormalized {
		fmt.Fprintf(&sb, "- [%s] %s is %s at %g (warning %g, critical %g, unit %s)\n",
			a.Severity, a.Metric, a.Direction, a.Value,
			a.Threshold.Warning, a.Threshold.Critical, a.Unit)
	}

	if len(result.Interpretation.Caveats) > 0 {
		sb.WriteString("\nCaveats:\n")
		for _, c := range result.Interpretation.Caveats {
			fmt.Fprintf(&sb, "- %s\n", c)
		}
	}

	sb.WriteString("\nWrite two short paragraphs: what the data shows, then what deserves attention.")
	return sb.String()
}
