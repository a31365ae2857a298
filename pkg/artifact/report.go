package artifact

import (
	"fmt"
	"sort"
	"strings"

	"datascope-hq/datascope/pkg/analysis"
	"datascope-hq/datascope/pkg/anomaly"
)

// RenderReport renders the deterministic Markdown report for a run. The
// report is a plain rendering of the result: anomalies appear in the exact
// order the normalizer produced, findings and caveats in interpreter order.
func RenderReport(result *analysis.Result) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Analysis Report\n\n")
	fmt.Fprintf(&sb, "- Run: `%s`\n", result.RunID)
	fmt.Fprintf(&sb, "- Policy: `%s` (version %s)\n", result.Policy, result.PolicyVersion)
	if result.Log != nil {
		fmt.Fprintf(&sb, "- Started: %s\n", result.Log.StartedAt.Format("2006-01-02 15:04:05 UTC"))
	}
	sb.WriteString("\n")

	writeExecutiveSummary(&sb, result)
	writeAnomalies(&sb, result.AnomaliesNormalized)
	writeFindings(&sb, result.Interpretation.Findings)
	writeCaveats(&sb, result.Interpretation.Caveats)
	writeResolvedRoles(&sb, result)

	return sb.String()
}

func writeExecutiveSummary(sb *strings.Builder, result *analysis.Result) {
	sb.WriteString("## Executive Summary\n\n")

	anomalies := result.AnomaliesNormalized
	switch len(anomalies) {
	case 0:
		sb.WriteString("No anomalies were detected.\n\n")
	case 1:
		fmt.Fprintf(sb, "1 anomaly was detected (max severity: %s).\n\n",
			anomaly.MaxSeverity(anomalies))
	default:
		fmt.Fprintf(sb, "%d anomalies were detected (max severity: %s).\n\n",
			len(anomalies), anomaly.MaxSeverity(anomalies))
	}

	for _, a := range anomalies {
		fmt.Fprintf(sb, "- **%s** `%s`: %s\n", a.Severity, a.Metric, a.Summary)
	}
	if len(anomalies) > 0 {
		sb.WriteString("\n")
	}
}

func writeAnomalies(sb *strings.Builder, anomalies []anomaly.Normalized) {
	if len(anomalies) == 0 {
		return
	}
	sb.WriteString("## Anomalies\n\n")
	sb.WriteString("| Severity | Metric | Direction | Value | Warning | Critical | Unit |\n")
	sb.WriteString("|----------|--------|-----------|-------|---------|----------|------|\n")
	for _, a := range anomalies {
		fmt.Fprintf(sb, "| %s | %s | %s | %g | %g | %g | %s |\n",
			a.Severity, a.Metric, a.Direction, a.Value,
			a.Threshold.Warning, a.Threshold.Critical, a.Unit)
	}
	sb.WriteString("\n")
}

func writeFindings(sb *strings.Builder, findings []analysis.Finding) {
	if len(findings) == 0 {
		return
	}
	sb.WriteString("## Findings\n\n")
	for _, f := range findings {
		fmt.Fprintf(sb, "- **%s**: %s\n", f.Title, f.Text)
	}
	sb.WriteString("\n")
}

func writeCaveats(sb *strings.Builder, caveats []string) {
	if len(caveats) == 0 {
		return
	}
	sb.WriteString("## Caveats\n\n")
	for _, c := range caveats {
		fmt.Fprintf(sb, "- %s\n", c)
	}
	sb.WriteString("\n")
}

func writeResolvedRoles(sb *strings.Builder, result *analysis.Result) {
	if result.Log == nil || len(result.Log.ResolvedRoles) == 0 {
		return
	}
	sb.WriteString("## Resolved Roles\n\n")
	for _, role := range sortedKeys(result.Log.ResolvedRoles) {
		fmt.Fprintf(sb, "- %s: `%s`\n", role, result.Log.ResolvedRoles[role])
	}
	sb.WriteString("\n")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
