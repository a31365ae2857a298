package interpret

import (
	"fmt"
	"strings"

	"datascope-hq/datascope/pkg/analysis"
	"datascope-hq/datascope/pkg/anomaly"
)

// GenericInterpreter reads the baseline policy's grouped aggregates. It has
// no domain vocabulary: it reports dataset size, time coverage, and peak
// periods, all at info severity.
type GenericInterpreter struct{}

func (i *GenericInterpreter) PolicyName() string { return "generic_tabular" }

func (i *GenericInterpreter) Interpret(rows []analysis.MetricRow, rc *analysis.RunContext) analysis.Interpretation {
	sections := analysis.ParseSections(rows)
	out := analysis.Interpretation{
		Findings: []analysis.Finding{},
		Caveats:  caveatsFrom(rc),
	}

	if v, ok := sections.FirstValue("overall", "row_count"); ok {
		out.Findings = append(out.Findings, analysis.Finding{
			Severity:     anomaly.SeverityInfo,
			Title:        "Row count",
			Text:         fmt.Sprintf("Row count: %s.", v),
			EvidenceKeys: []string{"overall.row_count"},
		})
	}

	counts := groupedPoints(rows, "time_summary", "n")
	if len(counts) >= 2 {
		first, last := counts[0], counts[len(counts)-1]
		out.Findings = append(out.Findings, analysis.Finding{
			Severity: anomaly.SeverityInfo,
			Title:    "Time coverage",
			Text:     fmt.Sprintf("Data spans %d periods (%s to %s).", len(counts), periodOf(first.label), periodOf(last.label)),
			EvidenceKeys: []string{
				"time_summary." + first.label + ":n",
				"time_summary." + last.label + ":n",
			},
		})
	}

	for _, measureName := range []string{"sum_sales", "sum_revenue", "sum_amount"} {
		points := groupedPoints(rows, "time_summary", measureName)
		if len(points) < 2 {
			continue
		}
		peak := points[0]
		for _, p := range points[1:] {
			if p.value > peak.value {
				peak = p
			}
		}
		out.Findings = append(out.Findings, analysis.Finding{
			Severity:     anomaly.SeverityInfo,
			Title:        "Peak period",
			Text:         fmt.Sprintf("%s peaks in %s at %g.", measureName, periodOf(peak.label), peak.value),
			EvidenceKeys: []string{"time_summary." + peak.label + ":" + measureName},
		})
		break
	}

	if leader, measureName, ok := leadingGroup(rows, "categorical_summary"); ok {
		out.Findings = append(out.Findings, analysis.Finding{
			Severity:     anomaly.SeverityInfo,
			Title:        "Leading group",
			Text:         fmt.Sprintf("Largest group by %s: %s (%g).", measureName, periodOf(leader.label), leader.value),
			EvidenceKeys: []string{"categorical_summary." + leader.label + ":" + measureName},
		})
	}

	return out
}

// point is one grouped measurement: the full group key ("year=2016") and the
// parsed measure value.
type point struct {
	label string
	value float64
}

// groupedPoints extracts one measure's series from a grouped section,
// preserving the emission order of the metric rows.
func groupedPoints(rows []analysis.MetricRow, section, measureName string) []point {
	var out []point
	suffix := ":" + measureName
	for _, r := range rows {
		if r.Section != section || !strings.HasSuffix(r.Key, suffix) {
			continue
		}
		label := strings.TrimSuffix(r.Key, suffix)
		if !strings.Contains(label, "=") {
			continue
		}
		v, ok := analysis.ToNumber(r.Value)
		if !ok {
			continue
		}
		out = append(out, point{label: label, value: v})
	}
	return out
}

// leadingGroup returns the first row of a grouped section under its ranking
// measure, preferring revenue-like sums over the row count.
func leadingGroup(rows []analysis.MetricRow, section string) (point, string, bool) {
	for _, measureName := range []string{"sum_sales", "sum_revenue", "sum_amount", "n"} {
		if points := groupedPoints(rows, section, measureName); len(points) > 0 {
			return points[0], measureName, true
		}
	}
	return point{}, "", false
}

// periodOf strips the label prefix from a group key: "year=2016" -> "2016".
func periodOf(groupKey string) string {
	if _, v, ok := strings.Cut(groupKey, "="); ok {
		return v
	}
	return groupKey
}
