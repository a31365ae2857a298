package policy

import (
	"fmt"

	"datascope-hq/datascope/pkg/analysis"
	"datascope-hq/datascope/pkg/anomaly"
)

// Comparator names a threshold comparison. The vocabulary is closed: a value
// either meets an upper bound (gte) or a lower bound (lte).
type Comparator string

const (
	ComparatorGTE Comparator = "gte"
	ComparatorLTE Comparator = "lte"
)

// matches reports whether value satisfies the comparison against threshold.
func (c Comparator) matches(value, threshold float64) bool {
	switch c {
	case ComparatorGTE:
		return value >= threshold
	case ComparatorLTE:
		return value <= threshold
	default:
		return false
	}
}

func (c Comparator) symbol() string {
	if c == ComparatorLTE {
		return "<="
	}
	return ">="
}

// RuleClause is one (comparator, threshold, severity, direction) entry of a
// threshold rule. Clauses are evaluated in declaration order and the first
// match wins, so more severe clauses must be declared first.
type RuleClause struct {
	Comparator Comparator
	Threshold  float64
	Severity   anomaly.Severity
	Direction  anomaly.Direction
}

// ThresholdRule is the complete declared anomaly logic for one metric:
// ordered clauses plus an optional coverage guard. Rules are plain data; a
// single generic routine evaluates them for every policy.
type ThresholdRule struct {
	Metric       string
	EvidenceKeys []string

	// MinSamples suppresses the rule when the observation carries fewer
	// samples. Zero disables the guard.
	MinSamples float64

	Clauses []RuleClause
}

// bounds returns the declared warning and critical thresholds for one
// direction of the rule. A level with no declared clause falls back to the
// matched clause's own threshold.
func (r ThresholdRule) bounds(dir anomaly.Direction, matched RuleClause) anomaly.Threshold {
	t := anomaly.Threshold{Warning: matched.Threshold, Critical: matched.Threshold}
	for _, c := range r.Clauses {
		if c.Direction != dir {
			continue
		}
		switch c.Severity {
		case anomaly.SeverityWarning:
			t.Warning = c.Threshold
		case anomaly.SeverityCritical:
			t.Critical = c.Threshold
		}
	}
	return t
}

func (r ThresholdRule) describe() []string {
	lines := make([]string, 0, len(r.Clauses))
	for _, c := range r.Clauses {
		lines = append(lines, fmt.Sprintf("%s %s %g -> %s (%s)",
			r.Metric, c.Comparator.symbol(), c.Threshold, c.Severity, c.Direction))
	}
	if r.MinSamples > 0 {
		lines = append(lines, fmt.Sprintf("%s requires at least %g samples", r.Metric, r.MinSamples))
	}
	return lines
}

// Observation is one derived metric value offered to rule evaluation.
// SampleSize feeds the coverage guard. EvidenceKeys, when set, override the
// rule's declared evidence keys.
type Observation struct {
	Metric       string
	Value        float64
	SampleSize   float64
	EvidenceKeys []string
}

// EvaluateThresholdRules runs every rule against its observation and returns
// the anomaly candidates for matched clauses. Rules whose metric was not
// observed are skipped silently; rules suppressed by their coverage guard
// record a warning on rc. Candidates come back in rule declaration order;
// the normalizer owns the final ordering.
func EvaluateThresholdRules(policyName string, rules []ThresholdRule, observations []Observation, rc *analysis.RunContext) []anomaly.Candidate {
	byMetric := make(map[string]Observation, len(observations))
	for _, o := range observations {
		byMetric[o.Metric] = o
	}

	var candidates []anomaly.Candidate
	for _, rule := range rules {
		obs, ok := byMetric[rule.Metric]
		if !ok {
			continue
		}
		if rule.MinSamples > 0 && obs.SampleSize < rule.MinSamples {
			rc.AddWarning(fmt.Sprintf(
				"coverage guard: %s/%s suppressed, %g samples below minimum %g",
				policyName, rule.Metric, obs.SampleSize, rule.MinSamples))
			continue
		}

		for _, clause := range rule.Clauses {
			if !clause.Comparator.matches(obs.Value, clause.Threshold) {
				continue
			}
			evidence := rule.EvidenceKeys
			if len(obs.EvidenceKeys) > 0 {
				evidence = obs.EvidenceKeys
			}
			candidates = append(candidates, anomaly.Candidate{
				Metric:       rule.Metric,
				Direction:    clause.Direction,
				Severity:     clause.Severity,
				Value:        obs.Value,
				Threshold:    rule.bounds(clause.Direction, clause),
				EvidenceKeys: append([]string{}, evidence...),
			})
			break
		}
	}
	return candidates
}
