package anomaly

// Severity classifies how serious an anomaly is.
type Severity string

const (
	// SeverityInfo marks observations that are notable but not actionable.
	SeverityInfo Severity = "info"

	// SeverityWarning marks anomalies that warrant attention.
	SeverityWarning Severity = "warning"

	// SeverityCritical marks anomalies that demand immediate attention.
	SeverityCritical Severity = "critical"
)

// Rank returns the total-order rank of a severity. Higher is more severe.
// Unknown severities rank below info.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// Valid reports whether the severity is one of the three known values.
func (s Severity) Valid() bool {
	return s == SeverityInfo || s == SeverityWarning || s == SeverityCritical
}

// Direction indicates which side of a threshold the observed value crossed.
type Direction string

const (
	// DirectionHigh means the observed value exceeded an upper threshold.
	DirectionHigh Direction = "high"

	// DirectionLow means the observed value fell below a lower threshold.
	DirectionLow Direction = "low"
)

// Valid reports whether the direction is a known value.
func (d Direction) Valid() bool {
	return d == DirectionHigh || d == DirectionLow
}

// Threshold carries the warning and critical bounds of the rule that
// produced an anomaly. Both values are always present in the wire format.
type Threshold struct {
	Warning  float64 `json:"warning"`
	Critical float64 `json:"critical"`
}

// Candidate is the raw output of policy rule evaluation. It has not yet been
// assigned an identifier or the canonical shape; the Normalizer does that.
type Candidate struct {
	// Metric is the rule's metric name (e.g. "top_customer_revenue_share").
	Metric string

	// Direction is the side of the threshold that was crossed.
	Direction Direction

	// Severity is the severity assigned by the matching rule clause.
	Severity Severity

	// Value is the observed metric value.
	Value float64

	// Threshold carries the rule's warning/critical bounds for Direction.
	Threshold Threshold

	// EvidenceKeys reference the metric-row keys that support the anomaly.
	EvidenceKeys []string
}

// Normalized is the canonical, fully-typed representation of a detected
// anomaly. Instances are produced once per run, append-only, and never
// mutated after creation. The field set and its JSON names are the wire
// format other components depend on; changing either requires a version
// bump to the owning policy.
type Normalized struct {
	ID           string    `json:"id"`
	Policy       string    `json:"policy"`
	Metric       string    `json:"metric"`
	Severity     Severity  `json:"severity"`
	Direction    Direction `json:"direction"`
	Value        float64   `json:"value"`
	Threshold    Threshold `json:"threshold"`
	Unit         string    `json:"unit"`
	EvidenceKeys []string  `json:"evidence_keys"`
	Summary      string    `json:"summary"`
}

// MaxSeverity returns the highest severity present in the sequence, or
// SeverityInfo when the sequence is empty.
func MaxSeverity(anomalies []Normalized) Severity {
	max := SeverityInfo
	for _, a := range anomalies {
		if a.Severity.Rank() > max.Rank() {
			max = a.Severity
		}
	}
	return max
}
