package anomaly

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
)

// idLength is the number of hex characters kept from the SHA-256 digest.
// 16 characters (64 bits) is collision-safe for the handful of anomalies a
// single run can produce.
const idLength = 16

// Normalizer converts raw rule-evaluation candidates into the canonical,
// ordered anomaly schema for one policy. It is pure and in-memory: it never
// blocks and needs no cancellation support.
type Normalizer struct {
	policy string

	// units maps metric name -> unit, taken from the policy's metric specs.
	units map[string]string
}

// NewNormalizer creates a normalizer for the named policy. The units map is
// the policy's metric-spec unit table; metrics absent from it get an empty
// unit rather than an error, since the unit is descriptive metadata.
func NewNormalizer(policy string, units map[string]string) *Normalizer {
	return &Normalizer{policy: policy, units: units}
}

// Normalize converts candidates into the canonical ordered sequence.
//
// The returned slice is never nil: an empty candidate set normalizes to an
// empty, non-nil sequence so the anomaly key is always present downstream.
// Identical inputs yield field-for-field identical output, including ids.
func (n *Normalizer) Normalize(candidates []Candidate) []Normalized {
	out := make([]Normalized, 0, len(candidates))

	// Canonical candidate ordering for id assignment. Position in this
	// ordering is the seq component of the identifier, so the ordering must
	// not depend on anything outside the candidate set itself.
	ordered := make([]Candidate, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Metric != ordered[j].Metric {
			return ordered[i].Metric < ordered[j].Metric
		}
		return ordered[i].Direction < ordered[j].Direction
	})

	for seq, c := range ordered {
		evidence := make([]string, len(c.EvidenceKeys))
		copy(evidence, c.EvidenceKeys)

		out = append(out, Normalized{
			ID:           n.anomalyID(c, seq),
			Policy:       n.policy,
			Metric:       c.Metric,
			Severity:     c.Severity,
			Direction:    c.Direction,
			Value:        c.Value,
			Threshold:    c.Threshold,
			Unit:         n.units[c.Metric],
			EvidenceKeys: evidence,
			Summary:      summarize(c),
		})
	}

	Sort(out)
	return out
}

// anomalyID derives the stable identifier for a candidate at canonical
// position seq. See the package documentation for the scheme contract.
func (n *Normalizer) anomalyID(c Candidate, seq int) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%d", n.policy, c.Metric, c.Direction, seq)
	return hex.EncodeToString(h.Sum(nil))[:idLength]
}

// summarize composes the short human-readable summary from severity, metric
// name, observed value, and the threshold that was crossed.
func summarize(c Candidate) string {
	bound := c.Threshold.Warning
	if c.Severity == SeverityCritical {
		bound = c.Threshold.Critical
	}
	cmp := ">="
	if c.Direction == DirectionLow {
		cmp = "<="
	}
	return fmt.Sprintf("%s: %s is %.4g (%s %.4g)", c.Severity, c.Metric, c.Value, cmp, bound)
}

// Sort orders a normalized sequence by the fixed contract: severity rank
// descending, then metric name ascending, then id ascending. Ties beyond id
// are impossible once ids are unique within a run.
func Sort(anomalies []Normalized) {
	sort.SliceStable(anomalies, func(i, j int) bool {
		ri, rj := anomalies[i].Severity.Rank(), anomalies[j].Severity.Rank()
		if ri != rj {
			return ri > rj
		}
		if anomalies[i].Metric != anomalies[j].Metric {
			return anomalies[i].Metric < anomalies[j].Metric
		}
		return anomalies[i].ID < anomalies[j].ID
	})
}
