package policy

import (
	"datascope-hq/datascope/pkg/analysis"
	"datascope-hq/datascope/pkg/anomaly"
	"datascope-hq/datascope/pkg/dataset"
)

// Policy is the contract every analysis policy implements. A policy declares
// which data roles it needs, generates query text for a concrete schema, and
// evaluates its own declared threshold rules against collected metrics.
//
// Implementations must be pure: no file, network, or database access, and no
// randomness. The runner owns all side effects. A registered policy is never
// mutated; behavior changes ship as a new version registered under a new
// name.
type Policy interface {
	// Name returns the unique registered name, including the version
	// suffix (for example "orders_v1").
	Name() string

	// Version is the semantic version of this policy's behavior.
	Version() string

	// Description is a one-paragraph human summary for introspection.
	Description() string

	// RequiredRoles lists the data roles the policy cannot run without.
	RequiredRoles() []string

	// OptionalRoles lists roles that enrich the analysis when present.
	OptionalRoles() []string

	// ResolveRoles maps the policy's roles onto concrete schema columns.
	// Caller-supplied hints win over synonym matching. Roles that cannot
	// be resolved are absent from the returned map.
	ResolveRoles(schema dataset.Schema, hints dataset.Roles) map[string]string

	// CheckRoles returns a MissingRoleError naming the first unresolvable
	// required role, or nil when all required roles resolve.
	CheckRoles(schema dataset.Schema, hints dataset.Roles) error

	// GenerateQuery builds the deterministic query plan for a schema. It
	// fails with a MissingRoleError when a required role is unresolved.
	// Identical schema and hints always produce byte-identical query text.
	GenerateQuery(schema dataset.Schema, hints dataset.Roles) (Plan, error)

	// MetricSpecs declares the anomaly metrics this policy can emit and
	// their units. Policies that emit no anomalies return an empty slice.
	MetricSpecs() []MetricSpec

	// ThresholdRules returns the policy's declared rule table. The table
	// is the complete severity logic; nothing outside it assigns severity.
	ThresholdRules() []ThresholdRule

	// EvaluateRules derives observations from collected metric rows and
	// evaluates the rule table. Coverage-guard suppressions are recorded
	// as warnings on rc. The returned candidates are unordered; the
	// normalizer owns ordering.
	EvaluateRules(rows []analysis.MetricRow, rc *analysis.RunContext) []anomaly.Candidate
}

// Plan is a generated query plan: the ordered queries to execute plus any
// advisory warnings produced during planning (for example, a baseline policy
// noting that no time column was found).
type Plan struct {
	Queries  []QuerySpec
	Warnings []string
}

// QueryText returns the plan's queries joined into one replayable script,
// one statement per line, exactly as executed.
func (p Plan) QueryText() string {
	text := ""
	for i, q := range p.Queries {
		if i > 0 {
			text += "\n"
		}
		text += q.SQL
	}
	return text
}

// QuerySpec is one query of a plan and how its result set becomes metric
// rows.
//
// When GroupLabels is empty the runner emits positional keys
// ("row<N>:<column>") for every result column. When GroupLabels is set the
// runner emits grouped keys ("label=value|...:measure"): the first
// len(GroupLabels) result columns are the group labels, the next
// len(MeasureNames) are the measures.
type QuerySpec struct {
	Section      string
	SQL          string
	GroupLabels  []string
	MeasureNames []string
}

// MetricSpec declares one anomaly metric a policy can emit and its unit.
// Units come from the fixed vocabulary: share, currency, pct_change, ratio.
type MetricSpec struct {
	Metric string
	Unit   string
}

// Units collapses metric specs into the metric -> unit map the anomaly
// normalizer consumes.
func Units(specs []MetricSpec) map[string]string {
	units := make(map[string]string, len(specs))
	for _, s := range specs {
		units[s.Metric] = s.Unit
	}
	return units
}

// Description is the introspection record returned for a registered policy.
type Description struct {
	Name            string   `json:"name"`
	Version         string   `json:"version"`
	Summary         string   `json:"summary"`
	RequiredRoles   []string `json:"required_roles"`
	OptionalRoles   []string `json:"optional_roles"`
	ExpectedMetrics []string `json:"expected_metrics"`
	Rules           []string `json:"rules"`
}

// Describe assembles the introspection record for a policy from its declared
// contract. The rule lines render each clause as
// "<metric> <comparator> <threshold> -> <severity> (<direction>)".
func Describe(p Policy) Description {
	d := Description{
		Name:          p.Name(),
		Version:       p.Version(),
		Summary:       p.Description(),
		RequiredRoles: append([]string{}, p.RequiredRoles()...),
		OptionalRoles: append([]string{}, p.OptionalRoles()...),
	}
	for _, s := range p.MetricSpecs() {
		d.ExpectedMetrics = append(d.ExpectedMetrics, s.Metric)
	}
	for _, r := range p.ThresholdRules() {
		d.Rules = append(d.Rules, r.describe()...)
	}
	return d
}
