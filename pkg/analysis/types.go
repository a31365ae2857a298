package analysis

import (
	"time"

	"datascope-hq/datascope/pkg/anomaly"
)

// MetricRow is one computed metric: a (section, key, value) triple. Rows are
// produced exactly once per run by the runner and are immutable thereafter.
// Values are strings by contract; consumers parse numbers as needed.
type MetricRow struct {
	Section string `json:"section"`
	Key     string `json:"key"`
	Value   string `json:"value"`
}

// State identifies a stage of the runner's state machine. The terminal
// states are StateSucceeded and StateFailed.
type State string

const (
	StateResolved         State = "resolved"
	StateRolesValidated   State = "roles_validated"
	StateQueryExecuted    State = "query_executed"
	StateMetricsCollected State = "metrics_collected"
	StateRulesEvaluated   State = "rules_evaluated"
	StateInterpreted      State = "interpreted"
	StateNormalized       State = "normalized"
	StateValidated        State = "validated"
	StateSucceeded        State = "succeeded"
	StateFailed           State = "failed"
)

// StageTransition records the runner entering a state.
type StageTransition struct {
	State State     `json:"state"`
	At    time.Time `json:"at"`
}

// RunContext is the analysis log for one run: policy identity, the exact
// query text executed (persisted verbatim for replay), non-fatal warnings
// such as coverage-guard suppressions, and execution metadata. It is built
// incrementally by the runner and frozen before being passed to the
// interpreter; writes after freezing are discarded.
type RunContext struct {
	RunID         string            `json:"run_id"`
	PolicyName    string            `json:"policy"`
	PolicyVersion string            `json:"policy_version"`
	StartedAt     time.Time         `json:"started_at"`
	Queries       []string          `json:"queries"`
	Warnings      []string          `json:"warnings"`
	ResolvedRoles map[string]string `json:"resolved_roles,omitempty"`
	Selection     *SelectionLog     `json:"policy_selection,omitempty"`
	Stages        []StageTransition `json:"stages,omitempty"`

	frozen bool
}

// SelectionLog records how automatic policy selection scored each candidate.
type SelectionLog struct {
	Selected   string               `json:"selected"`
	Candidates []SelectionCandidate `json:"candidates"`
}

// SelectionCandidate is one policy's score during automatic selection.
type SelectionCandidate struct {
	Name          string            `json:"name"`
	ResolvedRoles map[string]string `json:"resolved_roles"`
	MissingRoles  []string          `json:"missing_required_roles"`
	Eligible      bool              `json:"eligible"`
	Score         int               `json:"score"`
}

// AddQuery records executed query text. The text is stored unmodified; it is
// the replay artifact other components depend on.
func (rc *RunContext) AddQuery(queryText string) {
	if rc.frozen {
		return
	}
	rc.Queries = append(rc.Queries, queryText)
}

// AddWarning records a non-fatal warning, such as a coverage-guard
// suppression. Warnings do not affect run success.
func (rc *RunContext) AddWarning(warning string) {
	if rc.frozen {
		return
	}
	rc.Warnings = append(rc.Warnings, warning)
}

// AddStage records the runner entering a state. Stage transitions are
// runner-owned execution metadata, so they keep recording after Freeze: the
// freeze protects what interpreters consume (queries and warnings), not the
// runner's own trace.
func (rc *RunContext) AddStage(state State, at time.Time) {
	rc.Stages = append(rc.Stages, StageTransition{State: state, At: at})
}

// Freeze marks the analytical content immutable. The runner freezes it after
// rule evaluation, before the interpreter sees it.
func (rc *RunContext) Freeze() {
	rc.frozen = true
}

// Frozen reports whether the context has been frozen.
func (rc *RunContext) Frozen() bool {
	return rc.frozen
}

// Finding is an interpreter-produced, evidence-bound statement. Every
// finding references the metric-row keys that support it.
type Finding struct {
	Severity     anomaly.Severity `json:"severity"`
	Title        string           `json:"title"`
	Text         string           `json:"text"`
	EvidenceKeys []string         `json:"evidence_keys"`
}

// Interpretation is the interpreter's structured output: ordered findings
// plus ordered caveats. Both sequences may be empty; the interpreter never
// speculates beyond what metric rows and logged warnings support.
type Interpretation struct {
	Findings []Finding `json:"findings"`
	Caveats  []string  `json:"caveats"`
}

// Result is the final payload of a successful run. A failed run produces no
// Result at all; there is no notion of a degraded or partial success.
//
// AnomaliesNormalized is always present, possibly empty, and carries the
// fixed total order (severity rank descending, metric ascending, id
// ascending). It must never be re-sorted downstream.
type Result struct {
	RunID               string              `json:"run_id"`
	Policy              string              `json:"policy"`
	PolicyVersion       string              `json:"policy_version"`
	Metrics             []MetricRow         `json:"metrics"`
	Log                 *RunContext         `json:"analysis_log"`
	Interpretation      Interpretation      `json:"interpretation"`
	AnomaliesNormalized []anomaly.Normalized `json:"anomalies_normalized"`
}
