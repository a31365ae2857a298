package interpret

import (
	"datascope-hq/datascope/pkg/analysis"
	"datascope-hq/datascope/pkg/policy"
)

// Interpreter produces a structured interpretation from metric rows and the
// frozen run context. Implementations must be pure and deterministic.
type Interpreter interface {
	// PolicyName is the exact policy name this interpreter serves.
	PolicyName() string

	// Interpret builds findings and caveats. The run context is frozen;
	// implementations read it but never write to it.
	Interpret(rows []analysis.MetricRow, rc *analysis.RunContext) analysis.Interpretation
}

// ForPolicy returns the interpreter for a policy name, falling back to the
// generic interpreter for policies without a dedicated one. Matching uses
// the policy family, so orders_v2 would reuse the orders interpreter until
// it ships its own.
func ForPolicy(name string) Interpreter {
	switch policy.BaseName(name) {
	case "orders":
		return &OrdersInterpreter{}
	case "sales":
		return &SalesInterpreter{}
	default:
		return &GenericInterpreter{}
	}
}

// caveatsFrom copies the run's recorded warnings into interpretation
// caveats. The copy keeps the interpretation self-contained.
func caveatsFrom(rc *analysis.RunContext) []string {
	if rc == nil || len(rc.Warnings) == 0 {
		return nil
	}
	out := make([]string, len(rc.Warnings))
	copy(out, rc.Warnings)
	return out
}
