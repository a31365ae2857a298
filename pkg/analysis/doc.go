// Package analysis defines the run-scoped data model shared by the policy
// execution engine: metric rows, the run context (analysis log), findings,
// interpretations, and the final result envelope.
//
// These four structures - the metric-row sequence, the frozen run context,
// the interpretation, and the normalized-anomaly sequence - are the complete
// contract the engine exposes to collaborators. Downstream artifact writers
// and report builders treat them as opaque structured records and must not
// recompute or reorder them.
//
// Subpackages hold the moving parts: runner drives one analysis run through
// its state machine, and interpret turns metric rows into findings.
package analysis
