// Package runner drives one analysis run end to end: policy resolution, role
// validation, query execution, metric collection, rule evaluation,
// interpretation, anomaly normalization, and contract validation.
//
// A run is all-or-nothing. Every stage transition is recorded in the run
// context; any failure moves the run to the failed state and produces no
// result. There is no partial success: a run that validated its anomaly
// envelope yields a complete Result, anything else yields an error.
//
// The runner owns all side effects (database access, the clock, run ids) so
// that policies, interpreters, and the normalizer stay pure.
package runner
