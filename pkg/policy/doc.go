// Package policy defines the policy contract of the analysis engine and the
// built-in policy families.
//
// A policy is an immutable, versioned declaration of required and optional
// data roles, metric specifications, and severity-threshold rules. It
// generates query text for a given dataset schema but never executes it, and
// it never invents thresholds outside its own declared rule table. That
// separation keeps the interpreter generic across policy families.
//
// # Declarative threshold rules
//
// Each policy's anomaly logic is data, not code: an ordered list of
// ThresholdRule values, each holding ordered clauses of
// (comparator, threshold, severity, direction) plus a coverage guard.
// A single generic routine, EvaluateThresholdRules, consumes the table for
// every policy. Adding a policy adds data, not evaluation code paths.
//
// # Coverage guards
//
// A rule with MinSamples > 0 is suppressed - regardless of how extreme the
// observed value is - when its observation carries fewer samples than the
// guard requires. Suppression records a warning in the run context and is
// not an error.
//
// # Versioning
//
// Policies are registered once at process initialization under their exact
// name and never mutated; a behavior change ships as a new version
// registered alongside (orders_v1, orders_v2, ...). BaseName derives the
// family name for display and introspection only, never for resolution.
package policy
