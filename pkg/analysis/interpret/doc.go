// Package interpret turns collected metric rows into structured findings.
//
// Interpreters are pure functions over the metric-row sequence and the
// frozen run context: no I/O, no randomness, no clock. Identical inputs
// produce byte-identical interpretations. Every finding is evidence-bound -
// it references the metric-row keys that support it - and severity is never
// assigned here: severity belongs to policy threshold rules. An interpreter
// that finds nothing says nothing; there is no filler prose.
//
// Caveats restate the run's recorded warnings (coverage suppressions, role
// inference gaps) so a reader of the interpretation alone sees them.
package interpret
