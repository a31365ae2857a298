// Package anomaly defines the canonical anomaly schema shared by every
// policy family, together with the normalizer that converts raw rule-evaluation
// candidates into it and the contract validator that gates results before they
// reach any artifact writer.
//
// # Normalization
//
// Policies emit Candidate values while evaluating their threshold rules.
// Candidates carry no identifier and no canonical shape. The Normalizer
// assigns each candidate a stable identifier, fills the unit from the
// originating metric spec, composes a short human-readable summary, and
// orders the result by the fixed sort contract:
//
//  1. severity rank descending (critical > warning > info)
//  2. metric name ascending
//  3. id ascending
//
// The normalized sequence is emitted even when empty. Omitting it, or making
// it conditional on anomaly count, is a contract violation.
//
// # Identifier scheme
//
// Identifiers must reproduce across process restarts for identical inputs.
// Candidates are canonically ordered by (metric, direction); the identifier
// is the first 16 hex characters of SHA-256 over
// "policy|metric|direction|seq", where seq is the candidate's position in
// that ordering. Any change to this scheme invalidates externally pinned
// expected outputs and requires a version bump of the owning policy.
//
// # Contract validation
//
// The ContractValidator checks the serialized result envelope twice: once
// with typed field checks and once against an embedded JSON Schema. Both
// must pass before the payload may be handed to artifact-producing
// collaborators.
package anomaly
