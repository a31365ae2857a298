// Package dataset provides the run-scoped relational store that analysis
// policies execute against.
//
// A dataset is ingested once, from a CSV file, into a single SQLite table
// named "data". After ingestion the session is read-only for the run's
// lifetime: the engine only inspects the schema and executes the query text
// a policy generated. Each run binds its own session; no session state is
// shared across concurrent runs.
//
// The store uses the pure-Go modernc.org/sqlite driver, so no cgo toolchain
// is needed to build or test.
package dataset
