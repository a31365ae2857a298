// Package logging builds the structured logger used across DataScope.
//
// Logging is built on log/slog. The package translates LoggingConfig into a
// handler (JSON or text, with optional source locations) and provides
// context helpers so run and dataset identifiers follow a run through every
// log line.
package logging
