// Package cli provides shared helpers for the datascope command line:
// output formatting, typed command errors, and signal-aware contexts for
// long-running commands.
package cli
