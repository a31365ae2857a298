// Package autorun drives unattended analysis cycles.
//
// A drop-directory watcher picks up newly written CSV files, debounced so
// partially written files settle first, and runs the full
// ingest-analyze-persist pipeline on each. An optional cron scheduler
// re-analyzes the whole drop directory on a fixed schedule. Every cycle is
// an ordinary all-or-nothing run; a failing file is logged and skipped, it
// never stops the daemon.
package autorun
