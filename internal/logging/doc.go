// Package logging assembles structured slog loggers and formatting helpers used
// across the resolver, catalog adapters and CLI.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so resolver code can tag log
// lines with the video being processed, the current stage and a correlation
// ID. Daily log files under the configured log directory receive JSON copies
// of every record and are pruned by CleanupOldLogs. A no-op logger is
// available for tests and wiring code that cannot fail.
package logging
