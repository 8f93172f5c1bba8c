// Package logging assembles structured slog loggers and formatting helpers used
// across cdjexport.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, stamps every record with the export run identifier, and exposes
// context-aware helpers so pipeline code can tag log lines with stage and
// playlist names. Old per-run log files are pruned by CleanupOldLogs.
package logging
