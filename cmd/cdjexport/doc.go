// Package main hosts the cdjexport CLI entrypoint and command graph.
//
// The Cobra-based command tree resolves configuration, opens the rekordbox
// library, and drives exports, playlist listings, name previews, and the USB
// watcher. Logs go to stderr and the per-run log file; reports and tables go
// to stdout so they can be piped.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
