// Package config loads, normalizes, and validates cdjexport configuration data.
//
// It supplies repository defaults (including rekordbox's own master.db
// location on macOS and Windows), expands user paths, reads TOML files, and
// honours the CDJEXPORT_DATABASE environment fallback. The Device section is
// the single source of truth for the player's filename rules; callers turn it
// into naming.Rules instead of hard-coding charset or length limits.
package config
