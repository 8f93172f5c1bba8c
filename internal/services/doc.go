// Package services defines the error markers and context helpers shared by the
// library readers, the naming layer and the exporter.
//
// Failures are tagged with one of the exported sentinel errors through Wrap so
// the CLI can tell run-aborting conditions (missing playlist, unreadable
// database, unwritable destination) from per-file problems that only belong
// in the export report. Context helpers stamp run identifiers and stage names
// that the logging package turns into structured fields.
package services
