// Package export copies a resolved playlist onto a USB stick in the layout
// the CDJ-350 reads.
//
// Export happens in three steps. Planner.Plan names every track and maps it
// to a destination path without touching the disk. Exporter.Prepare creates
// PIONEER/, PIONEER/CONTENTS/ and the music directory, then checks that the
// target is writable and has room for the files that will actually be
// copied; any failure here is fatal and nothing has been copied yet.
// Exporter.Run copies in playlist order through a .part file, skipping
// destinations that already exist unless overwriting is enabled. Per-file
// failures are collected in the Report rather than aborting the run.
//
// Service ties the library reader, naming and the exporter together behind a
// single-instance lock and is what the CLI and the USB watcher call.
package export
