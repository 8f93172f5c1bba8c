// Package preflight provides readiness checks for the library file and the
// filesystem paths an export touches.
//
// These checks run in two contexts:
//   - The exporter calls CheckDirectoryAccess and CheckFreeSpace on the
//     destination before the first copy, so a read-only or full stick fails
//     the run without leaving half a playlist behind.
//   - The CLI "cdjexport config validate" command uses RunAll to display the
//     state of the configured paths.
package preflight
