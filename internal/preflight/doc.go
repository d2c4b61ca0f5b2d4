// Package preflight provides readiness checks for the filesystem paths and
// executables a transcription run depends on.
//
// These checks run in two contexts:
//   - The run pipeline checks the input file and output directory before
//     loading a model, so a doomed run fails in milliseconds.
//   - The CLI "subgen probe" command uses CheckSystemDeps to display
//     dependency status alongside the accelerator report.
package preflight
