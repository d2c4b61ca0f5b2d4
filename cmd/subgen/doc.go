// Package main hosts the subgen CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, then hands off to the
// internal packages: run drives a transcription through internal/pipeline,
// probe renders the accelerator and dependency report, history reads the run
// ledger, and config scaffolds or prints the TOML configuration.
//
// stdout is reserved for the JSON-lines event stream during run; everything a
// human reads goes to stderr.
package main
