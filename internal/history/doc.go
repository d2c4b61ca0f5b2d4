// Package history keeps a SQLite ledger of transcription runs.
//
// Every run, successful or not, is recorded once with its execution plan,
// whether a fallback was taken, and the terminal outcome, so "subgen history"
// can show how often the accelerator path actually held up. The ledger is
// advisory: a run never fails because it could not be recorded.
//
// Schema changes bump the version in schema.go; users delete the database to
// adopt the new schema.
package history
