// Package events writes the machine-readable event stream a parent process
// consumes on stdout.
//
// Every event is a single JSON object on its own line, UTF-8 encoded without
// HTML escaping, and flushed as soon as it is written. Three event types
// exist: "log" (human-readable status lines), "progress" (stage label plus a
// fraction in [0,1]), and "result" (the terminal outcome of a run). Nothing
// else may be written to the stream; diagnostics belong on stderr.
package events
