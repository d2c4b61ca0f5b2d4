// Package deps checks that the external executables a run depends on (the
// transcription worker, ffprobe) can be found before any work starts.
package deps
