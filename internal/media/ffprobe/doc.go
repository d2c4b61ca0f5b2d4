// Package ffprobe reads container metadata for transcription inputs.
//
// The transcription worker normally reports the media duration itself; this
// package is the fallback for streams that carry no duration metadata in the
// decoder's view, so progress can still be mapped onto the timeline.
//
// Primary entry points:
//   - Inspect: executes ffprobe and returns the parsed Result
//   - Prober: a configured binary with a DurationSeconds helper
package ffprobe
