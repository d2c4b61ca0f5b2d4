// Package progress maps run milestones and an open-ended cue stream onto a
// bounded completion fraction.
//
// Reporter emits fixed checkpoints; CueTracker converts cue end offsets into
// the transcribing band [0.25, 0.95] and coalesces updates so a long file
// does not flood the event stream.
package progress
