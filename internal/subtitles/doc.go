// Package subtitles writes SubRip files from a transcription cue stream.
//
// The Emitter consumes the stream exactly once, writing and flushing each
// record as it arrives so a reader tailing the file sees cues promptly. Cue
// sequence numbers are assigned by the emitter in arrival order; the stream's
// own indices are not trusted. The output file is guarded by an advisory
// lock on "<output>.lock" for the duration of the write.
package subtitles
