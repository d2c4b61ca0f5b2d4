// Package engine defines the contract between subgen and the speech-to-text
// inference engine.
//
// The engine is opaque: it loads a model against an execution plan, accepts a
// DecodeRequest, and answers with a Session whose metadata (detected language,
// confidence, total duration) is known before any cue is pulled. Cues arrive
// through a CueStream, a pull-driven lazy sequence with three contract notes:
//
//   - it is single-pass and cannot be restarted; retrying a decode requires a
//     fresh Session, which in turn requires a fresh model load;
//   - each Next call may block for an unbounded time while audio is decoded;
//   - there is no mid-stream cancellation short of tearing down the model.
//
// The worker sub-package implements this contract against an external worker
// process.
package engine
