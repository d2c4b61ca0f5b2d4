// Package pipeline orchestrates one transcription run: probe the accelerator,
// pick an execution plan, load the model, decode, and write subtitles.
//
// Two retry policies live here and they are deliberately different:
//
//   - Loader falls back from the accelerated plan to CPU on any load
//     failure, because a model that will not load on the GPU rarely says why
//     in a machine-readable way.
//   - Decoder retries on CPU only when the failure text names an accelerator
//     fault and only once; other decode failures are assumed to be about the
//     input and would fail again on CPU.
//
// Runner ties the stages together, emits the fixed progress checkpoints, and
// guarantees exactly one terminal result event per run.
package pipeline
