// Package logging assembles structured slog loggers and formatting helpers used
// across subgen.
//
// A run logs to two sinks at once. The event handler turns INFO, WARN and
// ERROR records into "log" events on the parent-facing stdout stream, while
// the diagnostic handler writes the full record (attributes included) to
// stderr in console or JSON form. The fan-out handler glues the two together
// so call sites log once through a plain *slog.Logger.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits data with the same shape and routing guarantees.
package logging
