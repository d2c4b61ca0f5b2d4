// Package worker drives an external inference worker process over a
// line-delimited JSON protocol.
//
// Two sub-commands are used:
//
//	<command> [args...] probe
//	    Prints one JSON object describing the runtime and visible devices,
//	    then exits.
//
//	<command> [args...] serve --model PATH --device cuda|cpu --compute-type float16|int8
//	    Loads the model and prints {"event":"ready"} or
//	    {"event":"error","message":"..."}. Each request line written to stdin,
//	    {"op":"transcribe",...}, is answered by {"event":"info",...}, zero or
//	    more {"event":"segment",...} lines, and {"event":"done"}; or by a single
//	    {"event":"error",...}. Closing stdin asks the worker to exit.
//
// Stdout lines that do not start with '{' are ignored so that chatty
// libraries inside the worker cannot corrupt the protocol. Stderr is kept in
// a bounded tail buffer and attached to errors.
package worker
