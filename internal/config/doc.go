// Package config loads, normalizes, and validates subgen configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SUBGEN_ENGINE_COMMAND. The Config type centralizes every knob a run needs:
// how to launch the inference worker, the decode parameters sent with each
// request, diagnostic logging, and the run history ledger.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, bounded timeouts, and clear validation errors.
package config
