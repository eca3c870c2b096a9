// Package config loads, normalizes, and validates imageset configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// IMAGESET_OUTPUT_DIR. The Config type centralizes every knob the CLI needs,
// allowing output/input directories and imaging parameters to be discovered
// in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical resizer names, and clear validation errors.
package config
