// Package logging builds the slog loggers used across imageset.
//
// Two handler formats are supported: a console handler that renders compact
// human-oriented lines with the component surfaced in brackets, and a JSON
// handler for machine consumption. Output can fan out to stderr and a log
// file under the configured log directory.
package logging
