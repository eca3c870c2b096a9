// Package services defines shared utilities consumed by the ingest pipeline
// and external-tool integrations.
//
// Key responsibilities:
//   - Structured error markers plus the Wrap helper that classify failures as
//     fatal (abort the run) or isolated (recorded against one work item).
//   - Thin abstractions that make command execution against external tools
//     testable (see the magick subpackage).
//
// Use these helpers when wiring new ingest logic so error handling stays
// uniform across the pipeline.
package services
