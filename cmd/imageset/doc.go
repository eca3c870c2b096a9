// Package main hosts the imageset CLI entrypoint and command graph.
//
// The Cobra-based command tree wires configuration resolution, preflight
// checks, the ingest pipelines, manifest output, and the run catalog into
// user-facing commands. Keep this package lean: add new functionality by
// extending the internal packages first, then surface it through dedicated
// commands or flags here.
package main
