// Package catalog records ingest runs in a local SQLite database: one row
// per run with its final counters, a capped sample of per-file failures,
// and the label → token mapping the run derived. The catalog is derived
// data; deleting the database loses history but nothing the pipeline needs.
package catalog
