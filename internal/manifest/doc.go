// Package manifest writes the corpus manifests: per-set CSV files mapping
// image paths to label files, the generated label files themselves, and the
// token → label map of a run.
package manifest
