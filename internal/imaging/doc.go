// Package imaging decodes, conditionally resizes, and persists images for
// the ingest pipeline. The resize contract is shorter-side scaling with
// aspect ratio preserved; images already at or below the target pass through
// byte-identical to avoid recompression loss.
package imaging
