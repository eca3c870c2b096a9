// Package ingest turns labeled image sources into a normalized corpus plus
// (path, label) manifest pairs, partitioned into training and validation
// sets.
//
// Four source formats are supported, each behind the Ingester interface:
// the nested-archive layout (ArchivePipeline), a labeled directory tree
// (DirectoryPipeline), pre-built gzip CSV file lists (CSVPipeline), and the
// CIFAR-10 binary batches (CIFAR10Pipeline).
//
// The archive pipeline is the parallel core: top-level members fan out over
// a fixed-size worker pool, each worker streaming its member's files out of
// the container, transforming them, and emitting pairs. Results arrive in
// arbitrary completion order; the aggregate manifest is a multiset, with
// only the training list shuffled (deterministically) afterwards.
package ingest
