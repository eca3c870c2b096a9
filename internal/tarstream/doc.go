// Package tarstream provides sequential, memory-bounded access to tar and
// tar.gz containers, including archives nested inside another archive's
// entries. Members are surfaced as lazy byte streams; nothing is extracted
// to disk and no member is buffered unless the caller reads it.
package tarstream
