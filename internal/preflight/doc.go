// Package preflight provides readiness checks for the filesystem resources
// an ingest run depends on.
//
// The ingest command runs RunAll before any parallel work starts: a full
// disk or an unreadable input directory should fail in seconds, not hours
// into an extraction. The individual check functions also back the status
// output so failures render as a table rather than a bare error.
package preflight
