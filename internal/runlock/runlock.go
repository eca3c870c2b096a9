// Package runlock serializes ingest runs against an output directory.
// Two concurrent runs over the same tree would race each other's
// skip-if-exists checks and interleave manifests; the lock turns that
// into an immediate, explanatory failure instead.
package runlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const lockFileName = ".imageset.lock"

// Lock guards one output directory for the duration of a run.
type Lock struct {
	path string
	lock *flock.Flock
}

// New prepares a lock rooted at the output directory. The directory is
// created if needed so the lock file has somewhere to live.
func New(outputDir string) (*Lock, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(outputDir, lockFileName)
	return &Lock{path: path, lock: flock.New(path)}, nil
}

// Acquire takes the lock without blocking. A held lock means another run
// is writing to the same output directory.
func (l *Lock) Acquire() error {
	ok, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another imageset run is writing to this output directory")
	}
	return nil
}

// Release drops the lock.
func (l *Lock) Release() error {
	return l.lock.Unlock()
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}
