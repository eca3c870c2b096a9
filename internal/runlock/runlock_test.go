package runlock_test

import (
	"os"
	"strings"
	"testing"

	"imageset/internal/runlock"
)

func TestAcquireAndRelease(t *testing.T) {
	dir := t.TempDir()

	lock, err := runlock.New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := lock.Acquire(); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if _, err := os.Stat(lock.Path()); err != nil {
		t.Fatalf("lock file missing: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
}

func TestSecondAcquireFails(t *testing.T) {
	dir := t.TempDir()

	first, err := runlock.New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := first.Acquire(); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer first.Release()

	second, err := runlock.New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	err = second.Acquire()
	if err == nil {
		t.Fatal("expected second acquire to fail")
	}
	if !strings.Contains(err.Error(), "another imageset run") {
		t.Fatalf("error = %v", err)
	}
}

func TestReacquireAfterRelease(t *testing.T) {
	dir := t.TempDir()

	lock, err := runlock.New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := lock.Acquire(); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}

	again, err := runlock.New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := again.Acquire(); err != nil {
		t.Fatalf("reacquire: %v", err)
	}
	_ = again.Release()
}

func TestNewCreatesOutputDir(t *testing.T) {
	dir := t.TempDir() + "/nested/out"

	lock, err := runlock.New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := lock.Acquire(); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	_ = lock.Release()
}
