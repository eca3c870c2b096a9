package preflight_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"imageset/internal/preflight"
	"imageset/internal/testsupport"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()

	result := preflight.CheckDirectoryAccess("Output directory", dir)
	if !result.Passed {
		t.Fatalf("expected pass for %s: %s", dir, result.Detail)
	}

	result = preflight.CheckDirectoryAccess("Output directory", filepath.Join(dir, "absent"))
	if result.Passed || !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("expected missing-dir failure, got %+v", result)
	}

	file := testsupport.WriteFile(t, filepath.Join(dir, "file"), []byte("x"))
	result = preflight.CheckDirectoryAccess("Output directory", file)
	if result.Passed || !strings.Contains(result.Detail, "not a directory") {
		t.Fatalf("expected not-a-directory failure, got %+v", result)
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()

	result := preflight.CheckFreeSpace("Free space", dir, 0)
	if !result.Passed {
		t.Fatalf("expected pass with zero requirement: %s", result.Detail)
	}

	// No filesystem has an exbibyte free.
	result = preflight.CheckFreeSpace("Free space", dir, 1<<30)
	if result.Passed {
		t.Fatalf("expected failure for absurd requirement: %s", result.Detail)
	}
}

func TestCheckConvertBinary(t *testing.T) {
	result := preflight.CheckConvertBinary("definitely-not-a-real-binary-name")
	if result.Passed {
		t.Fatalf("expected failure for missing binary, got %+v", result)
	}
	if !strings.Contains(result.Detail, "not found") {
		t.Fatalf("detail = %q", result.Detail)
	}
}

func TestRunAllSkipsMagickCheckForNativeResizer(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Imaging.Resizer = "native"
	cfg.Imaging.MinFreeSpaceGiB = 0
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	if err := os.MkdirAll(cfg.Paths.InputDir, 0o755); err != nil {
		t.Fatalf("mkdir input: %v", err)
	}

	results := preflight.RunAll(context.Background(), cfg)
	for _, result := range results {
		if result.Name == "ImageMagick" {
			t.Fatal("magick check ran with the native resizer")
		}
		if !result.Passed {
			t.Fatalf("check %s failed: %s", result.Name, result.Detail)
		}
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
}

func TestAllPassed(t *testing.T) {
	results := []preflight.Result{
		{Name: "a", Passed: true},
		{Name: "b", Passed: true},
	}
	if !preflight.AllPassed(results) {
		t.Fatal("expected all passed")
	}
	results = append(results, preflight.Result{Name: "c"})
	if preflight.AllPassed(results) {
		t.Fatal("expected failure to propagate")
	}
}
