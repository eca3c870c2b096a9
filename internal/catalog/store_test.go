package catalog_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"imageset/internal/catalog"
)

func openStore(t *testing.T) *catalog.Store {
	t.Helper()
	store, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBeginAndFinishRun(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	run, err := store.BeginRun(ctx, "i1k", "/data/in", "/data/out", 256)
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if run.ID == "" || run.Status != catalog.StatusRunning {
		t.Fatalf("run = %+v", run)
	}
	if run.SetType != "i1k" || run.TargetSize != 256 {
		t.Fatalf("run = %+v", run)
	}

	err = store.FinishRun(ctx, run.ID, catalog.Summary{
		TrainCount:  1000,
		ValCount:    100,
		Transformed: 1050,
		Skipped:     50,
		PixelMean:   []float64{113.8, 123.0, 125.3},
	})
	if err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	got, err := store.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Status != catalog.StatusCompleted {
		t.Fatalf("status = %s", got.Status)
	}
	if got.TrainCount != 1000 || got.ValCount != 100 || got.Transformed != 1050 || got.Skipped != 50 {
		t.Fatalf("counters = %+v", got)
	}
	if got.PixelMean != "113.8000,123.0000,125.3000" {
		t.Fatalf("pixel mean = %q", got.PixelMean)
	}
	if got.FinishedAt == "" {
		t.Fatal("finished_at not set")
	}
}

func TestFailuresMarkRunCompletedWithErrors(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	run, err := store.BeginRun(ctx, "i1k", "/in", "/out", 0)
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	failures := []catalog.Failure{
		{Path: "/out/train/0/a.JPEG", Kind: "decode", Detail: "invalid JPEG format"},
		{Path: "/out/train/1/b.JPEG", Kind: "io", Detail: "short write"},
	}
	if err := store.RecordFailures(ctx, run.ID, failures); err != nil {
		t.Fatalf("RecordFailures: %v", err)
	}
	if err := store.FinishRun(ctx, run.ID, catalog.Summary{}); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	got, err := store.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Status != catalog.StatusCompletedWithErrors || got.FailureCount != 2 {
		t.Fatalf("status = %s, failures = %d", got.Status, got.FailureCount)
	}

	stored, err := store.ListFailures(ctx, run.ID)
	if err != nil {
		t.Fatalf("ListFailures: %v", err)
	}
	if len(stored) != 2 || stored[0].Kind != "decode" || stored[1].Kind != "io" {
		t.Fatalf("stored = %+v", stored)
	}
}

func TestFailureRowsAreCappedButCounted(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	run, err := store.BeginRun(ctx, "i1k", "/in", "/out", 0)
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	failures := make([]catalog.Failure, 500)
	for i := range failures {
		failures[i] = catalog.Failure{Path: fmt.Sprintf("/out/%d.JPEG", i), Kind: "decode", Detail: "bad"}
	}
	if err := store.RecordFailures(ctx, run.ID, failures); err != nil {
		t.Fatalf("RecordFailures: %v", err)
	}

	got, err := store.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.FailureCount != 500 {
		t.Fatalf("failure count = %d, want 500", got.FailureCount)
	}
	stored, err := store.ListFailures(ctx, run.ID)
	if err != nil {
		t.Fatalf("ListFailures: %v", err)
	}
	if len(stored) != 200 {
		t.Fatalf("stored %d rows, want 200", len(stored))
	}
}

func TestLabelMapRoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	run, err := store.BeginRun(ctx, "i1k", "/in", "/out", 0)
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	tokens := []string{"n01440764", "n01443537", "n01484850"}
	if err := store.RecordLabelMap(ctx, run.ID, tokens); err != nil {
		t.Fatalf("RecordLabelMap: %v", err)
	}

	entries, err := store.LabelMap(ctx, run.ID)
	if err != nil {
		t.Fatalf("LabelMap: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries", len(entries))
	}
	for i, entry := range entries {
		if entry.Label != i || entry.Token != tokens[i] {
			t.Fatalf("entry %d = %+v", i, entry)
		}
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	first, err := store.BeginRun(ctx, "i1k", "/in", "/out", 0)
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	second, err := store.BeginRun(ctx, "cifar10", "/in2", "/out2", 40)
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}

	runs, err := store.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs", len(runs))
	}
	if runs[0].ID != second.ID || runs[1].ID != first.ID {
		t.Fatalf("order = %s, %s", runs[0].ID, runs[1].ID)
	}
}

func TestAbortRun(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	run, err := store.BeginRun(ctx, "directory", "/in", "/out", 0)
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if err := store.AbortRun(ctx, run.ID); err != nil {
		t.Fatalf("AbortRun: %v", err)
	}
	got, err := store.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Status != catalog.StatusFailed || got.FinishedAt == "" {
		t.Fatalf("run = %+v", got)
	}
}
