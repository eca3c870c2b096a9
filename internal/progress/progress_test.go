package progress

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestLogReporterEmitsFirstAndFinalUpdates(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	r := newLogReporter(logger)

	r.Update("train", 1, 100)
	r.Update("train", 2, 100) // throttled
	r.Update("train", 100, 100)
	r.Done()

	out := buf.String()
	if strings.Count(out, "progress") != 2 {
		t.Fatalf("expected first and final lines only, got:\n%s", out)
	}
	if !strings.Contains(out, "completed=100") {
		t.Fatalf("final line missing:\n%s", out)
	}
}

func TestLogReporterTracksSetsIndependently(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	r := newLogReporter(logger)

	r.Update("train", 1, 10)
	r.Update("val", 1, 10)

	out := buf.String()
	if !strings.Contains(out, "set=train") || !strings.Contains(out, "set=val") {
		t.Fatalf("expected one line per set, got:\n%s", out)
	}
}

func TestLogReporterConcurrentUpdates(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	r := newLogReporter(logger)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 1; j <= 50; j++ {
				r.Update("train", j, 400)
			}
		}()
	}
	wg.Wait()
	r.Done()
}

func TestNewFallsBackWithoutTerminal(t *testing.T) {
	// Test processes never run with a TTY on stderr.
	if _, ok := New(slog.Default()).(*logReporter); !ok {
		t.Fatal("expected log reporter in a non-TTY environment")
	}
}
