// Package progress renders extraction progress. On a terminal it drives a
// live per-set tracker; otherwise it degrades to periodic log lines so
// batch output stays readable in files and CI.
package progress

import (
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/mattn/go-isatty"
)

// Reporter receives completion updates from worker goroutines. Safe for
// concurrent use.
type Reporter interface {
	Update(set string, completed, total int)
	Done()
}

// New picks the reporter for the current environment.
func New(logger *slog.Logger) Reporter {
	if isTerminal(os.Stderr.Fd()) {
		return newTTYReporter()
	}
	return newLogReporter(logger)
}

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

type ttyReporter struct {
	writer progress.Writer

	mu       sync.Mutex
	trackers map[string]*progress.Tracker
}

func newTTYReporter() *ttyReporter {
	writer := progress.NewWriter()
	writer.SetOutputWriter(os.Stderr)
	writer.SetUpdateFrequency(250 * time.Millisecond)
	writer.SetTrackerLength(30)
	writer.SetStyle(progress.StyleBlocks)
	writer.Style().Visibility.ETA = true
	go writer.Render()

	return &ttyReporter{
		writer:   writer,
		trackers: make(map[string]*progress.Tracker),
	}
}

func (r *ttyReporter) Update(set string, completed, total int) {
	r.mu.Lock()
	tracker, ok := r.trackers[set]
	if !ok {
		tracker = &progress.Tracker{Message: set, Total: int64(total), Units: progress.UnitsDefault}
		r.trackers[set] = tracker
		r.writer.AppendTracker(tracker)
	}
	r.mu.Unlock()

	tracker.SetValue(int64(completed))
	if completed >= total {
		tracker.MarkAsDone()
	}
}

func (r *ttyReporter) Done() {
	r.mu.Lock()
	for _, tracker := range r.trackers {
		if !tracker.IsDone() {
			tracker.MarkAsDone()
		}
	}
	r.mu.Unlock()

	// Let the final frame flush before tearing the renderer down.
	for i := 0; i < 20 && r.writer.IsRenderInProgress(); i++ {
		if r.writer.LengthActive() == 0 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	r.writer.Stop()
}

// logInterval spaces the fallback log lines; anything chattier floods
// non-interactive logs on large inputs.
const logInterval = 10 * time.Second

type logReporter struct {
	logger *slog.Logger

	mu   sync.Mutex
	last map[string]time.Time
}

func newLogReporter(logger *slog.Logger) *logReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &logReporter{logger: logger, last: make(map[string]time.Time)}
}

func (r *logReporter) Update(set string, completed, total int) {
	now := time.Now()

	r.mu.Lock()
	last, seen := r.last[set]
	final := completed >= total
	if !final && seen && now.Sub(last) < logInterval {
		r.mu.Unlock()
		return
	}
	r.last[set] = now
	r.mu.Unlock()

	r.logger.Info("progress",
		slog.String("set", set),
		slog.Int("completed", completed),
		slog.Int("total", total))
}

func (r *logReporter) Done() {}
