package catalog

// Run statuses.
const (
	StatusRunning             = "running"
	StatusCompleted           = "completed"
	StatusCompletedWithErrors = "completed_with_errors"
	StatusFailed              = "failed"
)

// Run is one recorded ingest run.
type Run struct {
	ID           string
	SetType      string
	InputDir     string
	OutputDir    string
	TargetSize   int
	StartedAt    string
	FinishedAt   string
	Status       string
	TrainCount   int
	ValCount     int
	Transformed  int
	Skipped      int
	FailureCount int
	// PixelMean is a comma-joined per-channel mean, empty when the set
	// type does not compute one.
	PixelMean string
}

// Summary carries the final counters written when a run finishes.
type Summary struct {
	TrainCount  int
	ValCount    int
	Transformed int
	Skipped     int
	PixelMean   []float64
}

// Failure is one isolated per-file error attached to a run.
type Failure struct {
	Path   string
	Kind   string
	Detail string
}

// LabelEntry maps one label to its class token for a run.
type LabelEntry struct {
	Label int
	Token string
}
