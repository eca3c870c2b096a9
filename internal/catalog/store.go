package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// maxRecordedFailures caps the per-run failure rows; runs over huge inputs
// can fail thousands of files for the same root cause and the first slice
// is enough to diagnose it. The full count is kept on the run row.
const maxRecordedFailures = 200

// Store records ingest runs in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the catalog database at the given path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure catalog dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// BeginRun inserts a new run row in the running state and returns it.
func (s *Store) BeginRun(ctx context.Context, setType, inputDir, outputDir string, targetSize int) (*Run, error) {
	id := uuid.NewString()
	startedAt := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (
            id, set_type, input_dir, output_dir, target_size, started_at, status
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, setType, inputDir, outputDir, targetSize, startedAt, StatusRunning,
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}

	return s.GetRun(ctx, id)
}

// FinishRun writes the final counters and status for a run. The status is
// derived from the failure rows already recorded against it.
func (s *Store) FinishRun(ctx context.Context, id string, summary Summary) error {
	var failures int
	err := s.db.QueryRowContext(ctx,
		"SELECT failure_count FROM runs WHERE id = ?", id).Scan(&failures)
	if err != nil {
		return fmt.Errorf("read failure count: %w", err)
	}

	status := StatusCompleted
	if failures > 0 {
		status = StatusCompletedWithErrors
	}

	_, err = s.db.ExecContext(
		ctx,
		`UPDATE runs SET
            finished_at = ?, status = ?,
            train_count = ?, val_count = ?, transformed = ?, skipped = ?,
            pixel_mean = ?
        WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano),
		status,
		summary.TrainCount,
		summary.ValCount,
		summary.Transformed,
		summary.Skipped,
		formatPixelMean(summary.PixelMean),
		id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// AbortRun marks a run as failed without touching its counters.
func (s *Store) AbortRun(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(
		ctx,
		"UPDATE runs SET finished_at = ?, status = ? WHERE id = ?",
		time.Now().UTC().Format(time.RFC3339Nano), StatusFailed, id,
	)
	if err != nil {
		return fmt.Errorf("abort run: %w", err)
	}
	return nil
}

// RecordFailures attaches per-file failures to a run. The stored rows are
// capped at maxRecordedFailures; the run row always carries the true total.
func (s *Store) RecordFailures(ctx context.Context, id string, failures []Failure) error {
	if len(failures) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin failures tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stored := failures
	if len(stored) > maxRecordedFailures {
		stored = stored[:maxRecordedFailures]
	}
	for _, failure := range stored {
		_, err := tx.ExecContext(
			ctx,
			"INSERT INTO run_failures (run_id, path, kind, detail) VALUES (?, ?, ?, ?)",
			id, failure.Path, failure.Kind, failure.Detail,
		)
		if err != nil {
			return fmt.Errorf("insert failure: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE runs SET failure_count = failure_count + ? WHERE id = ?",
		len(failures), id)
	if err != nil {
		return fmt.Errorf("update failure count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit failures: %w", err)
	}
	return nil
}

// RecordLabelMap stores the label → token mapping a run derived. Token i
// carries label i.
func (s *Store) RecordLabelMap(ctx context.Context, id string, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin label tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for label, token := range tokens {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO run_labels (run_id, label, token) VALUES (?, ?, ?)",
			id, label, token)
		if err != nil {
			return fmt.Errorf("insert label: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit labels: %w", err)
	}
	return nil
}

// GetRun fetches one run by id.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, selectRunSQL+" WHERE id = ?", id)
	return scanRun(row)
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		selectRunSQL+" ORDER BY started_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ListFailures returns the recorded failures for a run.
func (s *Store) ListFailures(ctx context.Context, id string) ([]Failure, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT path, kind, detail FROM run_failures WHERE run_id = ? ORDER BY id", id)
	if err != nil {
		return nil, fmt.Errorf("list failures: %w", err)
	}
	defer rows.Close()

	var failures []Failure
	for rows.Next() {
		var f Failure
		if err := rows.Scan(&f.Path, &f.Kind, &f.Detail); err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		failures = append(failures, f)
	}
	return failures, rows.Err()
}

// LabelMap returns a run's label → token mapping in label order.
func (s *Store) LabelMap(ctx context.Context, id string) ([]LabelEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT label, token FROM run_labels WHERE run_id = ? ORDER BY label", id)
	if err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}
	defer rows.Close()

	var entries []LabelEntry
	for rows.Next() {
		var entry LabelEntry
		if err := rows.Scan(&entry.Label, &entry.Token); err != nil {
			return nil, fmt.Errorf("scan label: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

const selectRunSQL = `SELECT
    id, set_type, input_dir, output_dir, target_size, started_at,
    COALESCE(finished_at, ''), status,
    train_count, val_count, transformed, skipped, failure_count,
    COALESCE(pixel_mean, '')
FROM runs`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	err := row.Scan(
		&run.ID, &run.SetType, &run.InputDir, &run.OutputDir, &run.TargetSize,
		&run.StartedAt, &run.FinishedAt, &run.Status,
		&run.TrainCount, &run.ValCount, &run.Transformed, &run.Skipped,
		&run.FailureCount, &run.PixelMean,
	)
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	return &run, nil
}

func formatPixelMean(mean []float64) string {
	if len(mean) == 0 {
		return ""
	}
	parts := make([]string, len(mean))
	for i, v := range mean {
		parts[i] = strconv.FormatFloat(v, 'f', 4, 64)
	}
	return strings.Join(parts, ",")
}
