// Package history keeps an audit trail of walks in SQLite. It records what
// happened; the walker never reads it back.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/treewalk/internal/models"
)

// ErrRunNotFound is returned when a run ID is unknown.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded walk.
type Run struct {
	ID           string
	Root         string
	Source       string // fs, markdown or yaml
	Visitor      string
	Parallelism  int
	Order        string
	Visited      int
	Failed       int
	Dispatched   int
	MaxInFlight  int
	Cancelled    bool
	Duration     time.Duration
	StartedAt    time.Time
	ErrorMessage string
	Failures     []Failure
}

// Failure is a node failure belonging to a run.
type Failure struct {
	Node    string
	Phase   string
	Message string
}

// NewRun builds a Run from a walk summary.
func NewRun(summary models.WalkSummary, source, visitor, order string, startedAt time.Time, walkErr error) *Run {
	run := &Run{
		Root:        summary.Root,
		Source:      source,
		Visitor:     visitor,
		Parallelism: summary.Parallelism,
		Order:       order,
		Visited:     summary.Visited,
		Failed:      summary.Failed,
		Dispatched:  summary.Dispatched,
		MaxInFlight: summary.MaxInFlight,
		Cancelled:   summary.Cancelled,
		Duration:    summary.Duration,
		StartedAt:   startedAt,
	}
	if walkErr != nil {
		// Only the first line; node details are stored as failures.
		run.ErrorMessage, _, _ = strings.Cut(walkErr.Error(), "\n")
	}
	for _, f := range summary.Failures {
		msg := ""
		if f.Error != nil {
			msg = f.Error.Error()
		}
		run.Failures = append(run.Failures, Failure{Node: f.Node, Phase: f.Phase, Message: msg})
	}
	return run
}

// Store manages the SQLite run history database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens (creating if needed) the database at dbPath.
// ":memory:" opens a private in-memory database.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// DSN parameters apply to every pooled connection, unlike PRAGMA statements.
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	// busy_timeout must come first so the rest wait on locks.
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	store := &Store{db: db, dbPath: dbPath}
	if err := store.ApplyMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return store, nil
}

// execWithRetry executes a statement, backing off exponentially while the
// database is locked by another process.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.dbPath
}

// RecordRun stores run and its failures. A new ID is assigned when run.ID is empty.
func (s *Store) RecordRun(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO walk_runs
		(id, root, source, visitor, parallelism, walk_order, visited, failed, dispatched, max_in_flight, cancelled, duration_ms, started_at, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Root,
		run.Source,
		run.Visitor,
		run.Parallelism,
		run.Order,
		run.Visited,
		run.Failed,
		run.Dispatched,
		run.MaxInFlight,
		run.Cancelled,
		run.Duration.Milliseconds(),
		run.StartedAt.UTC(),
		run.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("insert walk run: %w", err)
	}

	for _, f := range run.Failures {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO walk_failures (run_id, node, phase, message) VALUES (?, ?, ?, ?)`,
			run.ID, f.Node, f.Phase, f.Message,
		); err != nil {
			return fmt.Errorf("insert walk failure: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit walk run: %w", err)
	}
	return nil
}

const runColumns = `id, root, source, visitor, parallelism, walk_order, visited, failed, dispatched, max_in_flight, cancelled, duration_ms, started_at, error_message`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run        Run
		durationMs int64
	)
	err := row.Scan(
		&run.ID,
		&run.Root,
		&run.Source,
		&run.Visitor,
		&run.Parallelism,
		&run.Order,
		&run.Visited,
		&run.Failed,
		&run.Dispatched,
		&run.MaxInFlight,
		&run.Cancelled,
		&durationMs,
		&run.StartedAt,
		&run.ErrorMessage,
	)
	if err != nil {
		return nil, err
	}
	run.Duration = time.Duration(durationMs) * time.Millisecond
	return &run, nil
}

// ListRuns returns up to limit runs, most recent first. Failures are not loaded.
// A limit <= 0 returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM walk_runs ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query walk runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan walk run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate walk runs: %w", err)
	}
	return runs, nil
}

// GetRun returns a single run including its failures.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM walk_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query walk run: %w", err)
	}

	run.Failures, err = s.GetFailures(ctx, id)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// GetFailures returns the failures of a run, ordered by node.
func (s *Store) GetFailures(ctx context.Context, runID string) ([]Failure, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT node, phase, message FROM walk_failures WHERE run_id = ? ORDER BY node, id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query walk failures: %w", err)
	}
	defer rows.Close()

	var failures []Failure
	for rows.Next() {
		var f Failure
		if err := rows.Scan(&f.Node, &f.Phase, &f.Message); err != nil {
			return nil, fmt.Errorf("scan walk failure: %w", err)
		}
		failures = append(failures, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate walk failures: %w", err)
	}
	return failures, nil
}

// CleanupOldRuns deletes runs older than keepDays and returns how many were removed.
func (s *Store) CleanupOldRuns(ctx context.Context, keepDays int) (int64, error) {
	if keepDays <= 0 {
		return 0, fmt.Errorf("keepDays must be positive, got %d", keepDays)
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -keepDays)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM walk_failures WHERE run_id IN (SELECT id FROM walk_runs WHERE started_at < ?)`, cutoff); err != nil {
		return 0, fmt.Errorf("delete old failures: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM walk_runs WHERE started_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old runs: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit cleanup: %w", err)
	}
	return n, nil
}
