package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mdrews/pentestgen/internal/store"
	_ "github.com/mattn/go-sqlite3"
)

// Store implements the store.Store interface using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a new SQLite store at the given path.
// Use ":memory:" for in-memory database (useful for testing).
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}

	if err := s.createSchema(); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return s, nil
}

// createSchema creates all tables and indexes if they don't exist.
func (s *Store) createSchema() error {
	schema := `
	-- Metadata about each batch generation run
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		timestamp INTEGER NOT NULL,
		provider TEXT NOT NULL,
		model TEXT NOT NULL,
		requested INTEGER NOT NULL,
		succeeded INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		seed INTEGER NOT NULL,
		output_path TEXT NOT NULL,
		duration_ms INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_runs_provider ON runs(provider);
	`

	_, err := s.db.Exec(schema)
	return err
}

// CreateRun stores a new generation run.
func (s *Store) CreateRun(ctx context.Context, run store.Run) error {
	query := `
		INSERT INTO runs (run_id, timestamp, provider, model, requested, succeeded, failed, seed, output_path, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		run.RunID,
		run.Timestamp.Unix(),
		run.Provider,
		run.Model,
		run.Requested,
		run.Succeeded,
		run.Failed,
		int64(run.Seed),
		run.OutputPath,
		run.Duration.Milliseconds(),
	)

	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	return nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(ctx context.Context, runID string) (store.Run, error) {
	query := `
		SELECT run_id, timestamp, provider, model, requested, succeeded, failed, seed, output_path, duration_ms
		FROM runs
		WHERE run_id = ?
	`

	run, err := scanRun(s.db.QueryRowContext(ctx, query, runID))
	if err != nil {
		if err == sql.ErrNoRows {
			return store.Run{}, fmt.Errorf("run not found: %s", runID)
		}
		return store.Run{}, fmt.Errorf("failed to get run: %w", err)
	}

	return run, nil
}

// ListRuns retrieves the most recent runs, limited by the given count.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	query := `
		SELECT run_id, timestamp, provider, model, requested, succeeded, failed, seed, output_path, duration_ms
		FROM runs
		ORDER BY timestamp DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []store.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	return runs, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (store.Run, error) {
	var run store.Run
	var timestamp, seed, durationMs int64

	if err := row.Scan(
		&run.RunID,
		&timestamp,
		&run.Provider,
		&run.Model,
		&run.Requested,
		&run.Succeeded,
		&run.Failed,
		&seed,
		&run.OutputPath,
		&durationMs,
	); err != nil {
		return store.Run{}, err
	}

	run.Timestamp = time.Unix(timestamp, 0)
	run.Seed = uint64(seed)
	run.Duration = time.Duration(durationMs) * time.Millisecond
	return run, nil
}
