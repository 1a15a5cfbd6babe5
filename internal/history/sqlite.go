package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore creates a new SQLite-based run store.
// Use ":memory:" for an in-memory database, or a file path for persistence.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS build_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL,
		template_path TEXT NOT NULL,
		status TEXT NOT NULL,
		exit_code INTEGER NOT NULL,
		stderr TEXT,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_template_path ON build_runs(template_path);
	CREATE INDEX IF NOT EXISTS idx_started_at ON build_runs(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record appends a completed run to the store.
func (s *SQLiteStore) Record(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO build_runs (build_id, template_path, status, exit_code, stderr, started_at, duration_ms) VALUES (?, ?, ?, ?, ?, ?, ?)",
		run.BuildID, run.TemplatePath, run.Status, run.ExitCode, run.Stderr,
		run.StartedAt.UnixMilli(), run.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert build run: %w", err)
	}
	return nil
}

// ListByTemplate retrieves all runs for a template path, oldest first.
func (s *SQLiteStore) ListByTemplate(ctx context.Context, templatePath string) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, build_id, template_path, status, exit_code, stderr, started_at, duration_ms FROM build_runs WHERE template_path = ? ORDER BY id ASC",
		templatePath,
	)
	if err != nil {
		return nil, fmt.Errorf("query build runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanRuns(rows)
}

// Recent retrieves the most recent runs across all templates, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, build_id, template_path, status, exit_code, stderr, started_at, duration_ms FROM build_runs ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanRuns(rows)
}

func scanRuns(rows *sql.Rows) ([]Run, error) {
	var runs []Run
	for rows.Next() {
		var (
			run        Run
			startedAt  int64
			durationMS int64
			stderr     sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.BuildID, &run.TemplatePath, &run.Status,
			&run.ExitCode, &stderr, &startedAt, &durationMS); err != nil {
			return nil, fmt.Errorf("scan build run: %w", err)
		}
		run.Stderr = stderr.String
		run.StartedAt = time.UnixMilli(startedAt)
		run.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate build runs: %w", err)
	}
	return runs, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
