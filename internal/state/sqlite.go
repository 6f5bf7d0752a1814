package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

var errNotOpen = errors.New("database not opened")

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a store that logs to logger. Nil discards logs.
func NewSQLiteStore(logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{logger: logger}
}

// Open opens a store at path and applies pending migrations. The parent
// directory is created when missing.
func Open(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	s := NewSQLiteStore(logger)
	if err := s.Open(path); err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Open opens a connection to the database. Use ":memory:" for an in-memory
// database.
func (s *SQLiteStore) Open(path string) error {
	dsn := ":memory:?_pragma=foreign_keys(1)"
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return fmt.Errorf("failed to create state directory: %w", err)
			}
		}
		dsn = "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// A single connection keeps :memory: databases and pragmas consistent.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	s.logger.Debug("opened state store", slog.String("path", path))
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the path the store was opened with.
func (s *SQLiteStore) Path() string {
	return s.path
}

// CreateRun starts a new run.
func (s *SQLiteStore) CreateRun(ctx context.Context, command, target string) (*Run, error) {
	if s.db == nil {
		return nil, errNotOpen
	}

	run := &Run{
		ID:        uuid.New().String(),
		Command:   command,
		Target:    target,
		Status:    RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	s.logger.Debug("creating run", slog.String("id", run.ID), slog.String("command", command))

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, command, target, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Command, run.Target, string(run.Status), run.StartedAt.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// RecordFile stores the result of one file of a run.
func (s *SQLiteStore) RecordFile(ctx context.Context, r FileResult) error {
	if s.db == nil {
		return errNotOpen
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO file_results
		 (run_id, path, hash, status, diagnostics, asserts_passed, asserts_failed, duration_ms, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Path, r.Hash, string(r.Status), r.Diagnostics,
		r.AssertsPassed, r.AssertsFailed, r.Duration.Milliseconds(), nullString(r.Error),
	)
	if err != nil {
		return fmt.Errorf("failed to record %s: %w", r.Path, err)
	}
	return nil
}

// CompleteRun writes the final status and totals of a run.
func (s *SQLiteStore) CompleteRun(ctx context.Context, id string, c Completion) error {
	if s.db == nil {
		return errNotOpen
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, completed_at = ?, files = ?, failed = ?,
		 asserts_passed = ?, asserts_failed = ?, error = ? WHERE id = ?`,
		string(c.Status), time.Now().UTC().UnixMilli(), c.Files, c.Failed,
		c.AssertsPassed, c.AssertsFailed, nullString(c.Error), id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

const runColumns = `id, command, target, status, started_at, completed_at,
	files, failed, asserts_passed, asserts_failed, error`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run         Run
		status      string
		startedAt   int64
		completedAt sql.NullInt64
		errMsg      sql.NullString
	)
	err := row.Scan(&run.ID, &run.Command, &run.Target, &status, &startedAt, &completedAt,
		&run.Files, &run.Failed, &run.AssertsPassed, &run.AssertsFailed, &errMsg)
	if err != nil {
		return nil, err
	}
	run.Status = RunStatus(status)
	run.StartedAt = time.UnixMilli(startedAt).UTC()
	if completedAt.Valid {
		t := time.UnixMilli(completedAt.Int64).UTC()
		run.CompletedAt = &t
	}
	run.Error = errMsg.String
	return &run, nil
}

// GetRun retrieves a run by id.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	if s.db == nil {
		return nil, errNotOpen
	}

	run, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first. A limit below one returns all.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, errNotOpen
	}
	if limit < 1 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// FileResults returns the file results of a run in recording order.
func (s *SQLiteStore) FileResults(ctx context.Context, runID string) ([]FileResult, error) {
	if s.db == nil {
		return nil, errNotOpen
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, path, hash, status, diagnostics, asserts_passed, asserts_failed, duration_ms, error
		 FROM file_results WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get file results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []FileResult
	for rows.Next() {
		var (
			r        FileResult
			status   string
			duration int64
			errMsg   sql.NullString
		)
		if err := rows.Scan(&r.RunID, &r.Path, &r.Hash, &status, &r.Diagnostics,
			&r.AssertsPassed, &r.AssertsFailed, &duration, &errMsg); err != nil {
			return nil, fmt.Errorf("failed to scan file result: %w", err)
		}
		r.Status = FileStatus(status)
		r.Duration = time.Duration(duration) * time.Millisecond
		r.Error = errMsg.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// LastPassingHash returns the content hash recorded the last time path
// compiled cleanly, or "" when it never has.
func (s *SQLiteStore) LastPassingHash(ctx context.Context, path string) (string, error) {
	if s.db == nil {
		return "", errNotOpen
	}

	var hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT hash FROM file_results WHERE path = ? AND status = ? ORDER BY id DESC LIMIT 1`,
		path, string(FileStatusOK),
	).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get content hash: %w", err)
	}
	return hash, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
