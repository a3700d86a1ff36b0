// Package history records check runs in a SQLite database.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"kite/internal/shared/observability"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
	// Fixed width so timestamps sort as text.
	timeLayout  = "2006-01-02T15:04:05.000000000Z07:00"
)

// ErrCorrupt marks a history file that exists but is not a readable SQLite
// database. Removing the file starts a fresh history.
var ErrCorrupt = errors.New("history database is corrupt")

// Run summarises one check pass over a project.
type Run struct {
	ID           string
	ProjectKey   string
	Started      time.Time
	Duration     time.Duration
	FileCount    int
	ErrorCount   int
	WarningCount int
	CycleCount   int
	Diagnostics  []Diagnostic
}

// Diagnostic is the stored form of a checker diagnostic.
type Diagnostic struct {
	Path     string
	Line     int
	Column   int
	Severity string
	Code     string
	Message  string
}

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

// Open creates the database file and its directory when missing and applies
// pending migrations. busyTimeout <= 0 uses two seconds.
func Open(path string, busyTimeout time.Duration) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	if busyTimeout <= 0 {
		busyTimeout = 2 * time.Second
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)",
		cleanPath, busyTimeout.Milliseconds())
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, openError(cleanPath, "ping sqlite history", err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, openError(cleanPath, "initialize sqlite schema", err)
	}

	slog.Debug("history store opened", "path", cleanPath)
	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func projectKeyOrDefault(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return "default"
	}
	return key
}

// SaveRun stores run with its diagnostics and returns the run ID, generating
// one when run.ID is empty.
func (s *Store) SaveRun(ctx context.Context, run Run) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	} else if _, err := uuid.Parse(run.ID); err != nil {
		return "", fmt.Errorf("run id %q: %w", run.ID, err)
	}
	if run.Started.IsZero() {
		run.Started = time.Now().UTC()
	}
	run.ProjectKey = projectKeyOrDefault(run.ProjectKey)

	err := s.withRetry("save run", func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO runs (id, project_key, started_utc, duration_ms, file_count, error_count, warning_count, cycle_count)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, run.ProjectKey, run.Started.UTC().Format(timeLayout), run.Duration.Milliseconds(),
			run.FileCount, run.ErrorCount, run.WarningCount, run.CycleCount,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
		stmt, err := tx.PrepareContext(ctx, `
INSERT INTO run_diagnostics (run_id, seq, path, line, col, severity, code, message)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		defer stmt.Close()
		for i, d := range run.Diagnostics {
			if _, err := stmt.ExecContext(ctx, run.ID, i, d.Path, d.Line, d.Column, d.Severity, d.Code, d.Message); err != nil {
				_ = tx.Rollback()
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return "", err
	}
	observability.HistoryRunsTotal.Inc()
	return run.ID, nil
}

// LoadRuns returns the newest runs of a project first, without diagnostics.
// limit <= 0 returns all of them.
func (s *Store) LoadRuns(ctx context.Context, projectKey string, limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
SELECT id, project_key, started_utc, duration_ms, file_count, error_count, warning_count, cycle_count
FROM runs WHERE project_key = ? ORDER BY started_utc DESC, id ASC`
	args := []any{projectKeyOrDefault(projectKey)}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var rows *sql.Rows
	err := s.withRetry("load runs", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		var (
			run        Run
			startedRaw string
			durationMS int64
		)
		if err := rows.Scan(&run.ID, &run.ProjectKey, &startedRaw, &durationMS,
			&run.FileCount, &run.ErrorCount, &run.WarningCount, &run.CycleCount); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		started, err := time.Parse(timeLayout, startedRaw)
		if err != nil {
			return nil, fmt.Errorf("parse run timestamp %q: %w", startedRaw, err)
		}
		run.Started = started.UTC()
		run.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return runs, nil
}

// Diagnostics returns the stored diagnostics of one run in saved order.
func (s *Store) Diagnostics(ctx context.Context, runID string) ([]Diagnostic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows *sql.Rows
	err := s.withRetry("load diagnostics", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, `
SELECT path, line, col, severity, code, message
FROM run_diagnostics WHERE run_id = ? ORDER BY seq`, runID)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Diagnostic, 0)
	for rows.Next() {
		var d Diagnostic
		if err := rows.Scan(&d.Path, &d.Line, &d.Column, &d.Severity, &d.Code, &d.Message); err != nil {
			return nil, fmt.Errorf("scan diagnostic row: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate diagnostic rows: %w", err)
	}
	return out, nil
}

// Prune keeps the newest keep runs of a project and deletes the rest.
func (s *Store) Prune(ctx context.Context, projectKey string, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := projectKeyOrDefault(projectKey)
	var deleted int64
	err := s.withRetry("prune runs", func() error {
		res, err := s.db.ExecContext(ctx, `
DELETE FROM runs WHERE project_key = ? AND id NOT IN (
  SELECT id FROM runs WHERE project_key = ? ORDER BY started_utc DESC, id ASC LIMIT ?
)`, key, key, keep)
		if err != nil {
			return err
		}
		deleted, err = res.RowsAffected()
		return err
	})
	return deleted, err
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		slog.Debug("history store busy, retrying", "op", op, "attempt", attempt)
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func openError(path, op string, err error) error {
	if isCorrupt(err) {
		return fmt.Errorf("%w: %q: %v", ErrCorrupt, path, err)
	}
	return fmt.Errorf("%s %q: %w", op, path, err)
}

func isCorrupt(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database")
}
