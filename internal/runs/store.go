package runs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"txbulk/internal/config"
)

// Store persists run history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// ErrNotFound is returned when a run id has no history row.
var ErrNotFound = errors.New("run not found")

// Open initializes or connects to the run history database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.HistoryDir, "runs.db"))
}

// OpenPath opens the history database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
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

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
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

// Record inserts a finished run.
func (s *Store) Record(ctx context.Context, run Run) error {
	failedKeys, err := json.Marshal(run.FailedKeys)
	if err != nil {
		return fmt.Errorf("encode failed keys: %w", err)
	}
	return s.execWithoutResultRetry(ctx, `
		INSERT INTO runs (
			id, started_at, finished_at, organization, mode,
			succeeded, failed, skipped, files, bytes,
			status, failed_keys, report_path
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		run.Organization,
		run.Mode,
		run.Succeeded,
		run.Failed,
		run.Skipped,
		run.Files,
		run.Bytes,
		run.Status,
		string(failedKeys),
		run.ReportPath,
	)
}

// List returns the most recent runs, newest first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	ctx = ensureContext(ctx)
	query := "SELECT " + runColumns + " FROM runs ORDER BY started_at DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var result []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return result, nil
}

// Get returns a single run by id.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	return run, err
}

const runColumns = `id, started_at, finished_at, organization, mode,
	succeeded, failed, skipped, files, bytes, status, failed_keys, report_path`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run                 Run
		startedAt, finished string
		failedKeys          string
	)
	err := row.Scan(
		&run.ID, &startedAt, &finished, &run.Organization, &run.Mode,
		&run.Succeeded, &run.Failed, &run.Skipped, &run.Files, &run.Bytes,
		&run.Status, &failedKeys, &run.ReportPath,
	)
	if err != nil {
		return Run{}, err
	}
	if run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return Run{}, fmt.Errorf("parse started_at: %w", err)
	}
	if run.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
		return Run{}, fmt.Errorf("parse finished_at: %w", err)
	}
	if failedKeys != "" {
		if err := json.Unmarshal([]byte(failedKeys), &run.FailedKeys); err != nil {
			return Run{}, fmt.Errorf("decode failed keys: %w", err)
		}
	}
	return run, nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithoutResultRetry(ctx context.Context, query string, args ...any) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}
