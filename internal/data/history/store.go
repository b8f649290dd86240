// Package history persists run snapshots to sqlite so successive analysis
// runs can be compared over time.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"dartbridge/internal/core/ports"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

var _ ports.HistoryStore = (*Store)(nil)

func Open(path string) (*Store, error) {
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

	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func (s *Store) SaveRun(projectKey string, run ports.RunSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	projectKey = strings.TrimSpace(projectKey)
	if projectKey == "" {
		projectKey = "default"
	}
	if run.RunID == "" {
		return fmt.Errorf("run id must not be empty")
	}
	if run.Timestamp.IsZero() {
		run.Timestamp = time.Now().UTC()
	}

	query := `
INSERT INTO runs (
  project_key, run_id, ts_utc, file_count, dirty_count, failed_files,
  error_count, warn_count, cache_hits, duration_ms, valid
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(project_key, run_id) DO UPDATE SET
  ts_utc=excluded.ts_utc,
  file_count=excluded.file_count,
  dirty_count=excluded.dirty_count,
  failed_files=excluded.failed_files,
  error_count=excluded.error_count,
  warn_count=excluded.warn_count,
  cache_hits=excluded.cache_hits,
  duration_ms=excluded.duration_ms,
  valid=excluded.valid
`
	return s.withRetry("save run", func() error {
		_, err := s.db.Exec(
			query,
			projectKey,
			run.RunID,
			run.Timestamp.UTC().Format(time.RFC3339Nano),
			run.FileCount,
			run.DirtyCount,
			run.FailedFiles,
			run.ErrorCount,
			run.WarnCount,
			run.CacheHits,
			run.Duration.Milliseconds(),
			boolToInt(run.Valid),
		)
		return err
	})
}

func (s *Store) LoadRuns(projectKey string, since time.Time) ([]ports.RunSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projectKey = strings.TrimSpace(projectKey)
	if projectKey == "" {
		projectKey = "default"
	}

	base := `
SELECT run_id, ts_utc, file_count, dirty_count, failed_files,
       error_count, warn_count, cache_hits, duration_ms, valid
FROM runs
WHERE project_key = ?
`
	args := []interface{}{projectKey}
	if !since.IsZero() {
		base += " AND ts_utc >= ?"
		args = append(args, since.UTC().Format(time.RFC3339Nano))
	}
	base += " ORDER BY ts_utc ASC"

	var rows *sql.Rows
	err := s.withRetry("load runs", func() error {
		var qErr error
		rows, qErr = s.db.Query(base, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ports.RunSnapshot
	for rows.Next() {
		var (
			run        ports.RunSnapshot
			ts         string
			durationMS int64
			valid      int
		)
		if err := rows.Scan(
			&run.RunID, &ts, &run.FileCount, &run.DirtyCount, &run.FailedFiles,
			&run.ErrorCount, &run.WarnCount, &run.CacheHits, &durationMS, &valid,
		); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parse run timestamp %q: %w", ts, err)
		}
		run.Timestamp = parsed
		run.Duration = time.Duration(durationMS) * time.Millisecond
		run.Valid = valid != 0
		out = append(out, run)
	}
	return out, rows.Err()
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

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
