package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

// ValidationRecord is one published diagnostics set. The store is an
// activity log for the health surface; cached analysis never crosses
// process restarts through it.
type ValidationRecord struct {
	SessionID       string
	URI             string
	DiagnosticCount int
	Duration        time.Duration
	Timestamp       time.Time
}

type Store struct {
	path      string
	sessionID string
	db        *sql.DB
	mu        sync.Mutex
}

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
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)", cleanPath)
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
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{
		path:      cleanPath,
		sessionID: uuid.NewString(),
		db:        db,
	}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SessionID identifies the current server process in stored rows.
func (s *Store) SessionID() string {
	if s == nil {
		return ""
	}
	return s.sessionID
}

// SaveValidation appends one validation record. A nil store is a no-op
// so callers can leave history disabled without guarding every call.
func (s *Store) SaveValidation(rec ValidationRecord) error {
	if s == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.SessionID == "" {
		rec.SessionID = s.sessionID
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	_, err := s.db.Exec(`
INSERT INTO validations (session_id, uri, diagnostic_count, duration_ms, ts_utc)
VALUES (?, ?, ?, ?, ?)`,
		rec.SessionID,
		rec.URI,
		rec.DiagnosticCount,
		rec.Duration.Milliseconds(),
		rec.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save validation record: %w", err)
	}
	return nil
}

// Recent returns the most recent validation records, newest first.
func (s *Store) Recent(limit int) ([]ValidationRecord, error) {
	if s == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
SELECT session_id, uri, diagnostic_count, duration_ms, ts_utc
FROM validations
ORDER BY ts_utc DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query validation records: %w", err)
	}
	defer rows.Close()

	records := make([]ValidationRecord, 0, limit)
	for rows.Next() {
		var (
			rec        ValidationRecord
			durationMS int64
			ts         string
		)
		if err := rows.Scan(&rec.SessionID, &rec.URI, &rec.DiagnosticCount, &durationMS, &ts); err != nil {
			return nil, fmt.Errorf("scan validation record: %w", err)
		}
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			rec.Timestamp = parsed
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
