//go:build !mips64 && !mips64le && !ppc64 && !s390x

package history

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO required)
)

const schema = `
CREATE TABLE IF NOT EXISTS invocations (
    id TEXT PRIMARY KEY,
    ts INTEGER NOT NULL,
    command TEXT NOT NULL,
    endpoint TEXT,
    status TEXT NOT NULL,
    http_status INTEGER DEFAULT 0,
    duration_ms INTEGER DEFAULT 0,
    error_class TEXT
);

CREATE INDEX IF NOT EXISTS idx_invocations_ts ON invocations(ts);
`

// SQLiteStore implements Store using SQLite with WAL mode.
type SQLiteStore struct {
	db      *sql.DB
	maxRows int
	pruneMu sync.Mutex
	logger  *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// It enables WAL mode for better concurrent performance.
func NewSQLiteStore(path string, maxRows int, logger *slog.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_journal=WAL&_sync=NORMAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	// SQLite works best with a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &SQLiteStore{
		db:      db,
		maxRows: maxRows,
		logger:  logger,
	}, nil
}

// Insert records a completed invocation.
func (s *SQLiteStore) Insert(inv *Invocation) error {
	_, err := s.db.Exec(`
		INSERT INTO invocations (id, ts, command, endpoint, status, http_status, duration_ms, error_class)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		inv.ID, inv.TS, inv.Command, inv.Endpoint, string(inv.Status),
		inv.HTTPStatus, inv.DurationMs, inv.ErrorClass,
	)
	if err != nil {
		return fmt.Errorf("insert invocation: %w", err)
	}

	// Pruning is best effort and off the caller's path.
	go s.maybePrune()

	return nil
}

// Recent returns up to limit invocations, newest first.
func (s *SQLiteStore) Recent(limit int) ([]Invocation, error) {
	if limit <= 0 {
		limit = s.maxRows
	}

	rows, err := s.db.Query(`
		SELECT id, ts, command, endpoint, status, http_status, duration_ms, error_class
		FROM invocations ORDER BY ts DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query invocations: %w", err)
	}
	defer rows.Close()

	var out []Invocation
	for rows.Next() {
		var inv Invocation
		var endpoint, errorClass sql.NullString
		if err := rows.Scan(&inv.ID, &inv.TS, &inv.Command, &endpoint, &inv.Status,
			&inv.HTTPStatus, &inv.DurationMs, &errorClass); err != nil {
			return nil, fmt.Errorf("scan invocation: %w", err)
		}
		inv.Endpoint = endpoint.String
		inv.ErrorClass = errorClass.String
		out = append(out, inv)
	}
	return out, rows.Err()
}

// Count returns the number of stored invocations.
func (s *SQLiteStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM invocations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count invocations: %w", err)
	}
	return n, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// maybePrune deletes the oldest rows once the table exceeds maxRows.
func (s *SQLiteStore) maybePrune() {
	s.pruneMu.Lock()
	defer s.pruneMu.Unlock()

	n, err := s.Count()
	if err != nil {
		s.logger.Error("prune count query failed", "err", err)
		return
	}
	if n <= s.maxRows {
		return
	}

	toDelete := n - s.maxRows
	_, err = s.db.Exec(`
		DELETE FROM invocations WHERE id IN (
			SELECT id FROM invocations ORDER BY ts ASC, id ASC LIMIT ?
		)
	`, toDelete)
	if err != nil {
		s.logger.Error("prune failed", "err", err)
		return
	}
	s.logger.Debug("pruned old invocations", "deleted", toDelete)
}
