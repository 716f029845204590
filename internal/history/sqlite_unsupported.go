//go:build mips64 || mips64le || ppc64 || s390x

package history

import (
	"errors"
	"log/slog"
)

// SQLiteStore is a stub for platforms the pure-Go driver does not support.
type SQLiteStore struct{}

// NewSQLiteStore returns an error on unsupported platforms; callers should
// fall back to the memory store.
func NewSQLiteStore(path string, maxRows int, logger *slog.Logger) (*SQLiteStore, error) {
	return nil, errors.New("sqlite history is not supported on this platform, use memory history instead")
}

func (s *SQLiteStore) Insert(*Invocation) error { return errors.New("sqlite history not available") }

func (s *SQLiteStore) Recent(int) ([]Invocation, error) {
	return nil, errors.New("sqlite history not available")
}

func (s *SQLiteStore) Count() (int, error) { return 0, errors.New("sqlite history not available") }

func (s *SQLiteStore) Close() error { return nil }
