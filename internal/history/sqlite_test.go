//go:build !mips64 && !mips64le && !ppc64 && !s390x

package history

import (
	"fmt"
	"path/filepath"
	"testing"
)

func TestSQLiteStoreInsertAndRecent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.sqlite")
	s, err := NewSQLiteStore(path, 1000, nil)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer s.Close()

	for i := 0; i < 5; i++ {
		if err := s.Insert(inv(fmt.Sprintf("id-%d", i), int64(i))); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	got, err := s.Recent(2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "id-4" || got[1].ID != "id-3" {
		t.Errorf("Recent() order = %q, %q; want newest first", got[0].ID, got[1].ID)
	}
	if got[0].Command != "health" || got[0].Status != StatusSuccess {
		t.Errorf("row round-trip lost fields: %+v", got[0])
	}
}

func TestSQLiteStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.sqlite")

	s, err := NewSQLiteStore(path, 1000, nil)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	if err := s.Insert(inv("persisted", 42)); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	s2, err := NewSQLiteStore(path, 1000, nil)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s2.Close()

	n, err := s2.Count()
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Count() after reopen = %d, want 1", n)
	}
}

func TestSQLiteStorePrune(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.sqlite")
	s, err := NewSQLiteStore(path, 100, nil)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer s.Close()

	for i := 0; i < 150; i++ {
		if err := s.Insert(inv(fmt.Sprintf("id-%03d", i), int64(i))); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	// Pruning runs asynchronously after Insert; force a synchronous pass.
	s.maybePrune()

	n, err := s.Count()
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n > 100 {
		t.Errorf("Count() = %d after prune, want <= 100", n)
	}

	got, err := s.Recent(1)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if got[0].ID != "id-149" {
		t.Errorf("newest = %q, want id-149 (prune must drop oldest)", got[0].ID)
	}
}
