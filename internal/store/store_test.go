package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// newTestStore opens a store in a fresh temp directory.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		t.Fatal("database file should not exist before creating store")
	}

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatal("database file should exist after creating store")
	}
	if s.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", s.Path(), dbPath)
	}
}

func TestNewStore_RunsMigrations(t *testing.T) {
	s := newTestStore(t)

	for _, table := range []string{"runs", "snapshots", "settings"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q should exist after migrations: %v", table, err)
		}
	}

	var name string
	err := s.DB().QueryRow(
		"SELECT name FROM sqlite_master WHERE type='index' AND name=?",
		"idx_snapshots_run_id",
	).Scan(&name)
	if err != nil {
		t.Errorf("snapshot index should exist after migrations: %v", err)
	}
}

func TestStore_Close(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("close should not return error: %v", err)
	}
	if _, err := s.DB().Exec("SELECT 1"); err == nil {
		t.Error("DB operations should fail after close")
	}
}

func TestStore_ForeignKeysEnabled(t *testing.T) {
	s := newTestStore(t)

	var fkEnabled int
	if err := s.DB().QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled); err != nil {
		t.Fatalf("failed to check foreign keys pragma: %v", err)
	}
	if fkEnabled != 1 {
		t.Error("foreign keys should be enabled")
	}
}

func TestStore_Settings(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Setting(SettingLastRun); !errors.Is(err, ErrNotFound) {
		t.Errorf("Setting() error = %v, want ErrNotFound", err)
	}
	if err := s.SetSetting(SettingLastRun, "a"); err != nil {
		t.Fatalf("SetSetting() failed: %v", err)
	}
	if err := s.SetSetting(SettingLastRun, "b"); err != nil {
		t.Fatalf("SetSetting() overwrite failed: %v", err)
	}
	got, err := s.Setting(SettingLastRun)
	if err != nil {
		t.Fatalf("Setting() failed: %v", err)
	}
	if got != "b" {
		t.Errorf("Setting() = %q, want %q", got, "b")
	}
}
