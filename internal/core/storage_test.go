package core

import (
	"path/filepath"
	"testing"

	"fishynet/internal/infra/persistence/memory"
	"fishynet/internal/infra/persistence/sqlite"
)

func TestOpenPersistentStoreMemory(t *testing.T) {
	t.Setenv("FISHYNET_STORAGE_DRIVER", "memory")
	store, err := OpenPersistentStore(NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := store.(*memory.Store); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
}

func TestOpenPersistentStoreSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.db")
	t.Setenv("FISHYNET_STORAGE_DRIVER", "sqlite")
	t.Setenv("FISHYNET_SQLITE_PATH", path)
	store, err := OpenPersistentStore(NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	s, ok := store.(*sqlite.Store)
	if !ok {
		t.Fatalf("expected sqlite store, got %T", store)
	}
	defer func() { _ = s.Close() }()
	if s.Path() != path {
		t.Fatalf("sqlite path = %s, want %s", s.Path(), path)
	}
}

func TestOpenPersistentStoreUnknownDriver(t *testing.T) {
	t.Setenv("FISHYNET_STORAGE_DRIVER", "etcd")
	if _, err := OpenPersistentStore(NewDefaultRulesEngine()); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}
