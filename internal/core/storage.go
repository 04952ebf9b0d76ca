package core

import (
	"fmt"
	"os"

	"fishynet/internal/infra/persistence/memory"
	"fishynet/pkg/domain"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// OpenPersistentStore selects a backend using environment variables.
// Defaults to sqlite when unset.
//
//	FISHYNET_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	FISHYNET_SQLITE_PATH: path to sqlite file (default ./fishynet.db)
//	FISHYNET_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenPersistentStore(engine *domain.RulesEngine) (domain.PersistentStore, error) {
	driver := os.Getenv("FISHYNET_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewStore(engine), nil
	case StorageSQLite:
		path := os.Getenv("FISHYNET_SQLITE_PATH")
		return NewSQLiteStore(path, engine)
	case StoragePostgres:
		dsn := os.Getenv("FISHYNET_POSTGRES_DSN")
		return NewPostgresStore(dsn, engine)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
