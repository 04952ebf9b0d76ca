package core

import (
	"fishynet/internal/infra/persistence/sqlite"
	"fishynet/pkg/domain"
)

// NewSQLiteStore constructs a SQLite-backed persistent store using the
// provided file path (may be empty for default) and rules engine.
func NewSQLiteStore(path string, engine *domain.RulesEngine) (*sqlite.Store, error) {
	return sqlite.NewStore(path, engine)
}
