package repomanager

import (
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/gophstore/internal/server/config"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/memory"
)

// sqlOpen is a seam for testing sql.Open.
var sqlOpen = sql.Open

// Open returns the manager selected by cfg.DatabaseDriver.
func Open(cfg *config.Config) (RepositoryManager, error) {
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		db, err := sqlOpen("pgx", cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db open error: %w", err)
		}
		return NewPostgresRepositoryManager(db), nil
	case config.DriverSQLite:
		db, err := sqlOpen("sqlite", cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db open error: %w", err)
		}
		// a single connection serialises writers instead of failing them with SQLITE_BUSY
		db.SetMaxOpenConns(1)
		return NewSQLiteRepositoryManager(db), nil
	case config.DriverMemory:
		return memory.NewManager(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.DatabaseDriver)
	}
}
