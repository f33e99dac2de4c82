package repomanager

import (
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/gophstore/internal/dbx"
	"github.com/dmitrijs2005/gophstore/internal/server/migrations"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// isSQLiteConflict treats a busy or locked database as a lost race.
func isSQLiteConflict(err error) bool {
	var sqErr *sqlite.Error
	if !errors.As(err, &sqErr) {
		return false
	}
	switch sqErr.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	default:
		return false
	}
}

// NewSQLiteRepositoryManager builds a manager over an SQLite database.
// SQLite transactions are serializable already.
func NewSQLiteRepositoryManager(db *sql.DB) *SQLRepositoryManager {
	return &SQLRepositoryManager{
		runner: &dbx.Runner{
			DB:         db,
			IsConflict: isSQLiteConflict,
		},
		dialect:    "sqlite3",
		migrations: migrations.SQLite(),
	}
}
