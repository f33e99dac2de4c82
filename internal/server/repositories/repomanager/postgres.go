package repomanager

import (
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/gophstore/internal/dbx"
	"github.com/dmitrijs2005/gophstore/internal/server/migrations"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// isPostgresConflict recognises the SQLSTATEs PostgreSQL uses when a
// serializable transaction loses a race.
func isPostgresConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
}

// NewPostgresRepositoryManager builds a manager whose transactions run at
// SERIALIZABLE isolation, which gives entity-group conflict detection.
func NewPostgresRepositoryManager(db *sql.DB) *SQLRepositoryManager {
	return &SQLRepositoryManager{
		runner: &dbx.Runner{
			DB:         db,
			TxOptions:  &sql.TxOptions{Isolation: sql.LevelSerializable},
			IsConflict: isPostgresConflict,
		},
		dialect:    "postgres",
		migrations: migrations.Postgres(),
	}
}
