package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestNewPostgresRepositoryManager_ReturnsInterface(t *testing.T) {
	db, _ := newDB(t)

	var m RepositoryManager = NewPostgresRepositoryManager(db)
	assert.NotNil(t, m)
}

func TestSQLSet_ReturnsConcreteRepos(t *testing.T) {
	db, _ := newDB(t)

	var s repositories.Set = sqlSet{db: db}
	assert.NotNil(t, s.Users())
	assert.NotNil(t, s.Projects())
	assert.NotNil(t, s.UserProjects())
	assert.NotNil(t, s.Files())
	assert.NotNil(t, s.UserFiles())
	assert.NotNil(t, s.Nonces())
	assert.NotNil(t, s.ResetTokens())
	assert.NotNil(t, s.Records())
	assert.NotNil(t, s.Corruption())
}

func TestRunInTx_Commits(t *testing.T) {
	db, mock := newDB(t)
	m := NewPostgresRepositoryManager(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM nonces`).WithArgs("n").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := m.RunInTx(context.Background(), func(ctx context.Context, repos repositories.Set) error {
		return repos.Nonces().Delete(ctx, "n")
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInTx_RollsBackOnError(t *testing.T) {
	db, mock := newDB(t)
	m := NewPostgresRepositoryManager(db)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := m.RunInTx(context.Background(), func(ctx context.Context, repos repositories.Set) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInTx_SerializationFailureIsConflict(t *testing.T) {
	db, mock := newDB(t)
	m := NewPostgresRepositoryManager(db)

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(&pgconn.PgError{Code: "40001", Message: "could not serialize access"})

	err := m.RunInTx(context.Background(), func(ctx context.Context, repos repositories.Set) error {
		return nil
	})
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestRun_NoTransaction(t *testing.T) {
	db, mock := newDB(t)
	m := NewPostgresRepositoryManager(db)

	mock.ExpectExec(`DELETE FROM records`).WithArgs("motd", "").WillReturnResult(sqlmock.NewResult(0, 1))

	err := m.Run(context.Background(), func(ctx context.Context, repos repositories.Set) error {
		return repos.Records().Delete(ctx, "motd", "")
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsPostgresConflict(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"serialization", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"wrapped", fmt.Errorf("db error: %w", &pgconn.PgError{Code: "40001"}), true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"plain", errors.New("x"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isPostgresConflict(tt.err))
		})
	}
}

func TestIsSQLiteConflict_NonSQLiteError(t *testing.T) {
	assert.False(t, isSQLiteConflict(errors.New("database is locked")))
}

func TestRunMigrations_Success(t *testing.T) {
	db, _ := newDB(t)

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		if dir != "." {
			return errors.New("unexpected dir")
		}
		if len(opts) != 0 {
			return errors.New("unexpected opts")
		}
		return nil
	}
	defer func() { gooseUpContext = orig }()

	m := NewPostgresRepositoryManager(db)
	assert.NoError(t, m.RunMigrations(context.Background()))
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	m := NewPostgresRepositoryManager(db)
	err := m.RunMigrations(context.Background())
	require.Error(t, err)
	assert.Equal(t, "boom", err.Error())
}
