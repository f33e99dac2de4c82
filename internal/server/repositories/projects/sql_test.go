package projects

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*SQLRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLRepository(db), mock
}

func TestCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	now := time.UnixMilli(1700000000000)
	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+projects\s*\(.*\)\s*VALUES\s*\(.*\)\s*RETURNING\s+id$`).
		WithArgs("Hello", "YoungAndroid", "{}", int64(1700000000000), int64(1700000000000), int64(0), false, "").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	p := &models.Project{Name: "Hello", Type: "YoungAndroid", Settings: "{}", DateCreated: now, DateModified: now}
	id, err := repo.Create(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, int64(42), p.ID)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT\s+INTO\s+projects`).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.Project{Name: "x"})
	assert.Regexp(t, `db error: .*db down`, err.Error())
}

func TestGet(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)FROM\s+projects\s+WHERE\s+id\s*=\s*\$1`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "type", "settings", "date_created", "date_modified", "date_built", "trashed", "history"}).
			AddRow(int64(42), "Hello", "YoungAndroid", "{}", int64(1000), int64(2000), int64(0), true, "h"))

	p, err := repo.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "Hello", p.Name)
	assert.True(t, p.Trashed)
	assert.Equal(t, int64(2000), p.DateModified.UnixMilli())
	assert.True(t, p.DateBuilt.IsZero())
}

func TestGet_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM\s+projects`).WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), 1)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestPut(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`(?s)^UPDATE\s+projects\s+SET\s+name\s*=\s*\$2,.*WHERE\s+id\s*=\s*\$1$`).
		WithArgs(int64(42), "Hello", "", "", int64(0), int64(5000), int64(0), false, "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Put(context.Background(), &models.Project{ID: 42, Name: "Hello", DateModified: time.UnixMilli(5000)})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPut_Missing(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`UPDATE\s+projects`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Put(context.Background(), &models.Project{ID: 42})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDelete(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM projects WHERE id = $1`)).
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), 42))
}
