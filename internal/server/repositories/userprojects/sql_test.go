package userprojects

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

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

var linkColumns = []string{"user_id", "project_id", "settings", "state"}

func TestGet(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)FROM\s+user_projects\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+project_id\s*=\s*\$2`).
		WithArgs("u-1", int64(3)).
		WillReturnRows(sqlmock.NewRows(linkColumns).AddRow("u-1", int64(3), "s", int64(models.ProjectOpen)))

	up, err := repo.Get(context.Background(), "u-1", 3)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectOpen, up.State)
	assert.Equal(t, "s", up.Settings)
}

func TestGet_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM\s+user_projects`).WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "u-1", 3)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestPut(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`(?s)INSERT\s+INTO\s+user_projects.*ON\s+CONFLICT\s*\(user_id,\s*project_id\)`).
		WithArgs("u-1", int64(3), "", int64(models.ProjectDeleted)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Put(context.Background(), &models.UserProject{UserID: "u-1", ProjectID: 3, State: models.ProjectDeleted}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByUser(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)FROM\s+user_projects\s+WHERE\s+user_id\s*=\s*\$1\s+ORDER\s+BY\s+project_id`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(linkColumns).
			AddRow("u-1", int64(1), "", int64(0)).
			AddRow("u-1", int64(2), "", int64(1)))

	got, err := repo.ListByUser(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[1].ProjectID)
	assert.Equal(t, models.ProjectOpen, got[1].State)
}

func TestListByUser_Error(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM\s+user_projects`).WillReturnError(errors.New("down"))

	_, err := repo.ListByUser(context.Background(), "u-1")
	assert.Regexp(t, `failed to select user projects: .*down`, err.Error())
}

func TestDelete(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM user_projects WHERE user_id = $1 AND project_id = $2`)).
		WithArgs("u-1", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "u-1", 3))
}
