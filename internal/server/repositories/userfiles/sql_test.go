package userfiles

import (
	"context"
	"database/sql"
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

func TestGet(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT user_id, name, content FROM user_files WHERE user_id = $1 AND name = $2`)).
		WithArgs("u-1", "android.keystore").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "name", "content"}).AddRow("u-1", "android.keystore", []byte{1, 2}))

	f, err := repo.Get(context.Background(), "u-1", "android.keystore")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, f.Content)
}

func TestGet_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM user_files`).WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "u-1", "x")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestPut(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`(?s)INSERT\s+INTO\s+user_files.*ON\s+CONFLICT\s*\(user_id,\s*name\)`).
		WithArgs("u-1", "k", []byte("data")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Put(context.Background(), &models.UserFile{UserID: "u-1", Name: "k", Content: []byte("data")}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByUser(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT name FROM user_files WHERE user_id = \$1 ORDER BY name`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("a").AddRow("b"))

	names, err := repo.ListByUser(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)
}

func TestDelete(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM user_files WHERE user_id = $1 AND name = $2`)).
		WithArgs("u-1", "k").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "u-1", "k"))
}
