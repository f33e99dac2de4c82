package corruption

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
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

func TestAdd(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`(?s)INSERT\s+INTO\s+corruption_records\s*\(ts,\s*user_id,\s*project_id,\s*file_name,\s*message\)`).
		WithArgs(int64(1000), "u-1", int64(3), "src/a.bky", "shrunk").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Add(context.Background(), &models.CorruptionRecord{
		Timestamp: time.UnixMilli(1000), UserID: "u-1", ProjectID: 3, FileName: "src/a.bky", Message: "shrunk",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdd_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`INSERT\s+INTO\s+corruption_records`).WillReturnError(errors.New("boom"))

	err := repo.Add(context.Background(), &models.CorruptionRecord{})
	assert.Regexp(t, `db error: .*boom`, err.Error())
}

func TestListByProject(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)FROM\s+corruption_records\s+WHERE\s+project_id\s*=\s*\$1\s+ORDER\s+BY\s+ts,\s*id`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"ts", "user_id", "project_id", "file_name", "message"}).
			AddRow(int64(1000), "u-1", int64(3), "src/a.bky", "shrunk"))

	got, err := repo.ListByProject(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "shrunk", got[0].Message)
	assert.Equal(t, int64(1000), got[0].Timestamp.UnixMilli())
}
