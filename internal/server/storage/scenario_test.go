package storage

import (
	"bytes"
	"context"
	"testing"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenario_OverflowOwnershipAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pid, err := f.store.CreateProject(ctx, "u1", NewProject{Name: "P", Type: "YoungAndroid"})
	require.NoError(t, err)

	require.NoError(t, f.store.CreateProjectFiles(ctx, "u1", pid, models.RoleSource, []string{"a.txt"}))
	res := f.upload(t, "u1", pid, "a.txt", []byte("hi"))
	assert.False(t, res.TierChanged)

	res = f.upload(t, "u1", pid, "a.txt", bytes.Repeat([]byte{'z'}, 2*1024*1024))
	assert.True(t, res.TierChanged)

	fc, err := f.store.GetProjectFile(ctx, "u1", pid, "a.txt")
	require.NoError(t, err)
	require.Equal(t, models.TierBlob, fc.Tier)
	require.NotEmpty(t, fc.Locator)
	assert.Len(t, fc.Content, 2*1024*1024)

	_, err = f.store.GetProjectFile(ctx, "u2", pid, "a.txt")
	var unauth *common.UnauthorizedAccessError
	require.ErrorAs(t, err, &unauth)

	del, err := f.store.DeleteProjectFile(ctx, "u1", pid, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, fc.Locator, del.OverflowDeleted)

	names, err := f.store.ListProjectFiles(ctx, "u1", pid, models.RoleNone)
	require.NoError(t, err)
	assert.NotContains(t, names, "a.txt")
	assert.Empty(t, f.blobs.Keys())
}
