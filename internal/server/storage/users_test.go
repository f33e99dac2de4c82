package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindOrCreateUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.store.FindOrCreateUser(ctx, "u1", "Alice@Example.com", false)
	require.NoError(t, err)
	assert.True(t, u.TosAccepted)
	assert.Equal(t, "alice@example.com", u.EmailLower)

	again, err := f.store.FindOrCreateUser(ctx, "u1", "other@example.com", true)
	require.NoError(t, err)
	assert.Equal(t, "Alice@Example.com", again.Email)

	_, err = f.store.FindOrCreateUser(ctx, "u2", "ALICE@example.com", false)
	assert.ErrorIs(t, err, common.ErrDuplicateUser)

	u2, err := f.store.FindOrCreateUser(ctx, "u2", "bob@example.com", true)
	require.NoError(t, err)
	assert.False(t, u2.TosAccepted)

	found, err := f.store.FindUserByEmail(ctx, "BOB@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Equal(t, "u2", found.ID)

	_, err = f.store.FindUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestFindOrCreateUserByEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.store.FindOrCreateUserByEmail(ctx, "Carol@Example.com", true)
	require.NoError(t, err)
	assert.Equal(t, "id1", u.ID)
	assert.False(t, u.TosAccepted)
	assert.Equal(t, t0, u.Visited)

	again, err := f.store.FindOrCreateUserByEmail(ctx, "carol@example.com", false)
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)

	_, err = f.store.FindOrCreateUser(ctx, "u9", "CAROL@example.com", false)
	assert.ErrorIs(t, err, common.ErrDuplicateUser)

	_, err = f.store.FindOrCreateUserByEmail(ctx, "", false)
	assert.Error(t, err)
}

func TestFindOrCreateUser_ConcurrentSameEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.store.FindOrCreateUser(ctx, fmt.Sprintf("u%d", i), "same@example.com", false)
		}()
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, common.ErrDuplicateUser)
	}
	assert.Equal(t, 1, created)
}

func TestUserSetters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.store.FindOrCreateUser(ctx, "u1", "a@example.com", true)
	require.NoError(t, err)
	_, err = f.store.FindOrCreateUser(ctx, "u2", "b@example.com", true)
	require.NoError(t, err)

	require.NoError(t, f.store.SetUserEmail(ctx, "u1", "A2@example.com"))
	require.NoError(t, f.store.SetUserPassword(ctx, "u1", "hashed"))
	require.NoError(t, f.store.SetUserSessionID(ctx, "u1", "sess"))
	require.NoError(t, f.store.SetUserName(ctx, "u1", "Alice"))
	require.NoError(t, f.store.SetTosAccepted(ctx, "u1"))
	require.NoError(t, f.store.SetUserAdmin(ctx, "u1", true))
	require.NoError(t, f.store.StoreUserSettings(ctx, "u1", "{}"))

	u, err := f.store.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "A2@example.com", u.Email)
	assert.Equal(t, "a2@example.com", u.EmailLower)
	assert.Equal(t, "hashed", u.Password)
	assert.Equal(t, "sess", u.SessionID)
	assert.Equal(t, "Alice", u.Name)
	assert.True(t, u.TosAccepted)
	assert.True(t, u.IsAdmin)

	settings, err := f.store.LoadUserSettings(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "{}", settings)

	err = f.store.SetUserEmail(ctx, "u1", "B@example.com")
	assert.ErrorIs(t, err, common.ErrDuplicateUser)

	err = f.store.SetUserName(ctx, "missing", "x")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestTouchUser_Coalesces(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.store.FindOrCreateUser(ctx, "u1", "a@example.com", false)
	require.NoError(t, err)

	f.clock.Advance(10 * time.Second)
	visited, err := f.store.TouchUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, t0, visited)

	f.clock.Advance(61 * time.Second)
	visited, err = f.store.TouchUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, t0.Add(71*time.Second), visited)
}

func TestDeleteUser_Cascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.store.FindOrCreateUser(ctx, "u1", "a@example.com", false)
	require.NoError(t, err)
	pid := f.project(t, "u1")
	f.upload(t, "u1", pid, "a.bin", make([]byte, big))
	require.NoError(t, f.store.UploadUserFile(ctx, "u1", "android.keystore", []byte("ks")))

	require.NoError(t, f.store.DeleteUser(ctx, "u1"))

	_, err = f.store.GetUser(ctx, "u1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	projects, err := f.store.GetProjects(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, projects)
	files, err := f.store.ListUserFiles(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, files)
	assert.Empty(t, f.blobs.Keys())

	_, err = f.store.FindUserByEmail(ctx, "a@example.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestUserFiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.UploadUserFile(ctx, "u1", "b.keystore", []byte("b")))
	require.NoError(t, f.store.UploadUserFile(ctx, "u1", "a.keystore", nil))
	require.NoError(t, f.store.UploadUserFile(ctx, "u2", "c.keystore", []byte("c")))

	names, err := f.store.ListUserFiles(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.keystore", "b.keystore"}, names)

	data, err := f.store.DownloadUserFile(ctx, "u1", "b.keystore")
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), data)

	_, err = f.store.DownloadUserFile(ctx, "u1", "c.keystore")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	require.NoError(t, f.store.DeleteUserFile(ctx, "u1", "b.keystore"))
	names, err = f.store.ListUserFiles(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.keystore"}, names)
}
