package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/logging"
	"github.com/dmitrijs2005/gophstore/internal/server/blobstore"
	"github.com/dmitrijs2005/gophstore/internal/server/config"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	store   *Store
	repos   *memory.Manager
	blobs   *blobstore.Memory
	archive *blobstore.Memory
	clock   *fakeClock
	cfg     *config.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()

	f := &fixture{
		repos:   memory.NewManager(),
		blobs:   blobstore.NewMemory(),
		archive: blobstore.NewMemory(),
		clock:   &fakeClock{t: t0},
		cfg:     cfg,
	}

	var ids atomic.Int64
	s, err := New(Options{
		Manager: f.repos,
		Blobs:   f.blobs,
		Archive: f.archive,
		Config:  cfg,
		Logger:  logging.Discard(),
		Now:     f.clock.Now,
		NewID:   func() string { return fmt.Sprintf("id%d", ids.Add(1)) },
	})
	require.NoError(t, err)
	f.store = s
	return f
}

func conflict() error {
	return fmt.Errorf("%w: test", common.ErrConflict)
}

func TestNew_Validation(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	m := memory.NewManager()
	b := blobstore.NewMemory()

	tests := []struct {
		name string
		opts Options
	}{
		{"no manager", Options{Blobs: b, Config: cfg}},
		{"no blobs", Options{Manager: m, Config: cfg}},
		{"no config", Options{Manager: m, Blobs: b}},
		{"no attempts", Options{Manager: m, Blobs: b, Config: &config.Config{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts)
			assert.Error(t, err)
		})
	}

	s, err := New(Options{Manager: m, Blobs: b, Config: cfg})
	require.NoError(t, err)
	assert.Same(t, cfg, s.Config())
}

func TestRunJob_ExhaustsAfterMaxAttempts(t *testing.T) {
	for _, useTx := range []bool{false, true} {
		t.Run(fmt.Sprintf("tx=%v", useTx), func(t *testing.T) {
			f := newFixture(t)
			calls := 0

			_, err := RunJob(context.Background(), f.store, useTx, func(ctx context.Context, a *Attempt) (int, error) {
				calls++
				assert.Equal(t, calls, a.Number)
				return 0, conflict()
			})

			require.Error(t, err)
			assert.Equal(t, 10, calls)
			assert.ErrorIs(t, err, common.ErrStorageExhausted)
			assert.ErrorIs(t, err, common.ErrConflict)

			var exhausted *common.StorageExhaustedError
			require.ErrorAs(t, err, &exhausted)
			assert.Equal(t, 10, exhausted.Attempts)
		})
	}
}

func TestRunJob_ConflictConflictSuccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	got, err := RunJob(ctx, f.store, true, func(ctx context.Context, a *Attempt) (int, error) {
		if err := a.PutBlob(ctx, fmt.Sprintf("blob-%d", a.Number), []byte("x")); err != nil {
			return 0, err
		}
		if a.Number < 3 {
			return 0, conflict()
		}
		return a.Number, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, got)
	assert.Equal(t, []string{"blob-3"}, f.blobs.Keys())
}

func TestRunJob_RejectionIsNotRetried(t *testing.T) {
	f := newFixture(t)
	reject := errors.New("rejected")
	calls := 0

	_, err := RunJob(context.Background(), f.store, true, func(ctx context.Context, a *Attempt) (struct{}, error) {
		calls++
		require.NoError(t, a.PutBlob(ctx, "orphan", []byte("x")))
		return struct{}{}, reject
	})

	assert.ErrorIs(t, err, reject)
	assert.Equal(t, 1, calls)
	assert.Empty(t, f.blobs.Keys())
}

func TestRunJob_CommitConflictsAreRetried(t *testing.T) {
	f := newFixture(t)
	f.repos.FailCommits(2)
	calls := 0

	_, err := RunJob(context.Background(), f.store, true, func(ctx context.Context, a *Attempt) (struct{}, error) {
		calls++
		return struct{}{}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 1, f.repos.Commits())
}

func TestRunJob_DeleteAfterCommit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.blobs.Put(ctx, "old", []byte("x")))

	f.repos.FailCommits(1)
	_, err := RunJob(ctx, f.store, true, func(ctx context.Context, a *Attempt) (struct{}, error) {
		a.DeleteAfterCommit("old")
		if a.Number == 1 {
			// the first commit fails: "old" must survive it
			assert.Equal(t, []string{"old"}, f.blobs.Keys())
		}
		return struct{}{}, nil
	})

	require.NoError(t, err)
	assert.Empty(t, f.blobs.Keys())
}

func TestRunJob_CleanupFailuresAreNotReturned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.blobs.Put(ctx, "old", []byte("x")))
	f.blobs.FailDeletes(errors.New("boom"))

	_, err := RunJob(ctx, f.store, true, func(ctx context.Context, a *Attempt) (struct{}, error) {
		a.DeleteAfterCommit("old")
		return struct{}{}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"old"}, f.blobs.Keys())
}

func TestRunJob_StopsOnCancelledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	_, err := RunJob(ctx, f.store, true, func(ctx context.Context, a *Attempt) (struct{}, error) {
		calls++
		cancel()
		return struct{}{}, conflict()
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestPing(t *testing.T) {
	f := newFixture(t)
	assert.NoError(t, f.store.Ping(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, f.store.Ping(ctx), context.Canceled)
}
