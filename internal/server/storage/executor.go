package storage

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories"
)

// Attempt is one run of a job. Repos is bound to the attempt's unit of work
// and must not be used after the job returns.
type Attempt struct {
	Repos  repositories.Set
	Number int

	store    *Store
	created  []string
	obsolete []string
}

// PutBlob writes an overflow object. If the attempt does not commit, the
// object is deleted before the executor retries or returns.
func (a *Attempt) PutBlob(ctx context.Context, key string, data []byte) error {
	if err := a.store.blobs.Put(ctx, key, data); err != nil {
		return err
	}
	a.created = append(a.created, key)
	return nil
}

// DeleteAfterCommit schedules an overflow object for deletion once the
// attempt has committed. Nothing is deleted if it fails.
func (a *Attempt) DeleteAfterCommit(key string) {
	a.obsolete = append(a.obsolete, key)
}

// Job is a unit of work. Returning an error wrapping common.ErrConflict asks
// for a retry; any other error is final.
type Job[T any] func(ctx context.Context, a *Attempt) (T, error)

// RunJob runs job, inside a transaction when useTx is set, retrying it from
// the start on conflicts. After Config.MaxJobAttempts conflicting attempts it
// gives up with *common.StorageExhaustedError. Other errors are returned as
// the job produced them.
func RunJob[T any](ctx context.Context, s *Store, useTx bool, job Job[T]) (T, error) {
	var zero T

	run := s.repos.Run
	if useTx {
		run = s.repos.RunInTx
	}

	var lastErr error
	for n := 1; n <= s.cfg.MaxJobAttempts; n++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		a := &Attempt{Number: n, store: s}
		var result T
		err := run(ctx, func(ctx context.Context, repos repositories.Set) error {
			a.Repos = repos
			var err error
			result, err = job(ctx, a)
			return err
		})

		if err == nil {
			s.deleteBlobs(ctx, a.obsolete, "obsolete")
			return result, nil
		}

		s.deleteBlobs(ctx, a.created, "abandoned")
		if !errors.Is(err, common.ErrConflict) {
			return zero, err
		}
		lastErr = err
		s.logger.Debug(ctx, "job conflicted", "attempt", n, "error", err)
	}

	s.logger.Warn(ctx, "job retries exhausted", "attempts", s.cfg.MaxJobAttempts, "error", lastErr)
	return zero, &common.StorageExhaustedError{Attempts: s.cfg.MaxJobAttempts, Err: lastErr}
}

// deleteBlobs is best effort: failures are logged and otherwise ignored.
func (s *Store) deleteBlobs(ctx context.Context, keys []string, reason string) {
	for _, key := range keys {
		if err := s.blobs.Delete(context.WithoutCancel(ctx), key); err != nil {
			s.logger.Warn(ctx, "blob cleanup failed", "key", key, "reason", reason, "error", err)
		}
	}
}
