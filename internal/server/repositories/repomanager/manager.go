// Package repomanager vends the repository set over a concrete backend
// (PostgreSQL, SQLite or the in-memory store) and runs units of work against
// it, with or without a transaction.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/gophstore/internal/server/repositories"
)

// RepositoryManager runs units of work. Both Run and RunInTx report an
// optimistic-concurrency collision as an error wrapping common.ErrConflict.
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	// Run executes fn against repositories that are not in a transaction.
	Run(ctx context.Context, fn func(ctx context.Context, repos repositories.Set) error) error
	// RunInTx executes fn inside a transaction and commits when fn succeeds.
	RunInTx(ctx context.Context, fn func(ctx context.Context, repos repositories.Set) error) error
	Close() error
}
