// Package dbx provides the small database/sql layer shared by the SQL
// repositories: a DBTX interface implemented by both *sql.DB and *sql.Tx, a
// helper to run functions inside a transaction, and a Runner that maps
// driver-specific concurrency failures onto common.ErrConflict.
package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophstore/internal/common"
)

// DBTX is the subset of database/sql used by our repos.
// Both *sql.DB and *sql.Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx begins a transaction, runs fn with a transactional handle, and then
// commits on success or rolls back on error/panic. Panics are rethrown.
//
// Typical use:
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    _, err := tx.ExecContext(ctx, "UPDATE ...")
//	    return err
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}

// ConflictClassifier reports whether err is the database's way of saying a
// transaction lost an optimistic-concurrency race.
type ConflictClassifier func(err error) bool

// Runner executes units of work against DB. Errors recognised by IsConflict,
// including those surfacing at commit time, are returned wrapped in
// common.ErrConflict so callers can decide to retry.
type Runner struct {
	DB         *sql.DB
	TxOptions  *sql.TxOptions
	IsConflict ConflictClassifier
}

// InTx runs fn inside a single transaction.
func (r *Runner) InTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	return r.classify(WithTx(ctx, r.DB, r.TxOptions, fn))
}

// Direct runs fn against the pool without a transaction.
func (r *Runner) Direct(ctx context.Context, fn func(ctx context.Context, db DBTX) error) error {
	return r.classify(fn(ctx, r.DB))
}

func (r *Runner) classify(err error) error {
	if err == nil || errors.Is(err, common.ErrConflict) {
		return err
	}
	if r.IsConflict != nil && r.IsConflict(err) {
		return fmt.Errorf("%w: %v", common.ErrConflict, err)
	}
	return err
}
