// Package common defines sentinel and typed errors shared by the storage
// engine, its repositories and the process shell. Callers should use
// errors.Is / errors.As to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// ErrConflict marks an optimistic-concurrency collision. It is the only
	// error the job executor retries.
	ErrConflict = errors.New("concurrent modification conflict")

	// Service-level errors.
	ErrorUnauthorized   = errors.New("unauthorized")
	ErrStorageExhausted = errors.New("storage retries exhausted")

	// File-specific errors.
	ErrRoleImmutable       = errors.New("file role is immutable")
	ErrTruncationSuspected = errors.New("file truncation suspected")

	// User-specific errors.
	ErrDuplicateUser = errors.New("duplicate user")

	// Token lifecycle errors.
	ErrNonceExpired = errors.New("nonce expired")
	ErrInvalidToken = errors.New("invalid token")
)

// StorageExhaustedError is returned when a job kept conflicting until the
// executor ran out of attempts.
type StorageExhaustedError struct {
	Attempts int
	Err      error
}

func (e *StorageExhaustedError) Error() string {
	return fmt.Sprintf("storage retries exhausted after %d attempts: %v", e.Attempts, e.Err)
}

func (e *StorageExhaustedError) Is(target error) bool { return target == ErrStorageExhausted }

func (e *StorageExhaustedError) Unwrap() error { return e.Err }

// RoleImmutableError reports an attempt to re-add a file under another role.
type RoleImmutableError struct {
	ProjectID int64
	FileName  string
	Existing  string
	Requested string
}

func (e *RoleImmutableError) Error() string {
	return fmt.Sprintf("file %q in project %d already has role %s, cannot use it as %s",
		e.FileName, e.ProjectID, e.Existing, e.Requested)
}

func (e *RoleImmutableError) Is(target error) bool { return target == ErrRoleImmutable }

// UnauthorizedAccessError reports access to a file owned by another user.
type UnauthorizedAccessError struct {
	UserID    string
	ProjectID int64
	FileName  string
}

func (e *UnauthorizedAccessError) Error() string {
	return fmt.Sprintf("user %s is not the owner of file %q in project %d", e.UserID, e.FileName, e.ProjectID)
}

func (e *UnauthorizedAccessError) Is(target error) bool { return target == ErrorUnauthorized }

// TruncationSuspectedError is returned when an upload would shrink a checked
// file to a size that usually means data loss. Retrying with force set
// accepts the upload.
type TruncationSuspectedError struct {
	ProjectID int64
	FileName  string
	OldSize   int
	NewSize   int
}

func (e *TruncationSuspectedError) Error() string {
	return fmt.Sprintf("upload of %q in project %d shrinks it from %d to %d bytes",
		e.FileName, e.ProjectID, e.OldSize, e.NewSize)
}

func (e *TruncationSuspectedError) Is(target error) bool { return target == ErrTruncationSuspected }
