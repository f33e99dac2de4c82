package storage

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophstore/internal/server/models"
)

// UploadUserFile stores a small per-user file such as a signing keystore.
// User files are always inline.
func (s *Store) UploadUserFile(ctx context.Context, userID, name string, content []byte) error {
	if content == nil {
		content = []byte{}
	}
	_, err := RunJob(ctx, s, true, func(ctx context.Context, a *Attempt) (struct{}, error) {
		return struct{}{}, a.Repos.UserFiles().Put(ctx, &models.UserFile{UserID: userID, Name: name, Content: content})
	})
	return err
}

func (s *Store) DownloadUserFile(ctx context.Context, userID, name string) ([]byte, error) {
	return RunJob(ctx, s, false, func(ctx context.Context, a *Attempt) ([]byte, error) {
		f, err := a.Repos.UserFiles().Get(ctx, userID, name)
		if err != nil {
			return nil, fmt.Errorf("user file %q of %s: %w", name, userID, err)
		}
		return f.Content, nil
	})
}

func (s *Store) DeleteUserFile(ctx context.Context, userID, name string) error {
	_, err := RunJob(ctx, s, true, func(ctx context.Context, a *Attempt) (struct{}, error) {
		return struct{}{}, a.Repos.UserFiles().Delete(ctx, userID, name)
	})
	return err
}

func (s *Store) ListUserFiles(ctx context.Context, userID string) ([]string, error) {
	return RunJob(ctx, s, false, func(ctx context.Context, a *Attempt) ([]string, error) {
		return a.Repos.UserFiles().ListByUser(ctx, userID)
	})
}
