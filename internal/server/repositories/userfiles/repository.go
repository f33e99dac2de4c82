package userfiles

import (
	"context"

	"github.com/dmitrijs2005/gophstore/internal/server/models"
)

// Repository persists small per-user files. They are children of the user.
type Repository interface {
	Get(ctx context.Context, userID, name string) (*models.UserFile, error)
	Put(ctx context.Context, file *models.UserFile) error
	// ListByUser returns the names of the user's files in order.
	ListByUser(ctx context.Context, userID string) ([]string, error)
	Delete(ctx context.Context, userID, name string) error
}
