package userprojects

import (
	"context"

	"github.com/dmitrijs2005/gophstore/internal/server/models"
)

// Repository persists the links between users and the projects they own.
// Links are children of the user.
type Repository interface {
	Get(ctx context.Context, userID string, projectID int64) (*models.UserProject, error)
	Put(ctx context.Context, link *models.UserProject) error
	// ListByUser returns the user's links ordered by project id.
	ListByUser(ctx context.Context, userID string) ([]*models.UserProject, error)
	Delete(ctx context.Context, userID string, projectID int64) error
}
