package files

import (
	"context"

	"github.com/dmitrijs2005/gophstore/internal/server/models"
)

// Repository persists project files. Files are children of their project.
type Repository interface {
	Get(ctx context.Context, projectID int64, name string) (*models.File, error)
	Put(ctx context.Context, file *models.File) error
	// ListByProject returns every file of the project ordered by name.
	ListByProject(ctx context.Context, projectID int64) ([]*models.File, error)
	Delete(ctx context.Context, projectID int64, name string) error
}
