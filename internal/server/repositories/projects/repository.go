package projects

import (
	"context"

	"github.com/dmitrijs2005/gophstore/internal/server/models"
)

// Repository persists Project records. Projects are entity-group roots for
// their files.
type Repository interface {
	// Create stores a new project and returns the id the store allocated.
	Create(ctx context.Context, project *models.Project) (int64, error)
	Get(ctx context.Context, id int64) (*models.Project, error)
	// Put updates an existing project.
	Put(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id int64) error
}
