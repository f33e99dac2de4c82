package corruption

import (
	"context"

	"github.com/dmitrijs2005/gophstore/internal/server/models"
)

// Repository is an append-only log of suspected content corruption.
type Repository interface {
	Add(ctx context.Context, record *models.CorruptionRecord) error
	// ListByProject returns the project's records, oldest first.
	ListByProject(ctx context.Context, projectID int64) ([]*models.CorruptionRecord, error)
}
