package records

import (
	"context"

	"github.com/dmitrijs2005/gophstore/internal/server/models"
)

// Repository persists flat (kind, key) -> value records.
type Repository interface {
	Get(ctx context.Context, kind, key string) (*models.Record, error)
	Put(ctx context.Context, record *models.Record) error
	Delete(ctx context.Context, kind, key string) error
}
