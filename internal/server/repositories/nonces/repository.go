package nonces

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/server/models"
)

type Repository interface {
	Get(ctx context.Context, value string) (*models.Nonce, error)
	Put(ctx context.Context, nonce *models.Nonce) error
	Delete(ctx context.Context, value string) error
	// ListCreatedBefore returns at most limit nonces created before cutoff,
	// oldest first.
	ListCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*models.Nonce, error)
}
