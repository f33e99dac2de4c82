package resettokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/server/models"
)

type Repository interface {
	Get(ctx context.Context, id string) (*models.PasswordResetToken, error)
	Put(ctx context.Context, token *models.PasswordResetToken) error
	Delete(ctx context.Context, id string) error
	// ListCreatedBefore returns at most limit tokens created before cutoff,
	// oldest first.
	ListCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*models.PasswordResetToken, error)
}
