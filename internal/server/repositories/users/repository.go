package users

import (
	"context"

	"github.com/dmitrijs2005/gophstore/internal/server/models"
)

// Repository persists User records. Lookups of a missing user return
// common.ErrorNotFound.
type Repository interface {
	Get(ctx context.Context, id string) (*models.User, error)
	// FindByEmail looks a user up by the lowercased email.
	FindByEmail(ctx context.Context, emailLower string) (*models.User, error)
	Put(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}
