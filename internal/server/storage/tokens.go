package storage

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
)

// nonceBytes is the amount of randomness in a nonce value.
const nonceBytes = 16

// StoreNonce records value as a download nonce for a project build and runs
// one sweep of stale nonces.
func (s *Store) StoreNonce(ctx context.Context, value, userID string, projectID int64) error {
	_, err := RunJob(ctx, s, true, func(ctx context.Context, a *Attempt) (struct{}, error) {
		return struct{}{}, a.Repos.Nonces().Put(ctx, &models.Nonce{
			Value:     value,
			UserID:    userID,
			ProjectID: projectID,
			Created:   s.now(),
		})
	})
	if err != nil {
		return err
	}

	if _, err := s.CleanupNonces(ctx); err != nil {
		s.logger.Warn(ctx, "nonce sweep failed", "error", err)
	}
	return nil
}

// GetNonce resolves a nonce. It is valid for NonceLifetime, reported as
// common.ErrNonceExpired for NonceGrace after that, and not found from then
// on whether or not it has been swept yet.
func (s *Store) GetNonce(ctx context.Context, value string) (*models.Nonce, error) {
	n, err := RunJob(ctx, s, false, func(ctx context.Context, a *Attempt) (*models.Nonce, error) {
		return a.Repos.Nonces().Get(ctx, value)
	})
	if err != nil {
		return nil, err
	}

	age := s.now().Sub(n.Created)
	switch {
	case age >= s.cfg.NonceLifetime+s.cfg.NonceGrace:
		return nil, common.ErrorNotFound
	case age > s.cfg.NonceLifetime:
		return nil, common.ErrNonceExpired
	}
	return n, nil
}

// CleanupNonces deletes up to SweepBatch nonces past their grace period and
// returns how many it deleted.
func (s *Store) CleanupNonces(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-(s.cfg.NonceLifetime + s.cfg.NonceGrace))
	return RunJob(ctx, s, true, func(ctx context.Context, a *Attempt) (int, error) {
		stale, err := a.Repos.Nonces().ListCreatedBefore(ctx, cutoff, s.cfg.SweepBatch)
		if err != nil {
			return 0, err
		}
		for _, n := range stale {
			if err := a.Repos.Nonces().Delete(ctx, n.Value); err != nil {
				return 0, err
			}
		}
		return len(stale), nil
	})
}

// IssueDownloadLink stores a fresh nonce for a project build and returns a
// signed link token carrying it.
func (s *Store) IssueDownloadLink(ctx context.Context, userID string, projectID int64) (string, error) {
	value, err := common.MakeRandHexString(nonceBytes)
	if err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	if err := s.StoreNonce(ctx, value, userID, projectID); err != nil {
		return "", err
	}
	return s.links.Sign(value, projectID, s.cfg.NonceLifetime+s.cfg.NonceGrace)
}

// ResolveDownloadLink verifies a link token and resolves its nonce with the
// same lifecycle as GetNonce.
func (s *Store) ResolveDownloadLink(ctx context.Context, token string) (*models.Nonce, error) {
	value, err := s.links.Verify(token)
	if err != nil {
		return nil, err
	}
	return s.GetNonce(ctx, value)
}

// CreatePasswordResetToken stores a reset token for email and returns its id.
func (s *Store) CreatePasswordResetToken(ctx context.Context, email string) (string, error) {
	id := s.newID()
	_, err := RunJob(ctx, s, true, func(ctx context.Context, a *Attempt) (struct{}, error) {
		return struct{}{}, a.Repos.ResetTokens().Put(ctx, &models.PasswordResetToken{
			ID:      id,
			Email:   email,
			Created: s.now(),
		})
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetPasswordResetToken returns a token younger than ResetTokenLifetime.
// Older tokens are not found.
func (s *Store) GetPasswordResetToken(ctx context.Context, id string) (*models.PasswordResetToken, error) {
	return RunJob(ctx, s, false, func(ctx context.Context, a *Attempt) (*models.PasswordResetToken, error) {
		return s.liveResetToken(ctx, a, id)
	})
}

// ConsumePasswordResetToken reads and deletes a live token in one
// transaction and returns the email it was issued for.
func (s *Store) ConsumePasswordResetToken(ctx context.Context, id string) (string, error) {
	return RunJob(ctx, s, true, func(ctx context.Context, a *Attempt) (string, error) {
		t, err := s.liveResetToken(ctx, a, id)
		if err != nil {
			return "", err
		}
		if err := a.Repos.ResetTokens().Delete(ctx, id); err != nil {
			return "", err
		}
		return t.Email, nil
	})
}

func (s *Store) liveResetToken(ctx context.Context, a *Attempt, id string) (*models.PasswordResetToken, error) {
	t, err := a.Repos.ResetTokens().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.now().Sub(t.Created) >= s.cfg.ResetTokenLifetime {
		return nil, fmt.Errorf("reset token expired: %w", common.ErrorNotFound)
	}
	return t, nil
}

// CleanupExpiredResetTokens deletes up to SweepBatch expired reset tokens
// and returns how many it deleted.
func (s *Store) CleanupExpiredResetTokens(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.cfg.ResetTokenLifetime)
	return RunJob(ctx, s, true, func(ctx context.Context, a *Attempt) (int, error) {
		stale, err := a.Repos.ResetTokens().ListCreatedBefore(ctx, cutoff, s.cfg.SweepBatch)
		if err != nil {
			return 0, err
		}
		for _, t := range stale {
			if err := a.Repos.ResetTokens().Delete(ctx, t.ID); err != nil {
				return 0, err
			}
		}
		return len(stale), nil
	})
}
