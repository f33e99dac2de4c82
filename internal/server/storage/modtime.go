package storage

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/server/models"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories"
)

// coalesce reports whether a timestamp last written at prev should be
// rewritten at now.
func (s *Store) coalesce(prev, now time.Time) bool {
	return now.Sub(prev) > s.cfg.ModificationWindow
}

// touch bumps p.DateModified to now unless it was written within the
// modification window, and returns the stored value. The date never moves
// backwards.
func (s *Store) touch(ctx context.Context, repos repositories.Set, p *models.Project, now time.Time) (time.Time, error) {
	if !s.coalesce(p.DateModified, now) {
		return p.DateModified, nil
	}
	p.DateModified = now
	if err := repos.Projects().Put(ctx, p); err != nil {
		return time.Time{}, err
	}
	return now, nil
}
