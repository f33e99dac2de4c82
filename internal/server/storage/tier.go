package storage

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophstore/internal/server/models"
)

// TierDecision describes where putContent placed a file's content.
type TierDecision struct {
	Tier    models.Tier
	Locator string
	// Obsolete is the overflow object the file referenced before, now
	// scheduled for deletion after commit.
	Obsolete string
	// Changed is set when the tier differs from the file's previous one.
	Changed bool
}

func (s *Store) blobKey(projectID int64, name string) string {
	return fmt.Sprintf("projects/%d/%s/%s", projectID, s.newID(), name)
}

// putContent stores content on f. Content of InlineThreshold bytes or more
// goes to a fresh overflow object, written before the record is committed;
// smaller content is kept inline. A previous overflow object is only
// scheduled for deletion, so a rolled-back attempt still finds it.
func (s *Store) putContent(ctx context.Context, a *Attempt, f *models.File, content []byte) (TierDecision, error) {
	prevTier, prevLocator := f.Tier, f.Locator

	if len(content) >= s.cfg.InlineThreshold {
		key := s.blobKey(f.ProjectID, f.Name)
		if err := a.PutBlob(ctx, key, content); err != nil {
			return TierDecision{}, fmt.Errorf("write overflow for %q in project %d: %w", f.Name, f.ProjectID, err)
		}
		f.Tier, f.Locator, f.Content = models.TierBlob, key, nil
	} else {
		if content == nil {
			content = []byte{}
		}
		f.Tier, f.Locator, f.Content = models.TierInline, "", content
	}

	d := TierDecision{Tier: f.Tier, Locator: f.Locator, Changed: prevTier != f.Tier}
	if prevTier == models.TierBlob && prevLocator != "" {
		a.DeleteAfterCommit(prevLocator)
		d.Obsolete = prevLocator
	}
	return d, nil
}

// readContent returns the content of f from wherever it lives.
func (s *Store) readContent(ctx context.Context, f *models.File) ([]byte, error) {
	if f.Tier != models.TierBlob {
		return f.Content, nil
	}
	data, err := s.blobs.Get(ctx, f.Locator)
	if err != nil {
		return nil, fmt.Errorf("read overflow %s for %q in project %d: %w", f.Locator, f.Name, f.ProjectID, err)
	}
	return data, nil
}
