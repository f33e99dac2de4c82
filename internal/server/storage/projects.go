package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
)

// NewProject describes a project to create. Sources become the project's
// initial source files, in order.
type NewProject struct {
	Name     string
	Type     string
	Settings string
	Sources  []SourceFile
}

type SourceFile struct {
	Name    string
	Content []byte
}

// OwnedProject is a project as seen by its owner.
type OwnedProject struct {
	models.Project
	State        models.ProjectState
	UserSettings string
}

// CreateProject creates a project with its initial files, then links it to
// ownerID. The two steps are separate jobs: if the second one fails the
// project is left without an owner.
func (s *Store) CreateProject(ctx context.Context, ownerID string, np NewProject) (int64, error) {
	id, err := RunJob(ctx, s, true, func(ctx context.Context, a *Attempt) (int64, error) {
		now := s.now()
		p := &models.Project{
			Name:         np.Name,
			Type:         np.Type,
			Settings:     np.Settings,
			DateCreated:  now,
			DateModified: now,
		}
		id, err := a.Repos.Projects().Create(ctx, p)
		if err != nil {
			return 0, fmt.Errorf("create project: %w", err)
		}

		for _, src := range np.Sources {
			f := &models.File{ProjectID: id, Name: src.Name, Role: models.RoleSource, UserID: ownerID}
			if _, err := s.putContent(ctx, a, f, src.Content); err != nil {
				return 0, err
			}
			if err := a.Repos.Files().Put(ctx, f); err != nil {
				return 0, err
			}
		}
		return id, nil
	})
	if err != nil {
		return 0, err
	}

	_, err = RunJob(ctx, s, true, func(ctx context.Context, a *Attempt) (struct{}, error) {
		return struct{}{}, a.Repos.UserProjects().Put(ctx, &models.UserProject{
			UserID:    ownerID,
			ProjectID: id,
			State:     models.ProjectOpen,
		})
	})
	if err != nil {
		s.logger.Error(ctx, "project left without owner", "project_id", id, "user_id", ownerID, "error", err)
		return 0, err
	}

	s.logger.Info(ctx, "project created", "project_id", id, "user_id", ownerID)
	return id, nil
}

// ownedProject loads a project after checking that ownerID is linked to it.
func ownedProject(ctx context.Context, a *Attempt, ownerID string, projectID int64) (*models.Project, *models.UserProject, error) {
	link, err := a.Repos.UserProjects().Get(ctx, ownerID, projectID)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, nil, fmt.Errorf("user %s has no project %d: %w", ownerID, projectID, common.ErrorUnauthorized)
	}
	if err != nil {
		return nil, nil, err
	}
	p, err := a.Repos.Projects().Get(ctx, projectID)
	if err != nil {
		return nil, nil, fmt.Errorf("project %d: %w", projectID, err)
	}
	return p, link, nil
}

// GetProjects lists the projects linked to ownerID by id. Links whose
// project no longer exists are skipped.
func (s *Store) GetProjects(ctx context.Context, ownerID string) ([]OwnedProject, error) {
	return RunJob(ctx, s, false, func(ctx context.Context, a *Attempt) ([]OwnedProject, error) {
		links, err := a.Repos.UserProjects().ListByUser(ctx, ownerID)
		if err != nil {
			return nil, err
		}

		out := make([]OwnedProject, 0, len(links))
		for _, link := range links {
			p, err := a.Repos.Projects().Get(ctx, link.ProjectID)
			if errors.Is(err, common.ErrorNotFound) {
				s.logger.Warn(ctx, "dangling project link", "user_id", ownerID, "project_id", link.ProjectID)
				continue
			}
			if err != nil {
				return nil, err
			}
			out = append(out, OwnedProject{Project: *p, State: link.State, UserSettings: link.Settings})
		}
		return out, nil
	})
}

func (s *Store) GetProject(ctx context.Context, ownerID string, projectID int64) (OwnedProject, error) {
	return RunJob(ctx, s, false, func(ctx context.Context, a *Attempt) (OwnedProject, error) {
		p, link, err := ownedProject(ctx, a, ownerID, projectID)
		if err != nil {
			return OwnedProject{}, err
		}
		return OwnedProject{Project: *p, State: link.State, UserSettings: link.Settings}, nil
	})
}

// SetProjectState changes the owner's lifecycle state of a project.
func (s *Store) SetProjectState(ctx context.Context, ownerID string, projectID int64, state models.ProjectState) error {
	_, err := RunJob(ctx, s, true, func(ctx context.Context, a *Attempt) (struct{}, error) {
		_, link, err := ownedProject(ctx, a, ownerID, projectID)
		if err != nil {
			return struct{}{}, err
		}
		link.State = state
		return struct{}{}, a.Repos.UserProjects().Put(ctx, link)
	})
	return err
}

// updateProject applies fn to an owned project and writes it back.
func (s *Store) updateProject(ctx context.Context, ownerID string, projectID int64, fn func(p *models.Project)) error {
	_, err := RunJob(ctx, s, true, func(ctx context.Context, a *Attempt) (struct{}, error) {
		p, _, err := ownedProject(ctx, a, ownerID, projectID)
		if err != nil {
			return struct{}{}, err
		}
		fn(p)
		return struct{}{}, a.Repos.Projects().Put(ctx, p)
	})
	return err
}

func (s *Store) MoveProjectToTrash(ctx context.Context, ownerID string, projectID int64) error {
	return s.updateProject(ctx, ownerID, projectID, func(p *models.Project) { p.Trashed = true })
}

func (s *Store) RestoreProjectFromTrash(ctx context.Context, ownerID string, projectID int64) error {
	return s.updateProject(ctx, ownerID, projectID, func(p *models.Project) { p.Trashed = false })
}

func (s *Store) LoadProjectSettings(ctx context.Context, ownerID string, projectID int64) (string, error) {
	p, err := s.GetProject(ctx, ownerID, projectID)
	if err != nil {
		return "", err
	}
	return p.Settings, nil
}

// StoreProjectSettings replaces the project settings and counts as a
// modification of the project.
func (s *Store) StoreProjectSettings(ctx context.Context, ownerID string, projectID int64, settings string) (time.Time, error) {
	return RunJob(ctx, s, true, func(ctx context.Context, a *Attempt) (time.Time, error) {
		p, _, err := ownedProject(ctx, a, ownerID, projectID)
		if err != nil {
			return time.Time{}, err
		}
		p.Settings = settings
		now := s.now()
		if s.coalesce(p.DateModified, now) {
			p.DateModified = now
		}
		if err := a.Repos.Projects().Put(ctx, p); err != nil {
			return time.Time{}, err
		}
		return p.DateModified, nil
	})
}

func (s *Store) GetProjectHistory(ctx context.Context, ownerID string, projectID int64) (string, error) {
	p, err := s.GetProject(ctx, ownerID, projectID)
	if err != nil {
		return "", err
	}
	return p.History, nil
}

func (s *Store) StoreProjectHistory(ctx context.Context, ownerID string, projectID int64, history string) error {
	return s.updateProject(ctx, ownerID, projectID, func(p *models.Project) { p.History = history })
}

// UpdateProjectBuiltDate records a build at the current time and returns it.
func (s *Store) UpdateProjectBuiltDate(ctx context.Context, ownerID string, projectID int64) (time.Time, error) {
	now := s.now()
	err := s.updateProject(ctx, ownerID, projectID, func(p *models.Project) { p.DateBuilt = now })
	if err != nil {
		return time.Time{}, err
	}
	return now, nil
}

func (s *Store) GetProjectDateModified(ctx context.Context, ownerID string, projectID int64) (time.Time, error) {
	p, err := s.GetProject(ctx, ownerID, projectID)
	if err != nil {
		return time.Time{}, err
	}
	return p.DateModified, nil
}

// DeleteProject removes a project, its files and the owner's link. It
// returns the overflow objects of the removed files; they are deleted once
// the transaction has committed.
func (s *Store) DeleteProject(ctx context.Context, ownerID string, projectID int64) ([]string, error) {
	locators, err := RunJob(ctx, s, true, func(ctx context.Context, a *Attempt) ([]string, error) {
		if _, _, err := ownedProject(ctx, a, ownerID, projectID); err != nil {
			return nil, err
		}
		locators, err := deleteProjectData(ctx, a, projectID)
		if err != nil {
			return nil, err
		}
		if err := a.Repos.UserProjects().Delete(ctx, ownerID, projectID); err != nil {
			return nil, err
		}
		return locators, nil
	})
	if err == nil {
		s.logger.Info(ctx, "project deleted", "project_id", projectID, "user_id", ownerID, "overflow", len(locators))
	}
	return locators, err
}

// deleteProjectData deletes a project and its files within a's unit of work
// and schedules their overflow objects for deletion.
func deleteProjectData(ctx context.Context, a *Attempt, projectID int64) ([]string, error) {
	files, err := a.Repos.Files().ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	var locators []string
	for _, f := range files {
		if err := a.Repos.Files().Delete(ctx, projectID, f.Name); err != nil {
			return nil, err
		}
		if f.Tier == models.TierBlob && f.Locator != "" {
			a.DeleteAfterCommit(f.Locator)
			locators = append(locators, f.Locator)
		}
	}

	if err := a.Repos.Projects().Delete(ctx, projectID); err != nil {
		return nil, err
	}
	return locators, nil
}
