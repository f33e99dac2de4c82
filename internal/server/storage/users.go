package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
)

// FindOrCreateUser returns the user with id, creating it with email when it
// does not exist yet. New users have accepted the terms of service unless
// requireTos is set. Creating a user whose email already belongs to another
// account fails with common.ErrDuplicateUser.
func (s *Store) FindOrCreateUser(ctx context.Context, id, email string, requireTos bool) (*models.User, error) {
	return RunJob(ctx, s, true, func(ctx context.Context, a *Attempt) (*models.User, error) {
		u, err := a.Repos.Users().Get(ctx, id)
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}

		if err := checkEmailFree(ctx, a, id, email); err != nil {
			return nil, err
		}
		return s.createUser(ctx, a, id, email, requireTos)
	})
}

// FindOrCreateUserByEmail returns the user owning email, ignoring case, and
// creates one with a fresh id when there is none.
func (s *Store) FindOrCreateUserByEmail(ctx context.Context, email string, requireTos bool) (*models.User, error) {
	if email == "" {
		return nil, errors.New("storage: email is required")
	}
	id := s.newID()

	return RunJob(ctx, s, true, func(ctx context.Context, a *Attempt) (*models.User, error) {
		u, err := a.Repos.Users().FindByEmail(ctx, strings.ToLower(email))
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return s.createUser(ctx, a, id, email, requireTos)
	})
}

func (s *Store) createUser(ctx context.Context, a *Attempt, id, email string, requireTos bool) (*models.User, error) {
	u := &models.User{ID: id, TosAccepted: !requireTos, Visited: s.now()}
	u.SetEmail(email)
	if err := a.Repos.Users().Put(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "user created", "user_id", id)
	return u, nil
}

func checkEmailFree(ctx context.Context, a *Attempt, id, email string) error {
	if email == "" {
		return nil
	}
	other, err := a.Repos.Users().FindByEmail(ctx, strings.ToLower(email))
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return nil
	case err != nil:
		return err
	case other.ID != id:
		return fmt.Errorf("email %s: %w", email, common.ErrDuplicateUser)
	}
	return nil
}

// FindUserByEmail looks a user up ignoring the case of email.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return RunJob(ctx, s, false, func(ctx context.Context, a *Attempt) (*models.User, error) {
		return a.Repos.Users().FindByEmail(ctx, strings.ToLower(email))
	})
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	return RunJob(ctx, s, false, func(ctx context.Context, a *Attempt) (*models.User, error) {
		u, err := a.Repos.Users().Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("user %s: %w", id, err)
		}
		return u, nil
	})
}

// updateUser applies fn to the stored user and writes it back.
func (s *Store) updateUser(ctx context.Context, id string, fn func(a *Attempt, u *models.User) error) error {
	_, err := RunJob(ctx, s, true, func(ctx context.Context, a *Attempt) (struct{}, error) {
		u, err := a.Repos.Users().Get(ctx, id)
		if err != nil {
			return struct{}{}, fmt.Errorf("user %s: %w", id, err)
		}
		if err := fn(a, u); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, a.Repos.Users().Put(ctx, u)
	})
	return err
}

// SetUserEmail changes the email of a user. The new email must not belong to
// another account.
func (s *Store) SetUserEmail(ctx context.Context, id, email string) error {
	return s.updateUser(ctx, id, func(a *Attempt, u *models.User) error {
		if err := checkEmailFree(ctx, a, id, email); err != nil {
			return err
		}
		u.SetEmail(email)
		return nil
	})
}

// SetUserPassword stores an already hashed password.
func (s *Store) SetUserPassword(ctx context.Context, id, hashed string) error {
	return s.updateUser(ctx, id, func(_ *Attempt, u *models.User) error {
		u.Password = hashed
		return nil
	})
}

func (s *Store) SetUserSessionID(ctx context.Context, id, sessionID string) error {
	return s.updateUser(ctx, id, func(_ *Attempt, u *models.User) error {
		u.SessionID = sessionID
		return nil
	})
}

func (s *Store) SetUserName(ctx context.Context, id, name string) error {
	return s.updateUser(ctx, id, func(_ *Attempt, u *models.User) error {
		u.Name = name
		return nil
	})
}

func (s *Store) SetTosAccepted(ctx context.Context, id string) error {
	return s.updateUser(ctx, id, func(_ *Attempt, u *models.User) error {
		u.TosAccepted = true
		return nil
	})
}

func (s *Store) SetUserAdmin(ctx context.Context, id string, admin bool) error {
	return s.updateUser(ctx, id, func(_ *Attempt, u *models.User) error {
		u.IsAdmin = admin
		return nil
	})
}

func (s *Store) LoadUserSettings(ctx context.Context, id string) (string, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return "", err
	}
	return u.Settings, nil
}

func (s *Store) StoreUserSettings(ctx context.Context, id, settings string) error {
	return s.updateUser(ctx, id, func(_ *Attempt, u *models.User) error {
		u.Settings = settings
		return nil
	})
}

// TouchUser records a visit. Like project modification dates, visits within
// the modification window of the stored one are not written. The stored
// visit time is returned.
func (s *Store) TouchUser(ctx context.Context, id string) (time.Time, error) {
	return RunJob(ctx, s, true, func(ctx context.Context, a *Attempt) (time.Time, error) {
		u, err := a.Repos.Users().Get(ctx, id)
		if err != nil {
			return time.Time{}, fmt.Errorf("user %s: %w", id, err)
		}
		now := s.now()
		if !s.coalesce(u.Visited, now) {
			return u.Visited, nil
		}
		u.Visited = now
		if err := a.Repos.Users().Put(ctx, u); err != nil {
			return time.Time{}, err
		}
		return now, nil
	})
}

// DeleteUser removes a user together with the projects it owns, their files
// and the user's own files. Overflow objects are deleted after the commit.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	_, err := RunJob(ctx, s, true, func(ctx context.Context, a *Attempt) (struct{}, error) {
		if _, err := a.Repos.Users().Get(ctx, id); err != nil {
			return struct{}{}, fmt.Errorf("user %s: %w", id, err)
		}

		links, err := a.Repos.UserProjects().ListByUser(ctx, id)
		if err != nil {
			return struct{}{}, err
		}
		for _, link := range links {
			if _, err := deleteProjectData(ctx, a, link.ProjectID); err != nil {
				return struct{}{}, err
			}
			if err := a.Repos.UserProjects().Delete(ctx, id, link.ProjectID); err != nil {
				return struct{}{}, err
			}
		}

		names, err := a.Repos.UserFiles().ListByUser(ctx, id)
		if err != nil {
			return struct{}{}, err
		}
		for _, name := range names {
			if err := a.Repos.UserFiles().Delete(ctx, id, name); err != nil {
				return struct{}{}, err
			}
		}

		return struct{}{}, a.Repos.Users().Delete(ctx, id)
	})
	if err == nil {
		s.logger.Info(ctx, "user deleted", "user_id", id)
	}
	return err
}
