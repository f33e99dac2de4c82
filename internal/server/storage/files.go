package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
)

// Upload is a request to replace a project file's content.
type Upload struct {
	UserID    string
	ProjectID int64
	Name      string
	Content   []byte
	// Role is assigned when the upload creates the file and checked against
	// an existing file. RoleNone skips the check and creates source files.
	Role models.FileRole
	// Force accepts an upload that looks like a truncation.
	Force bool
	// BackupInterval, when positive, asks whether the file is due for
	// another archive copy.
	BackupInterval time.Duration
}

type UploadResult struct {
	LastModified time.Time
	TierChanged  bool
	// BackupDue is set when more than BackupInterval passed since the last
	// backup. The caller is expected to call ArchiveProjectFile.
	BackupDue bool
}

// FileContent is a project file as read by its owner.
type FileContent struct {
	Role    models.FileRole
	Tier    models.Tier
	Locator string
	Content []byte
}

type DeleteResult struct {
	LastModified time.Time
	// OverflowDeleted is the overflow object removed along with the file.
	OverflowDeleted string
}

// CreateProjectFiles adds empty files under role. Files that already exist
// keep their content; they must have the same role and owner.
func (s *Store) CreateProjectFiles(ctx context.Context, userID string, projectID int64, role models.FileRole, names []string) error {
	_, err := RunJob(ctx, s, true, func(ctx context.Context, a *Attempt) (struct{}, error) {
		p, err := a.Repos.Projects().Get(ctx, projectID)
		if err != nil {
			return struct{}{}, fmt.Errorf("project %d: %w", projectID, err)
		}

		for _, name := range names {
			f, err := a.Repos.Files().Get(ctx, projectID, name)
			switch {
			case errors.Is(err, common.ErrorNotFound):
				f = &models.File{ProjectID: projectID, Name: name, Role: role, UserID: userID, Content: []byte{}}
			case err != nil:
				return struct{}{}, err
			default:
				if err := assertRole(f, role); err != nil {
					return struct{}{}, err
				}
				if err := assertOwner(f, userID, true); err != nil {
					return struct{}{}, err
				}
			}
			if err := a.Repos.Files().Put(ctx, f); err != nil {
				return struct{}{}, err
			}
		}

		_, err = s.touch(ctx, a.Repos, p, s.now())
		return struct{}{}, err
	})
	return err
}

// UploadProjectFile replaces the content of a project file, creating it if
// needed.
func (s *Store) UploadProjectFile(ctx context.Context, up Upload) (UploadResult, error) {
	role := up.Role
	if role == models.RoleNone {
		role = models.RoleSource
	}

	res, err := RunJob(ctx, s, true, func(ctx context.Context, a *Attempt) (UploadResult, error) {
		p, err := a.Repos.Projects().Get(ctx, up.ProjectID)
		if err != nil {
			return UploadResult{}, fmt.Errorf("project %d: %w", up.ProjectID, err)
		}

		f, err := a.Repos.Files().Get(ctx, up.ProjectID, up.Name)
		switch {
		case errors.Is(err, common.ErrorNotFound):
			f = &models.File{ProjectID: up.ProjectID, Name: up.Name, Role: role, UserID: up.UserID}
		case err != nil:
			return UploadResult{}, err
		default:
			if err := assertRole(f, up.Role); err != nil {
				return UploadResult{}, err
			}
			if err := assertOwner(f, up.UserID, true); err != nil {
				return UploadResult{}, err
			}
			if !up.Force {
				if err := s.checkTruncation(ctx, f, len(up.Content)); err != nil {
					return UploadResult{}, err
				}
			}
		}

		d, err := s.putContent(ctx, a, f, up.Content)
		if err != nil {
			return UploadResult{}, err
		}

		now := s.now()
		result := UploadResult{TierChanged: d.Changed}
		if up.BackupInterval > 0 && now.Sub(f.LastBackup) > up.BackupInterval {
			f.LastBackup = now
			result.BackupDue = true
		}

		if err := a.Repos.Files().Put(ctx, f); err != nil {
			return UploadResult{}, err
		}
		result.LastModified, err = s.touch(ctx, a.Repos, p, now)
		return result, err
	})

	var trunc *common.TruncationSuspectedError
	if errors.As(err, &trunc) {
		s.recordCorruptionBestEffort(ctx, up.UserID, up.ProjectID, up.Name, trunc.Error())
	}
	return res, err
}

// checkTruncation flags uploads that shrink a checked file type from real
// content to almost nothing.
func (s *Store) checkTruncation(ctx context.Context, f *models.File, newSize int) error {
	if !slices.Contains(s.cfg.TruncationExtensions, strings.ToLower(path.Ext(f.Name))) {
		return nil
	}
	if newSize >= s.cfg.TruncationNewMaxBytes {
		return nil
	}

	oldSize, err := s.storedSize(ctx, f)
	if err != nil {
		return err
	}
	if oldSize <= s.cfg.TruncationOldMinBytes {
		return nil
	}

	return &common.TruncationSuspectedError{ProjectID: f.ProjectID, FileName: f.Name, OldSize: oldSize, NewSize: newSize}
}

// storedSize is the size of f's current content. Overflow content is at
// least InlineThreshold bytes, so the blob is only read when that bound is
// too small to decide. A lost blob counts as empty.
func (s *Store) storedSize(ctx context.Context, f *models.File) (int, error) {
	if f.Tier != models.TierBlob {
		return f.Size(), nil
	}
	if s.cfg.InlineThreshold > s.cfg.TruncationOldMinBytes {
		return s.cfg.InlineThreshold, nil
	}
	old, err := s.readContent(ctx, f)
	if errors.Is(err, common.ErrorNotFound) {
		s.logger.Warn(ctx, "overflow content missing", "project_id", f.ProjectID, "file", f.Name, "locator", f.Locator)
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return len(old), nil
}

// GetProjectFile returns a file's content. Overflow content is fetched from
// the blob store after the record has been read; an upload committing in
// between removes the old object, so a missing object triggers one more
// record read.
func (s *Store) GetProjectFile(ctx context.Context, userID string, projectID int64, name string) (FileContent, error) {
	var (
		f       *models.File
		content []byte
		err     error
	)
	for range 2 {
		f, err = RunJob(ctx, s, false, func(ctx context.Context, a *Attempt) (*models.File, error) {
			f, err := a.Repos.Files().Get(ctx, projectID, name)
			if err != nil {
				return nil, fmt.Errorf("file %q in project %d: %w", name, projectID, err)
			}
			if err := assertOwner(f, userID, false); err != nil {
				return nil, err
			}
			return f, nil
		})
		if err != nil {
			return FileContent{}, err
		}

		content, err = s.readContent(ctx, f)
		if !errors.Is(err, common.ErrorNotFound) {
			break
		}
	}
	if err != nil {
		return FileContent{}, err
	}
	return FileContent{Role: f.Role, Tier: f.Tier, Locator: f.Locator, Content: content}, nil
}

// DeleteProjectFile removes a file. Its overflow object, if any, is deleted
// after the commit and reported in the result.
func (s *Store) DeleteProjectFile(ctx context.Context, userID string, projectID int64, name string) (DeleteResult, error) {
	return RunJob(ctx, s, true, func(ctx context.Context, a *Attempt) (DeleteResult, error) {
		p, err := a.Repos.Projects().Get(ctx, projectID)
		if err != nil {
			return DeleteResult{}, fmt.Errorf("project %d: %w", projectID, err)
		}
		f, err := a.Repos.Files().Get(ctx, projectID, name)
		if err != nil {
			return DeleteResult{}, fmt.Errorf("file %q in project %d: %w", name, projectID, err)
		}
		if err := assertOwner(f, userID, true); err != nil {
			return DeleteResult{}, err
		}

		if err := a.Repos.Files().Delete(ctx, projectID, name); err != nil {
			return DeleteResult{}, err
		}

		var result DeleteResult
		if f.Tier == models.TierBlob && f.Locator != "" {
			a.DeleteAfterCommit(f.Locator)
			result.OverflowDeleted = f.Locator
		}
		result.LastModified, err = s.touch(ctx, a.Repos, p, s.now())
		return result, err
	})
}

// ListProjectFiles returns the names of a project's files with role, or of
// all files when role is RoleNone. userID must be linked to the project.
func (s *Store) ListProjectFiles(ctx context.Context, userID string, projectID int64, role models.FileRole) ([]string, error) {
	return RunJob(ctx, s, false, func(ctx context.Context, a *Attempt) ([]string, error) {
		if _, _, err := ownedProject(ctx, a, userID, projectID); err != nil {
			return nil, err
		}
		files, err := a.Repos.Files().ListByProject(ctx, projectID)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(files))
		for _, f := range files {
			if role == models.RoleNone || f.Role == role {
				names = append(names, f.Name)
			}
		}
		return names, nil
	})
}

// ArchiveProjectFile copies the current content of a file to the archive
// store and returns the archive key.
func (s *Store) ArchiveProjectFile(ctx context.Context, userID string, projectID int64, name string) (string, error) {
	if s.archive == nil {
		return "", errors.New("storage: no archive store configured")
	}

	fc, err := s.GetProjectFile(ctx, userID, projectID, name)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("archive/%d/%s/%d", projectID, name, s.now().UnixMilli())
	if err := s.archive.Put(ctx, key, fc.Content); err != nil {
		return "", fmt.Errorf("archive %q in project %d: %w", name, projectID, err)
	}
	s.logger.Info(ctx, "file archived", "project_id", projectID, "file", name, "key", key)
	return key, nil
}

// RecordCorruption keeps evidence of a suspected content corruption.
func (s *Store) RecordCorruption(ctx context.Context, userID string, projectID int64, name, message string) error {
	_, err := RunJob(ctx, s, true, func(ctx context.Context, a *Attempt) (struct{}, error) {
		return struct{}{}, a.Repos.Corruption().Add(ctx, &models.CorruptionRecord{
			Timestamp: s.now(),
			UserID:    userID,
			ProjectID: projectID,
			FileName:  name,
			Message:   message,
		})
	})
	return err
}

// CorruptionRecords returns the corruption log of a project, oldest first.
func (s *Store) CorruptionRecords(ctx context.Context, projectID int64) ([]*models.CorruptionRecord, error) {
	return RunJob(ctx, s, false, func(ctx context.Context, a *Attempt) ([]*models.CorruptionRecord, error) {
		return a.Repos.Corruption().ListByProject(ctx, projectID)
	})
}

func (s *Store) recordCorruptionBestEffort(ctx context.Context, userID string, projectID int64, name, message string) {
	if err := s.RecordCorruption(context.WithoutCancel(ctx), userID, projectID, name, message); err != nil {
		s.logger.Warn(ctx, "corruption record failed", "project_id", projectID, "file", name, "error", err)
	}
}
