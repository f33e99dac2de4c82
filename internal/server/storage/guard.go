package storage

import (
	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
)

// assertRole rejects using f under another role than the one it has. The
// first assignment is free: it is recorded on f.
func assertRole(f *models.File, requested models.FileRole) error {
	if requested == models.RoleNone {
		return nil
	}
	if f.Role != models.RoleNone && f.Role != requested {
		return &common.RoleImmutableError{
			ProjectID: f.ProjectID,
			FileName:  f.Name,
			Existing:  f.Role.String(),
			Requested: requested.String(),
		}
	}
	f.Role = requested
	return nil
}

// assertOwner rejects access to f by anyone but its recorded owner. A file
// without an owner is adopted by userID when adopt is set; reads pass false.
func assertOwner(f *models.File, userID string, adopt bool) error {
	if f.UserID == "" {
		if adopt {
			f.UserID = userID
		}
		return nil
	}
	if f.UserID != userID {
		return &common.UnauthorizedAccessError{UserID: userID, ProjectID: f.ProjectID, FileName: f.Name}
	}
	return nil
}
