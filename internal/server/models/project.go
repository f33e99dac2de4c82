package models

import (
	"fmt"
	"time"
)

type Project struct {
	ID           int64
	Name         string
	Type         string
	Settings     string
	DateCreated  time.Time
	DateModified time.Time
	DateBuilt    time.Time
	Trashed      bool
	History      string
}

// ProjectState is the per-user lifecycle state of a project.
type ProjectState int

const (
	ProjectClosed ProjectState = iota
	ProjectOpen
	ProjectDeleted
)

func (s ProjectState) String() string {
	switch s {
	case ProjectClosed:
		return "closed"
	case ProjectOpen:
		return "open"
	case ProjectDeleted:
		return "deleted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// UserProject links a project to its owner and carries per-user settings.
type UserProject struct {
	UserID    string
	ProjectID int64
	Settings  string
	State     ProjectState
}
