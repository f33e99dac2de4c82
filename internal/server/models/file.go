package models

import (
	"fmt"
	"time"
)

// FileRole classifies a project file. Once a file has a role other than
// RoleNone it keeps it for its lifetime.
type FileRole int

const (
	// RoleNone is only found on legacy rows written before roles existed.
	RoleNone FileRole = iota
	RoleSource
	RoleOutput
)

func (r FileRole) String() string {
	switch r {
	case RoleNone:
		return "none"
	case RoleSource:
		return "source"
	case RoleOutput:
		return "output"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Tier tells where a file's content lives.
type Tier int

const (
	// TierInline keeps content in File.Content.
	TierInline Tier = iota
	// TierBlob keeps content in the overflow blob store under File.Locator.
	TierBlob
)

func (t Tier) String() string {
	switch t {
	case TierInline:
		return "inline"
	case TierBlob:
		return "blob"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// File is a project file, keyed by (ProjectID, Name). UserID is empty for
// legacy rows and is adopted by the first writer.
type File struct {
	ProjectID  int64
	Name       string
	Role       FileRole
	UserID     string
	Tier       Tier
	Content    []byte
	Locator    string
	LastBackup time.Time
}

// Size returns the inline content size. Blob-tier files report 0; their size
// lives with the blob.
func (f *File) Size() int {
	return len(f.Content)
}
