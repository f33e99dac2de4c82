package models

import (
	"strings"
	"time"
)

// User is an account. EmailLower is derived from Email and is the lookup key
// for case-insensitive email searches.
type User struct {
	ID          string
	Email       string
	EmailLower  string
	Name        string
	TosAccepted bool
	IsAdmin     bool
	SessionID   string
	// Password holds an already hashed password.
	Password string
	Settings string
	Visited  time.Time
}

// SetEmail updates Email and the derived EmailLower together.
func (u *User) SetEmail(email string) {
	u.Email = email
	u.EmailLower = strings.ToLower(email)
}

// UserFile is a small per-user file (e.g. a signing keystore). Its content is
// always stored inline.
type UserFile struct {
	UserID  string
	Name    string
	Content []byte
}
