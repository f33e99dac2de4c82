package models

import "time"

// Nonce grants unauthenticated, time-boxed access to a project's build output.
type Nonce struct {
	Value     string
	UserID    string
	ProjectID int64
	Created   time.Time
}

// PasswordResetToken is a single-use token mailed to Email.
type PasswordResetToken struct {
	ID      string
	Email   string
	Created time.Time
}
