package models

import "time"

// Record kinds. Each is a flat key -> value store with its own cache lifetime.
const (
	KindBackpack    = "backpack"
	KindSplash      = "splash"
	KindMotd        = "motd"
	KindAllowedUser = "allowed_user"
)

// Record is a flat (Kind, Key) -> Value row: shared backpacks and singleton
// configuration such as the splash screen or the allow-list.
type Record struct {
	Kind    string
	Key     string
	Value   string
	Updated time.Time
}

// CorruptionRecord keeps evidence of a suspected content corruption.
type CorruptionRecord struct {
	Timestamp time.Time
	UserID    string
	ProjectID int64
	FileName  string
	Message   string
}
