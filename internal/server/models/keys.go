package models

import "fmt"

// Group identifies an entity group: the unit of transactional isolation.
type Group string

func UserGroup(userID string) Group {
	return Group("user:" + userID)
}

func ProjectGroup(projectID int64) Group {
	return Group(fmt.Sprintf("project:%d", projectID))
}

// EmailGroup guards the lookup of users by lowercased email.
func EmailGroup(emailLower string) Group {
	return Group("email:" + emailLower)
}

func NonceGroup(value string) Group {
	return Group("nonce:" + value)
}

func ResetTokenGroup(id string) Group {
	return Group("pwreset:" + id)
}

func RecordGroup(kind, key string) Group {
	return Group("record:" + kind + "/" + key)
}

// FileKey is the key of a project file inside its project's group.
func FileKey(projectID int64, name string) string {
	return fmt.Sprintf("%d/%s", projectID, name)
}

// UserFileKey is the key of a user file inside its user's group.
func UserFileKey(userID, name string) string {
	return userID + "/" + name
}

// UserProjectKey is the key of a user-project link inside the user's group.
func UserProjectKey(userID string, projectID int64) string {
	return fmt.Sprintf("%s/%d", userID, projectID)
}
