package models

import (
	"time"
)

// Profile is the authority level of a CRM user
type Profile string

const (
	ProfileAdmin        Profile = "ADMIN"
	ProfileAgent        Profile = "AGENT"
	ProfileCollaborator Profile = "COLLABORATOR"
)

// ValidProfiles defines allowed user profiles
var ValidProfiles = map[Profile]bool{
	ProfileAdmin:        true,
	ProfileAgent:        true,
	ProfileCollaborator: true,
}

// User represents a CRM user. A collaborator's parent is the agent it works for.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	Profile      Profile   `json:"profile" db:"profile"`
	ParentUserID *int64    `json:"parent_user_id,omitempty" db:"parent_user_id"`
	Active       bool      `json:"active" db:"active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// IsAdmin reports whether the user has the ADMIN profile
func (u *User) IsAdmin() bool {
	return u.Profile == ProfileAdmin
}

// IsAgent reports whether the user has the AGENT profile
func (u *User) IsAgent() bool {
	return u.Profile == ProfileAgent
}

// IsCollaborator reports whether the user has the COLLABORATOR profile
func (u *User) IsCollaborator() bool {
	return u.Profile == ProfileCollaborator
}

// IsParentOf reports whether other works under u
func (u *User) IsParentOf(other *User) bool {
	return other != nil && other.ParentUserID != nil && *other.ParentUserID == u.ID
}
