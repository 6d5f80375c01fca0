package model

import (
	"time"
)

const (
	RoleUser    = "user"
	RoleCreator = "creator"
	RoleAdmin   = "admin"
)

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleCreator, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	PhotoURL       string    `json:"photo_url,omitempty"`
	HashedPassword string    `json:"-"` // Not exposed
	Role           string    `json:"role"`
	IsVerified     bool      `json:"is_verified"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Principal returns the acting identity for this user.
func (u *User) Principal() Principal {
	return Principal{UserID: u.ID, Role: u.Role, IsVerified: u.IsVerified}
}

type UserFilter struct {
	Search string
	Role   string
}
