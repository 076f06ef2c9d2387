package model

import "time"

// Role is a user's permission level on the helpdesk.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleAgent  Role = "agent"
	RoleClient Role = "client"
)

// Roles lists all assignable roles.
var Roles = []Role{RoleAdmin, RoleAgent, RoleClient}

// User is a full user record as served by the admin endpoints.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// IsStaff reports whether the user can see the team-wide ticket scope.
func (u User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleAgent
}

// IsAdmin reports whether the user can administer users and assignments.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Ref returns the lightweight reference form of the user.
func (u User) Ref() UserRef {
	return UserRef{ID: u.ID, Name: u.Name}
}
