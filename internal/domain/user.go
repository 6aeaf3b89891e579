package domain

import "time"

// Role enumerates the three actor roles known to the engine.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
	RoleAdmin Role = "admin"
)

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAgent, RoleAdmin:
		return true
	}
	return false
}

// CanBeAssignee reports whether tickets may be assigned to an actor with
// this role.
func (r Role) CanBeAssignee() bool {
	return r == RoleAgent || r == RoleAdmin
}

// User is the single principal type: requesters, agents and admins all live
// in one table and differ only by role.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
