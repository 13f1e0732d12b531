package domain

import (
	"fmt"
	"time"
)

// Role is the closed set of account roles.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleManager   Role = "manager"
	RoleDeveloper Role = "developer"
)

// Roles lists every known role in privilege order.
var Roles = []Role{RoleAdmin, RoleManager, RoleDeveloper}

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleDeveloper:
		return true
	default:
		return false
	}
}

// ParseRole maps raw input to a Role. An empty value yields the developer default.
func ParseRole(raw string) (Role, error) {
	if raw == "" {
		return RoleDeveloper, nil
	}
	role := Role(raw)
	if !role.Valid() {
		return "", Invalid(fmt.Sprintf("role must be one of %s, %s, %s", RoleAdmin, RoleManager, RoleDeveloper))
	}
	return role, nil
}

// User represents an authenticated identity in the platform.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Caller is the identity a request acts on behalf of.
type Caller struct {
	ID        int64
	Username  string
	Role      Role
	SessionID string
}

func (u *User) Caller() Caller {
	if u == nil {
		return Caller{}
	}
	return Caller{ID: u.ID, Username: u.Username, Role: u.Role}
}
