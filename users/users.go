package users

import (
	"fmt"
	"time"
)

// Role represents a user's role within a tenant. Roles form a total order
// (member < manager < admin) used for authorization checks in the UI layer.
type Role string

const (
	RoleMember  Role = "member"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// roleLevels maps each role to its rank in the hierarchy.
var roleLevels = map[Role]int{
	RoleMember:  1,
	RoleManager: 2,
	RoleAdmin:   3,
}

// ParseRole validates a role string received from the backend.
func ParseRole(s string) (Role, error) {
	role := Role(s)
	if _, ok := roleLevels[role]; !ok {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return role, nil
}

// Level returns the role's rank in the hierarchy. Unknown roles rank below
// member so they never satisfy an authorization check.
func (r Role) Level() int {
	return roleLevels[r]
}

// AtLeast reports whether r ranks at or above required in the role hierarchy.
func (r Role) AtLeast(required Role) bool {
	requiredLevel, ok := roleLevels[required]
	if !ok {
		return false
	}
	return r.Level() >= requiredLevel
}

// User is the profile returned by the backend's /auth/me and login endpoints.
type User struct {
	ID        int       `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      Role      `json:"role"`
	TenantID  int       `json:"tenant_id,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// FullName returns the user's display name.
func (u User) FullName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Email
	}
	return u.FirstName + " " + u.LastName
}
