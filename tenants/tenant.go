// Package tenants resolves which workspace a request targets and models the
// tenant records returned by the backend.
package tenants

import "time"

// Tenant is a workspace record as returned by the backend's tenant admin
// endpoints. All data and sessions are scoped to exactly one tenant.
type Tenant struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Subdomain    string    `json:"subdomain"`
	IsActive     bool      `json:"is_active"`
	ContactEmail string    `json:"contact_email,omitempty"`
	MaxUsers     int       `json:"max_users,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}
