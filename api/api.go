// Package api provides typed clients for the backend's resource endpoints.
// Every call goes through the request gateway so tenant and identity headers
// and the 401 refresh protocol apply uniformly.
package api

import "github.com/jrsteele09/taskboard-client/gateway"

// Client bundles the per-resource API clients over a shared gateway.
type Client struct {
	Auth     *AuthAPI
	Tenants  *TenantAPI
	Users    *UserAPI
	Projects *ProjectAPI
	Lists    *ListAPI
	Tasks    *TaskAPI
}

// New creates the API clients for the given gateway.
func New(gw *gateway.Gateway) *Client {
	return &Client{
		Auth:     &AuthAPI{gw: gw},
		Tenants:  &TenantAPI{gw: gw},
		Users:    &UserAPI{gw: gw},
		Projects: &ProjectAPI{gw: gw},
		Lists:    &ListAPI{gw: gw},
		Tasks:    &TaskAPI{gw: gw},
	}
}
