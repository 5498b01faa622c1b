package api

import (
	"context"

	"github.com/jrsteele09/taskboard-client/gateway"
	"github.com/jrsteele09/taskboard-client/tenants"
	"github.com/jrsteele09/taskboard-client/users"
)

// AuthAPI calls the backend's authentication endpoints.
type AuthAPI struct {
	gw *gateway.Gateway
}

// RegisterRequest creates a tenant and its admin user in one call.
type RegisterRequest struct {
	Name           string `json:"name"`
	Subdomain      string `json:"subdomain"`
	AdminEmail     string `json:"admin_email"`
	AdminPassword  string `json:"admin_password"`
	AdminFirstName string `json:"admin_first_name"`
	AdminLastName  string `json:"admin_last_name"`
}

// RegisterResponse is the created tenant. Registration does not authenticate;
// the caller logs in afterwards.
type RegisterResponse struct {
	Message string         `json:"message"`
	Tenant  tenants.Tenant `json:"tenant"`
}

// LoginRequest carries the user's credentials. The tenant is identified by
// the request's tenant header, not the body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the issued token pair plus the authenticated profile.
type LoginResponse struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	User         users.User `json:"user"`
}

// Register creates a tenant and admin user.
func (a *AuthAPI) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	var resp RegisterResponse
	if err := a.gw.PostJSON(ctx, "/auth/register", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login authenticates the user against the current tenant.
func (a *AuthAPI) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var resp LoginResponse
	if err := a.gw.PostJSON(ctx, "/auth/login", LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout invalidates the session server-side.
func (a *AuthAPI) Logout(ctx context.Context) error {
	return a.gw.PostJSON(ctx, "/auth/logout", nil, nil)
}

// Me fetches the current user's profile.
func (a *AuthAPI) Me(ctx context.Context) (*users.User, error) {
	var user users.User
	if err := a.gw.GetJSON(ctx, "/auth/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}
