package api

import (
	"context"
	"fmt"

	"github.com/jrsteele09/taskboard-client/gateway"
	"github.com/jrsteele09/taskboard-client/tenants"
)

// TenantAPI calls the backend's tenant admin endpoints.
type TenantAPI struct {
	gw *gateway.Gateway
}

// CreateTenantParams creates a tenant with its admin user, same payload as
// registration.
type CreateTenantParams struct {
	Name           string `json:"name"`
	Subdomain      string `json:"subdomain"`
	AdminEmail     string `json:"admin_email"`
	AdminPassword  string `json:"admin_password"`
	AdminFirstName string `json:"admin_first_name"`
	AdminLastName  string `json:"admin_last_name"`
	MaxUsers       int    `json:"max_users,omitempty"`
}

// UpdateTenantParams updates tenant settings; nil fields are left unchanged.
type UpdateTenantParams struct {
	Name         *string `json:"name,omitempty"`
	ContactEmail *string `json:"contact_email,omitempty"`
	MaxUsers     *int    `json:"max_users,omitempty"`
	IsActive     *bool   `json:"is_active,omitempty"`
}

func (t *TenantAPI) Create(ctx context.Context, params CreateTenantParams) (*tenants.Tenant, error) {
	var resp struct {
		Tenant tenants.Tenant `json:"tenant"`
	}
	if err := t.gw.PostJSON(ctx, "/tenants", params, &resp); err != nil {
		return nil, err
	}
	return &resp.Tenant, nil
}

func (t *TenantAPI) List(ctx context.Context) ([]tenants.Tenant, error) {
	var resp struct {
		Tenants []tenants.Tenant `json:"tenants"`
	}
	if err := t.gw.GetJSON(ctx, "/tenants", &resp); err != nil {
		return nil, err
	}
	return resp.Tenants, nil
}

func (t *TenantAPI) Get(ctx context.Context, id int) (*tenants.Tenant, error) {
	var tenant tenants.Tenant
	if err := t.gw.GetJSON(ctx, fmt.Sprintf("/tenants/%d", id), &tenant); err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (t *TenantAPI) Update(ctx context.Context, id int, params UpdateTenantParams) (*tenants.Tenant, error) {
	var resp struct {
		Tenant tenants.Tenant `json:"tenant"`
	}
	if err := t.gw.PutJSON(ctx, fmt.Sprintf("/tenants/%d", id), params, &resp); err != nil {
		return nil, err
	}
	return &resp.Tenant, nil
}

func (t *TenantAPI) Delete(ctx context.Context, id int) error {
	return t.gw.DeleteJSON(ctx, fmt.Sprintf("/tenants/%d", id), nil)
}
