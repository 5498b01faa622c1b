package api

import (
	"context"
	"fmt"

	"github.com/jrsteele09/taskboard-client/gateway"
	"github.com/jrsteele09/taskboard-client/users"
)

// UserAPI calls the backend's user admin endpoints.
type UserAPI struct {
	gw *gateway.Gateway
}

// UpdateUserParams updates profile fields; nil fields are left unchanged.
// Email changes require an admin session.
type UpdateUserParams struct {
	Email     *string `json:"email,omitempty"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}

func (u *UserAPI) List(ctx context.Context) ([]users.User, error) {
	var resp struct {
		Users []users.User `json:"users"`
	}
	if err := u.gw.GetJSON(ctx, "/users", &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

func (u *UserAPI) Get(ctx context.Context, id int) (*users.User, error) {
	var user users.User
	if err := u.gw.GetJSON(ctx, fmt.Sprintf("/users/%d", id), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *UserAPI) Update(ctx context.Context, id int, params UpdateUserParams) (*users.User, error) {
	var resp struct {
		User users.User `json:"user"`
	}
	if err := u.gw.PutJSON(ctx, fmt.Sprintf("/users/%d", id), params, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// UpdateRole assigns a role from the member < manager < admin hierarchy.
func (u *UserAPI) UpdateRole(ctx context.Context, id int, role users.Role) (*users.User, error) {
	var resp struct {
		User users.User `json:"user"`
	}
	body := struct {
		Role users.Role `json:"role"`
	}{Role: role}
	if err := u.gw.PutJSON(ctx, fmt.Sprintf("/users/%d/role", id), body, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func (u *UserAPI) Delete(ctx context.Context, id int) error {
	return u.gw.DeleteJSON(ctx, fmt.Sprintf("/users/%d", id), nil)
}
