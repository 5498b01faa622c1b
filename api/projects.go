package api

import (
	"context"
	"fmt"
	"time"

	"github.com/jrsteele09/taskboard-client/gateway"
	"github.com/jrsteele09/taskboard-client/users"
)

// ProjectAPI calls the backend's project endpoints.
type ProjectAPI struct {
	gw *gateway.Gateway
}

// Project is a board with ordered lists of tasks.
type Project struct {
	ID          int          `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	OwnerID     int          `json:"owner_id"`
	Owner       *users.User  `json:"owner,omitempty"`
	Members     []users.User `json:"members,omitempty"`
	Lists       []List       `json:"lists,omitempty"`
	IsArchived  bool         `json:"is_archived"`
	Color       string       `json:"color,omitempty"`
	CreatedAt   time.Time    `json:"created_at,omitempty"`
	UpdatedAt   time.Time    `json:"updated_at,omitempty"`
}

// CreateProjectParams creates a project owned by the caller.
type CreateProjectParams struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
}

// UpdateProjectParams updates project fields; nil fields are left unchanged.
type UpdateProjectParams struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Color       *string `json:"color,omitempty"`
	IsArchived  *bool   `json:"is_archived,omitempty"`
}

func (p *ProjectAPI) Create(ctx context.Context, params CreateProjectParams) (*Project, error) {
	var resp struct {
		Project Project `json:"project"`
	}
	if err := p.gw.PostJSON(ctx, "/projects", params, &resp); err != nil {
		return nil, err
	}
	return &resp.Project, nil
}

func (p *ProjectAPI) List(ctx context.Context) ([]Project, error) {
	var resp struct {
		Projects []Project `json:"projects"`
	}
	if err := p.gw.GetJSON(ctx, "/projects", &resp); err != nil {
		return nil, err
	}
	return resp.Projects, nil
}

// Get returns a project with its lists and members included.
func (p *ProjectAPI) Get(ctx context.Context, id int) (*Project, error) {
	var project Project
	if err := p.gw.GetJSON(ctx, fmt.Sprintf("/projects/%d", id), &project); err != nil {
		return nil, err
	}
	return &project, nil
}

func (p *ProjectAPI) Update(ctx context.Context, id int, params UpdateProjectParams) (*Project, error) {
	var resp struct {
		Project Project `json:"project"`
	}
	if err := p.gw.PutJSON(ctx, fmt.Sprintf("/projects/%d", id), params, &resp); err != nil {
		return nil, err
	}
	return &resp.Project, nil
}

func (p *ProjectAPI) Delete(ctx context.Context, id int) error {
	return p.gw.DeleteJSON(ctx, fmt.Sprintf("/projects/%d", id), nil)
}

func (p *ProjectAPI) AddMember(ctx context.Context, projectID, userID int) error {
	body := struct {
		UserID int `json:"user_id"`
	}{UserID: userID}
	return p.gw.PostJSON(ctx, fmt.Sprintf("/projects/%d/members", projectID), body, nil)
}

func (p *ProjectAPI) RemoveMember(ctx context.Context, projectID, userID int) error {
	return p.gw.DeleteJSON(ctx, fmt.Sprintf("/projects/%d/members/%d", projectID, userID), nil)
}
