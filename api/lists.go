package api

import (
	"context"
	"fmt"
	"time"

	"github.com/jrsteele09/taskboard-client/gateway"
)

// ListAPI calls the backend's list endpoints.
type ListAPI struct {
	gw *gateway.Gateway
}

// List is an ordered column of tasks within a project.
type List struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	ProjectID int       `json:"project_id"`
	Position  int       `json:"position"`
	Tasks     []Task    `json:"tasks,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// CreateListParams creates a list in a project.
type CreateListParams struct {
	Name     string `json:"name"`
	Position int    `json:"position,omitempty"`
}

// UpdateListParams updates list fields; nil fields are left unchanged.
type UpdateListParams struct {
	Name     *string `json:"name,omitempty"`
	Position *int    `json:"position,omitempty"`
}

func (l *ListAPI) Create(ctx context.Context, projectID int, params CreateListParams) (*List, error) {
	var resp struct {
		List List `json:"list"`
	}
	if err := l.gw.PostJSON(ctx, fmt.Sprintf("/lists/projects/%d/lists", projectID), params, &resp); err != nil {
		return nil, err
	}
	return &resp.List, nil
}

// Get returns a list with its tasks included.
func (l *ListAPI) Get(ctx context.Context, id int) (*List, error) {
	var list List
	if err := l.gw.GetJSON(ctx, fmt.Sprintf("/lists/%d", id), &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (l *ListAPI) Update(ctx context.Context, id int, params UpdateListParams) (*List, error) {
	var resp struct {
		List List `json:"list"`
	}
	if err := l.gw.PutJSON(ctx, fmt.Sprintf("/lists/%d", id), params, &resp); err != nil {
		return nil, err
	}
	return &resp.List, nil
}

func (l *ListAPI) Delete(ctx context.Context, id int) error {
	return l.gw.DeleteJSON(ctx, fmt.Sprintf("/lists/%d", id), nil)
}

// ByProject returns the project's lists in board order, tasks included.
func (l *ListAPI) ByProject(ctx context.Context, projectID int) ([]List, error) {
	var resp struct {
		Lists []List `json:"lists"`
	}
	if err := l.gw.GetJSON(ctx, fmt.Sprintf("/lists/projects/%d/lists", projectID), &resp); err != nil {
		return nil, err
	}
	return resp.Lists, nil
}
