package api

import (
	"context"
	"fmt"
	"time"

	"github.com/jrsteele09/taskboard-client/gateway"
	"github.com/jrsteele09/taskboard-client/users"
)

// TaskAPI calls the backend's task and comment endpoints.
type TaskAPI struct {
	gw *gateway.Gateway
}

// Task priorities accepted by the backend.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Task is a card within a list.
type Task struct {
	ID          int         `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	ListID      int         `json:"list_id"`
	AssigneeID  *int        `json:"assignee_id"`
	Assignee    *users.User `json:"assignee,omitempty"`
	Position    int         `json:"position"`
	Priority    string      `json:"priority"`
	Labels      []string    `json:"labels"`
	DueDate     *time.Time  `json:"due_date"`
	Completed   bool        `json:"completed"`
	CompletedAt *time.Time  `json:"completed_at"`
	Comments    []Comment   `json:"comments,omitempty"`
	CreatedAt   time.Time   `json:"created_at,omitempty"`
	UpdatedAt   time.Time   `json:"updated_at,omitempty"`
}

// Comment is a note attached to a task.
type Comment struct {
	ID        int         `json:"id"`
	Content   string      `json:"content"`
	TaskID    int         `json:"task_id"`
	UserID    int         `json:"user_id"`
	User      *users.User `json:"user,omitempty"`
	CreatedAt time.Time   `json:"created_at,omitempty"`
	UpdatedAt time.Time   `json:"updated_at,omitempty"`
}

// CreateTaskParams creates a task in a list.
type CreateTaskParams struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	AssigneeID  *int       `json:"assignee_id,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	Labels      []string   `json:"labels,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// UpdateTaskParams updates task fields; nil fields are left unchanged.
type UpdateTaskParams struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	AssigneeID  *int       `json:"assignee_id,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	Labels      *[]string  `json:"labels,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Completed   *bool      `json:"completed,omitempty"`
}

func (t *TaskAPI) Create(ctx context.Context, listID int, params CreateTaskParams) (*Task, error) {
	var resp struct {
		Task Task `json:"task"`
	}
	if err := t.gw.PostJSON(ctx, fmt.Sprintf("/tasks/lists/%d/tasks", listID), params, &resp); err != nil {
		return nil, err
	}
	return &resp.Task, nil
}

// Get returns a task with its comments included.
func (t *TaskAPI) Get(ctx context.Context, id int) (*Task, error) {
	var task Task
	if err := t.gw.GetJSON(ctx, fmt.Sprintf("/tasks/%d", id), &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (t *TaskAPI) Update(ctx context.Context, id int, params UpdateTaskParams) (*Task, error) {
	var resp struct {
		Task Task `json:"task"`
	}
	if err := t.gw.PutJSON(ctx, fmt.Sprintf("/tasks/%d", id), params, &resp); err != nil {
		return nil, err
	}
	return &resp.Task, nil
}

func (t *TaskAPI) Delete(ctx context.Context, id int) error {
	return t.gw.DeleteJSON(ctx, fmt.Sprintf("/tasks/%d", id), nil)
}

// Move places the task at position within the given list, reordering
// neighbors server-side.
func (t *TaskAPI) Move(ctx context.Context, id, listID, position int) (*Task, error) {
	body := struct {
		ListID   int `json:"list_id"`
		Position int `json:"position"`
	}{ListID: listID, Position: position}
	var resp struct {
		Task Task `json:"task"`
	}
	if err := t.gw.PutJSON(ctx, fmt.Sprintf("/tasks/%d/move", id), body, &resp); err != nil {
		return nil, err
	}
	return &resp.Task, nil
}

// ByList returns the list's tasks in board order.
func (t *TaskAPI) ByList(ctx context.Context, listID int) ([]Task, error) {
	var resp struct {
		Tasks []Task `json:"tasks"`
	}
	if err := t.gw.GetJSON(ctx, fmt.Sprintf("/tasks/lists/%d/tasks", listID), &resp); err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

// AddComment attaches a comment to a task.
func (t *TaskAPI) AddComment(ctx context.Context, taskID int, content string) (*Comment, error) {
	body := struct {
		Content string `json:"content"`
	}{Content: content}
	var resp struct {
		Comment Comment `json:"comment"`
	}
	if err := t.gw.PostJSON(ctx, fmt.Sprintf("/tasks/%d/comments", taskID), body, &resp); err != nil {
		return nil, err
	}
	return &resp.Comment, nil
}
