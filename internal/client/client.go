// Package client provides a transport-agnostic interface for the taskgrid
// service and an HTTP/JSON implementation that talks to its REST API.
package client

import (
	"context"
	"encoding/json"
	"time"

	"github.com/alfredjeanlab/taskgrid/internal/model"
	"github.com/alfredjeanlab/taskgrid/internal/presence"
	"github.com/alfredjeanlab/taskgrid/internal/tree"
)

// GridClient is the interface that all tg CLI commands use to communicate
// with the taskgrid server. It is implemented by HTTPClient.
type GridClient interface {
	// Task CRUD
	CreateTask(ctx context.Context, req *CreateTaskRequest) (*model.Task, error)
	GetTask(ctx context.Context, id string) (*model.Task, error)
	ListTasks(ctx context.Context, req *ListTasksRequest) (*ListTasksResponse, error)
	UpdateTask(ctx context.Context, id string, req *UpdateTaskRequest) (*model.Task, error)
	DeleteTask(ctx context.Context, id string) error

	// Grid editing
	EditField(ctx context.Context, id, field string, value json.RawMessage, actor string) (*model.Task, error)
	MoveTask(ctx context.Context, id string, req *MoveTaskRequest) (*model.Task, error)
	Tree(ctx context.Context, req *TreeRequest) (*TreeResponse, error)
	Stats(ctx context.Context, projectID string) (*StatsResponse, error)
	// Editors lists who recently edited projectID; an empty ID covers all projects.
	Editors(ctx context.Context, projectID string, staleThreshold time.Duration) ([]presence.Editor, error)

	// Comments
	AddComment(ctx context.Context, taskID, author, text string) (*model.Comment, error)
	GetComments(ctx context.Context, taskID string) ([]*model.Comment, error)

	// Events
	GetEvents(ctx context.Context, taskID string) ([]*model.Event, error)

	// Config
	SetConfig(ctx context.Context, key string, value json.RawMessage) (*model.Config, error)
	GetConfig(ctx context.Context, key string) (*model.Config, error)
	ListConfigs(ctx context.Context, namespace string) ([]*model.Config, error)
	DeleteConfig(ctx context.Context, key string) error

	// Health
	Health(ctx context.Context) (string, error)

	// Lifecycle
	Close() error
}

// CreateTaskRequest holds parameters for creating a task.
type CreateTaskRequest struct {
	ProjectID   string          `json:"project_id,omitempty"`
	ParentID    string          `json:"parent_id,omitempty"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Type        string          `json:"type,omitempty"`
	Status      string          `json:"status,omitempty"`
	Priority    int             `json:"priority"`
	Assignee    string          `json:"assignee,omitempty"`
	StoryPoints *int            `json:"story_points,omitempty"`
	Progress    int             `json:"progress,omitempty"`
	StartDate   *time.Time      `json:"start_date,omitempty"`
	DueDate     *time.Time      `json:"due_date,omitempty"`
	Fields      json.RawMessage `json:"fields,omitempty"`
	CreatedBy   string          `json:"created_by,omitempty"`
	Position    *int            `json:"position,omitempty"`
}

// ListTasksRequest holds parameters for listing tasks.
type ListTasksRequest struct {
	ProjectID string   `json:"project_id,omitempty"`
	Status    []string `json:"status,omitempty"`
	Type      []string `json:"type,omitempty"`
	Assignee  string   `json:"assignee,omitempty"`
	// ParentID filters to children of a task; a pointer to "" lists roots.
	ParentID *string `json:"parent_id,omitempty"`
	Search   string  `json:"search,omitempty"`
	Sort     string  `json:"sort,omitempty"`
	Limit    int     `json:"limit,omitempty"`
	Offset   int     `json:"offset,omitempty"`
}

// ListTasksResponse is the response from ListTasks.
type ListTasksResponse struct {
	Tasks []*model.Task `json:"tasks"`
	Total int           `json:"total"`
}

// UpdateTaskRequest holds optional parameters for updating a task.
// Nil pointer fields mean "don't change".
type UpdateTaskRequest struct {
	Title       *string         `json:"title,omitempty"`
	Description *string         `json:"description,omitempty"`
	Type        *string         `json:"type,omitempty"`
	Status      *string         `json:"status,omitempty"`
	Priority    *int            `json:"priority,omitempty"`
	Assignee    *string         `json:"assignee,omitempty"`
	StoryPoints *int            `json:"story_points,omitempty"`
	Progress    *int            `json:"progress,omitempty"`
	StartDate   *time.Time      `json:"start_date,omitempty"`
	DueDate     *time.Time      `json:"due_date,omitempty"`
	Fields      json.RawMessage `json:"fields,omitempty"`
	Actor       string          `json:"actor,omitempty"`
}

// MoveTaskRequest re-parents and/or reorders a task. A nil ParentID keeps the
// current parent and a pointer to "" moves to root level. A nil Position
// appends after the last sibling.
type MoveTaskRequest struct {
	ParentID *string `json:"parent_id,omitempty"`
	Position *int    `json:"position,omitempty"`
	Actor    string  `json:"actor,omitempty"`
}

// TreeRequest selects the grid to render.
type TreeRequest struct {
	ProjectID   string   `json:"project_id,omitempty"`
	Expanded    []string `json:"expanded,omitempty"`
	View        string   `json:"view,omitempty"`
	ExpandAll   bool     `json:"expand_all,omitempty"`
	VisibleOnly bool     `json:"visible_only,omitempty"`
	Rollup      bool     `json:"rollup,omitempty"`
}

// TreeResponse is the flattened grid.
type TreeResponse struct {
	Rows    []tree.Row               `json:"rows"`
	Total   int                      `json:"total"`
	Visible int                      `json:"visible"`
	Rollup  map[string]tree.Progress `json:"rollup,omitempty"`
}

// StatsResponse is the response from Stats.
type StatsResponse struct {
	Stats       model.TaskStats `json:"stats"`
	Total       int             `json:"total"`
	PercentDone int             `json:"percent_done"`
}
