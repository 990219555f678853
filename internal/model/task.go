package model

import (
	"encoding/json"
	"time"
)

// TaskType categorizes a task within the work breakdown.
// Well-known constants are provided below, but task types are extensible.
type TaskType string

const (
	TypeEpic    TaskType = "epic"
	TypeStory   TaskType = "story"
	TypeTask    TaskType = "task"
	TypeSubtask TaskType = "subtask"
	TypeBug     TaskType = "bug"
)

// String returns the string representation of the task type.
func (t TaskType) String() string {
	return string(t)
}

// IsValid reports whether the task type is a non-empty string.
func (t TaskType) IsValid() bool {
	return t != ""
}

// Status represents the workflow column a task sits in.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusReview     Status = "review"
	StatusDone       Status = "done"
	StatusBlocked    Status = "blocked"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsValid checks whether the status is a known value.
func (s Status) IsValid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusReview, StatusDone, StatusBlocked:
		return true
	}
	return false
}

// Task is one row of project data as stored in the backend.
//
// HierarchyLevel is a stored nesting hint only. The grid recomputes depth from
// the ParentID chain and never trusts it.
type Task struct {
	ID             string          `json:"id"`
	ProjectID      string          `json:"project_id,omitempty"`
	ParentID       *string         `json:"parent_id,omitempty"`
	HierarchyLevel *int            `json:"hierarchy_level,omitempty"`
	Title          string          `json:"title"`
	Description    string          `json:"description,omitempty"`
	Type           TaskType        `json:"type"`
	Status         Status          `json:"status"`
	Priority       int             `json:"priority"`
	Assignee       string          `json:"assignee,omitempty"`
	StoryPoints    *int            `json:"story_points,omitempty"`
	Progress       int             `json:"progress"`
	StartDate      *time.Time      `json:"start_date,omitempty"`
	DueDate        *time.Time      `json:"due_date,omitempty"`
	Position       int             `json:"position"`
	CreatedAt      time.Time       `json:"created_at"`
	CreatedBy      string          `json:"created_by,omitempty"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Fields         json.RawMessage `json:"fields,omitempty"`

	// Populated by queries, not stored in the tasks table.
	Comments []*Comment `json:"comments,omitempty"`
}

// Parent returns the parent ID, or "" for a root-level task.
func (t *Task) Parent() string {
	if t.ParentID == nil {
		return ""
	}
	return *t.ParentID
}

// SetParent sets the parent ID; an empty id makes the task root-level.
func (t *Task) SetParent(id string) {
	if id == "" {
		t.ParentID = nil
		return
	}
	t.ParentID = &id
}
