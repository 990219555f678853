package events

import (
	"context"

	"github.com/alfredjeanlab/taskgrid/internal/model"
)

// TopicAll matches every taskgrid event on NATS.
const TopicAll = "taskgrid.>"

// Event topic constants
const (
	TopicTaskCreated  = "taskgrid.task.created"
	TopicTaskUpdated  = "taskgrid.task.updated"
	TopicTaskMoved    = "taskgrid.task.moved"
	TopicTaskDeleted  = "taskgrid.task.deleted"
	TopicCommentAdded = "taskgrid.comment.added"
)

// Event types

type TaskCreated struct {
	Task *model.Task `json:"task"`
}

type TaskUpdated struct {
	Task    *model.Task    `json:"task"`
	Changes map[string]any `json:"changes"` // field name -> new value
}

// TaskMoved is emitted when a task changes parent or sibling position.
// Empty parent IDs mean root level.
type TaskMoved struct {
	Task        *model.Task `json:"task"`
	OldParentID string      `json:"old_parent_id,omitempty"`
	NewParentID string      `json:"new_parent_id,omitempty"`
	OldPosition int         `json:"old_position"`
	NewPosition int         `json:"new_position"`
	// Siblings whose position was renumbered by the move.
	Renumbered []string `json:"renumbered,omitempty"`
}

type TaskDeleted struct {
	TaskID string `json:"task_id"`
	// Direct children promoted to root level by the delete.
	Orphaned []string `json:"orphaned,omitempty"`
}

type CommentAdded struct {
	Comment *model.Comment `json:"comment"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
