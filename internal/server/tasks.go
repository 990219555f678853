package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/alfredjeanlab/taskgrid/internal/events"
	"github.com/alfredjeanlab/taskgrid/internal/idgen"
	"github.com/alfredjeanlab/taskgrid/internal/model"
	"github.com/alfredjeanlab/taskgrid/internal/store"
	"github.com/alfredjeanlab/taskgrid/internal/tree"
)

// createTaskInput holds transport-agnostic parameters for creating a task.
type createTaskInput struct {
	ProjectID   string          `json:"project_id"`
	ParentID    string          `json:"parent_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Type        string          `json:"type"`
	Status      string          `json:"status"`
	Priority    int             `json:"priority"`
	Assignee    string          `json:"assignee"`
	StoryPoints *int            `json:"story_points,omitempty"`
	Progress    int             `json:"progress"`
	StartDate   *time.Time      `json:"start_date,omitempty"`
	DueDate     *time.Time      `json:"due_date,omitempty"`
	Fields      json.RawMessage `json:"fields,omitempty"`
	CreatedBy   string          `json:"created_by"`
	// Position among siblings; nil appends after the last sibling.
	Position *int `json:"position,omitempty"`
}

// createTask validates input, persists a new task under its parent, and
// publishes a TaskCreated event. Returns inputError for validation failures.
func (s *GridServer) createTask(ctx context.Context, in createTaskInput) (*model.Task, error) {
	id, err := idgen.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ID: %w", err)
	}

	now := time.Now().UTC()
	task := &model.Task{
		ID:          id,
		ProjectID:   in.ProjectID,
		Title:       in.Title,
		Description: in.Description,
		Type:        model.TaskType(in.Type),
		Status:      model.Status(in.Status),
		Priority:    in.Priority,
		Assignee:    in.Assignee,
		StoryPoints: in.StoryPoints,
		Progress:    in.Progress,
		StartDate:   in.StartDate,
		DueDate:     in.DueDate,
		CreatedAt:   now,
		CreatedBy:   in.CreatedBy,
		UpdatedAt:   now,
		Fields:      in.Fields,
	}
	if task.Type == "" {
		task.Type = model.TypeTask
	}
	if task.Status == "" {
		task.Status = model.StatusTodo
	}
	task.SetParent(in.ParentID)

	if err := model.ValidateTask(task); err != nil {
		return nil, err
	}

	var renumbered []*model.Task
	err = s.store.RunInTransaction(ctx, func(tx store.Store) error {
		if in.ParentID != "" {
			parent, err := tx.GetTask(ctx, in.ParentID)
			if errors.Is(err, sql.ErrNoRows) {
				return inputError("parent " + in.ParentID + " not found")
			}
			if err != nil {
				return fmt.Errorf("get parent: %w", err)
			}
			if task.ProjectID == "" {
				task.ProjectID = parent.ProjectID
			} else if task.ProjectID != parent.ProjectID {
				return inputError("parent " + in.ParentID + " belongs to project " + parent.ProjectID)
			}
		}

		all, err := projectTasks(ctx, tx, task.ProjectID)
		if err != nil {
			return err
		}
		level := 0
		if in.ParentID != "" {
			level = tree.Depth(all, in.ParentID) + 1
		}
		task.HierarchyLevel = &level

		siblings := childrenOf(all, in.ParentID)
		index := len(siblings)
		if in.Position != nil {
			index = *in.Position
		}
		for _, t := range tree.Reposition(siblings, task, index) {
			if t != task {
				renumbered = append(renumbered, t)
			}
		}

		if err := tx.CreateTask(ctx, task); err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}
		for _, t := range renumbered {
			if err := tx.UpdateTask(ctx, t); err != nil {
				return fmt.Errorf("failed to renumber %s: %w", t.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAndPublish(ctx, events.TopicTaskCreated, task.ProjectID, task.ID, task.CreatedBy, events.TaskCreated{Task: task})
	return task, nil
}

// projectTasks loads every task in a project; an empty projectID loads all.
func projectTasks(ctx context.Context, st store.Store, projectID string) ([]*model.Task, error) {
	tasks, _, err := st.ListTasks(ctx, model.TaskFilter{ProjectID: projectID})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// childrenOf returns the tasks whose parent is parentID ("" for roots) in
// sibling order.
func childrenOf(tasks []*model.Task, parentID string) []*model.Task {
	var out []*model.Task
	for _, t := range tasks {
		if t.Parent() == parentID {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// updateTaskInput holds transport-agnostic parameters for updating a task.
// Pointer fields indicate optionality: nil means "don't change". Parent and
// position change only through moveTask.
type updateTaskInput struct {
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

// updateTask applies partial updates to an existing task, persists them,
// and publishes a TaskUpdated event.
func (s *GridServer) updateTask(ctx context.Context, id string, in updateTaskInput) (*model.Task, error) {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := make(map[string]any)
	if in.Title != nil {
		task.Title = *in.Title
		changes["title"] = task.Title
	}
	if in.Description != nil {
		task.Description = *in.Description
		changes["description"] = task.Description
	}
	if in.Type != nil {
		task.Type = model.TaskType(*in.Type)
		changes["type"] = *in.Type
	}
	if in.Status != nil {
		task.Status = model.Status(*in.Status)
		changes["status"] = *in.Status
	}
	if in.Priority != nil {
		task.Priority = *in.Priority
		changes["priority"] = task.Priority
	}
	if in.Assignee != nil {
		task.Assignee = *in.Assignee
		changes["assignee"] = task.Assignee
	}
	if in.StoryPoints != nil {
		task.StoryPoints = in.StoryPoints
		changes["story_points"] = *in.StoryPoints
	}
	if in.Progress != nil {
		task.Progress = *in.Progress
		changes["progress"] = task.Progress
	}
	if in.StartDate != nil {
		task.StartDate = in.StartDate
		changes["start_date"] = in.StartDate.Format(time.RFC3339)
	}
	if in.DueDate != nil {
		task.DueDate = in.DueDate
		changes["due_date"] = in.DueDate.Format(time.RFC3339)
	}
	if len(in.Fields) > 0 {
		task.Fields = in.Fields
		changes["fields"] = in.Fields
	}
	if len(changes) == 0 {
		return task, nil
	}

	return s.saveUpdate(ctx, task, in.Actor, changes)
}

// editField applies a single inline grid-cell edit.
func (s *GridServer) editField(ctx context.Context, id, field string, raw json.RawMessage, actor string) (*model.Task, error) {
	edit, err := model.ParseFieldEdit(field, raw)
	if err != nil {
		return nil, inputError(err.Error())
	}
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	edit.Apply(task)
	return s.saveUpdate(ctx, task, actor, map[string]any{string(edit.Field()): edit.Value()})
}

func (s *GridServer) saveUpdate(ctx context.Context, task *model.Task, actor string, changes map[string]any) (*model.Task, error) {
	if err := model.ValidateTask(task); err != nil {
		return nil, err
	}
	comments := task.Comments
	if err := s.store.UpdateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	task.Comments = comments

	s.recordAndPublish(ctx, events.TopicTaskUpdated, task.ProjectID, task.ID, actor, events.TaskUpdated{Task: task, Changes: changes})
	return task, nil
}

// moveTaskInput describes a drag-and-drop move. A nil ParentID keeps the
// current parent; a pointer to "" moves the task to root level. A nil
// Position appends after the last sibling of the destination.
type moveTaskInput struct {
	ParentID *string `json:"parent_id,omitempty"`
	Position *int    `json:"position,omitempty"`
	Actor    string  `json:"actor,omitempty"`
}

// moveTask re-parents and/or reorders a task inside one transaction. Sibling
// positions on both ends are renumbered, and the stored hierarchy level of the
// moved subtree is refreshed. Moves that would create a cycle are rejected.
func (s *GridServer) moveTask(ctx context.Context, id string, in moveTaskInput) (*model.Task, error) {
	var (
		moved *model.Task
		evt   events.TaskMoved
	)
	err := s.store.RunInTransaction(ctx, func(tx store.Store) error {
		current, err := tx.GetTask(ctx, id)
		if err != nil {
			return err
		}
		all, err := projectTasks(ctx, tx, current.ProjectID)
		if err != nil {
			return err
		}
		byID := make(map[string]*model.Task, len(all))
		for _, t := range all {
			byID[t.ID] = t
		}
		task := byID[id]
		if task == nil {
			return fmt.Errorf("task %s missing from its project listing", id)
		}

		oldParent := task.Parent()
		newParent := oldParent
		if in.ParentID != nil {
			newParent = *in.ParentID
		}
		if newParent != "" {
			if _, ok := byID[newParent]; !ok {
				return inputError("parent " + newParent + " not found in project " + task.ProjectID)
			}
			if tree.WouldCycle(all, id, newParent) {
				return conflictError("moving " + id + " under " + newParent + " would create a cycle")
			}
		}

		evt = events.TaskMoved{OldParentID: oldParent, NewParentID: newParent, OldPosition: task.Position}

		dirty := make(map[string]*model.Task)
		if newParent != oldParent {
			i := 0
			for _, t := range childrenOf(all, oldParent) {
				if t.ID == id {
					continue
				}
				if t.Position != i {
					t.Position = i
					dirty[t.ID] = t
				}
				i++
			}
			task.SetParent(newParent)
		}

		siblings := childrenOf(all, newParent)
		index := len(siblings)
		if in.Position != nil {
			index = *in.Position
		} else if newParent == oldParent {
			index = task.Position
		}
		for _, t := range tree.Reposition(siblings, task, index) {
			dirty[t.ID] = t
		}
		evt.NewPosition = task.Position

		for _, t := range subtree(all, id) {
			level := tree.Depth(all, t.ID)
			if t.HierarchyLevel == nil || *t.HierarchyLevel != level {
				t.HierarchyLevel = &level
				dirty[t.ID] = t
			}
		}
		if newParent != oldParent {
			dirty[id] = task
		}

		ids := make([]string, 0, len(dirty))
		for tid := range dirty {
			ids = append(ids, tid)
		}
		sort.Strings(ids)
		for _, tid := range ids {
			if err := tx.UpdateTask(ctx, dirty[tid]); err != nil {
				return fmt.Errorf("failed to update %s: %w", tid, err)
			}
			if tid != id {
				evt.Renumbered = append(evt.Renumbered, tid)
			}
		}
		moved = task
		return nil
	})
	if err != nil {
		return nil, err
	}

	evt.Task = moved
	s.recordAndPublish(ctx, events.TopicTaskMoved, moved.ProjectID, moved.ID, in.Actor, evt)
	return moved, nil
}

// subtree returns the task with id and all of its descendants.
func subtree(tasks []*model.Task, id string) []*model.Task {
	children := make(map[string][]*model.Task)
	var root *model.Task
	for _, t := range tasks {
		if t.ID == id {
			root = t
		}
		if p := t.Parent(); p != "" {
			children[p] = append(children[p], t)
		}
	}
	if root == nil {
		return nil
	}
	out := []*model.Task{}
	seen := map[string]bool{}
	queue := []*model.Task{root}
	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		out = append(out, t)
		queue = append(queue, children[t.ID]...)
	}
	return out
}

// deleteTask removes a task. Its direct children are promoted to root level
// by the store and reported in the TaskDeleted event.
func (s *GridServer) deleteTask(ctx context.Context, id, actor string) error {
	var (
		orphaned  []string
		projectID string
	)
	err := s.store.RunInTransaction(ctx, func(tx store.Store) error {
		task, err := tx.GetTask(ctx, id)
		if err != nil {
			return err
		}
		projectID = task.ProjectID
		parent := id
		children, _, err := tx.ListTasks(ctx, model.TaskFilter{ParentID: &parent})
		if err != nil {
			return fmt.Errorf("failed to list children: %w", err)
		}
		for _, c := range children {
			orphaned = append(orphaned, c.ID)
		}
		return tx.DeleteTask(ctx, id)
	})
	if err != nil {
		return err
	}

	s.recordAndPublish(ctx, events.TopicTaskDeleted, projectID, id, actor, events.TaskDeleted{TaskID: id, Orphaned: orphaned})
	return nil
}

// addComment attaches a comment to a task.
func (s *GridServer) addComment(ctx context.Context, taskID, author, text string) (*model.Comment, error) {
	if text == "" {
		return nil, inputError("text is required")
	}
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	comment := &model.Comment{TaskID: taskID, Author: author, Text: text}
	if err := s.store.AddComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	s.recordAndPublish(ctx, events.TopicCommentAdded, task.ProjectID, taskID, author, events.CommentAdded{Comment: comment})
	return comment, nil
}
