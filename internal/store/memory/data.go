package memory

import (
	"database/sql"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/alfredjeanlab/taskgrid/internal/model"
)

// data is the unlocked state behind a Store. Every record crossing its
// boundary is copied so callers never alias stored values.
type data struct {
	tasks       map[string]*model.Task
	comments    map[string][]*model.Comment
	events      map[string][]*model.Event
	configs     map[string]*model.Config
	nextComment int64
	nextEvent   int64
	now         func() time.Time
}

func newData(now func() time.Time) *data {
	return &data{
		tasks:    make(map[string]*model.Task),
		comments: make(map[string][]*model.Comment),
		events:   make(map[string][]*model.Event),
		configs:  make(map[string]*model.Config),
		now:      now,
	}
}

func (d *data) clone() *data {
	c := newData(d.now)
	c.nextComment, c.nextEvent = d.nextComment, d.nextEvent
	for id, t := range d.tasks {
		c.tasks[id] = copyTask(t)
	}
	for id, cs := range d.comments {
		for _, cm := range cs {
			cp := *cm
			c.comments[id] = append(c.comments[id], &cp)
		}
	}
	for id, es := range d.events {
		for _, e := range es {
			cp := *e
			c.events[id] = append(c.events[id], &cp)
		}
	}
	for k, cfg := range d.configs {
		cp := *cfg
		c.configs[k] = &cp
	}
	return c
}

func copyTask(t *model.Task) *model.Task {
	cp := *t
	if t.ParentID != nil {
		p := *t.ParentID
		cp.ParentID = &p
	}
	if t.HierarchyLevel != nil {
		v := *t.HierarchyLevel
		cp.HierarchyLevel = &v
	}
	if t.StoryPoints != nil {
		v := *t.StoryPoints
		cp.StoryPoints = &v
	}
	if t.StartDate != nil {
		v := *t.StartDate
		cp.StartDate = &v
	}
	if t.DueDate != nil {
		v := *t.DueDate
		cp.DueDate = &v
	}
	if t.Fields != nil {
		cp.Fields = append(json.RawMessage(nil), t.Fields...)
	}
	cp.Comments = nil
	return &cp
}

func (d *data) createTask(t *model.Task) error {
	if _, ok := d.tasks[t.ID]; ok {
		return &ConstraintError{Constraint: "tasks_pkey", Detail: "duplicate id " + t.ID}
	}
	if err := d.checkParent(t); err != nil {
		return err
	}
	d.tasks[t.ID] = copyTask(t)
	return nil
}

// checkParent mirrors the parent foreign key and self-parent check.
func (d *data) checkParent(t *model.Task) error {
	pid := t.Parent()
	if pid == "" {
		return nil
	}
	if pid == t.ID {
		return &ConstraintError{Constraint: "tasks_not_own_parent", Detail: t.ID}
	}
	if _, ok := d.tasks[pid]; !ok {
		return &ConstraintError{Constraint: "tasks_parent_id_fkey", Detail: "unknown parent " + pid}
	}
	return nil
}

func (d *data) getTask(id string) (*model.Task, error) {
	t, ok := d.tasks[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := copyTask(t)
	cp.Comments = d.getComments(id)
	return cp, nil
}

func (d *data) listTasks(f model.TaskFilter) ([]*model.Task, int) {
	var out []*model.Task
	for _, t := range d.tasks {
		if matches(t, f) {
			out = append(out, copyTask(t))
		}
	}
	sortTasks(out, f.Sort)

	total := len(out)
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			out = nil
		} else {
			out = out[f.Offset:]
		}
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, total
}

func matches(t *model.Task, f model.TaskFilter) bool {
	if f.ProjectID != "" && t.ProjectID != f.ProjectID {
		return false
	}
	if len(f.Status) > 0 && !contains(f.Status, t.Status) {
		return false
	}
	if len(f.Type) > 0 && !contains(f.Type, t.Type) {
		return false
	}
	if f.Assignee != "" && t.Assignee != f.Assignee {
		return false
	}
	if f.ParentID != nil && t.Parent() != *f.ParentID {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(t.Title), q) && !strings.Contains(strings.ToLower(t.Description), q) {
			return false
		}
	}
	return true
}

func contains[T comparable](list []T, v T) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// sortTasks orders tasks like the postgres sort whitelist; unknown columns
// fall back to position then creation time.
func sortTasks(tasks []*model.Task, order string) {
	desc := strings.HasPrefix(order, "-")
	col := strings.TrimPrefix(order, "-")

	cmpTime := func(a, b *time.Time) int {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return 1 // NULLS LAST ascending, like postgres
		case b == nil:
			return -1
		}
		return a.Compare(*b)
	}
	var cmp func(a, b *model.Task) int
	switch col {
	case "priority":
		cmp = func(a, b *model.Task) int { return a.Priority - b.Priority }
	case "created_at":
		cmp = func(a, b *model.Task) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case "updated_at":
		cmp = func(a, b *model.Task) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	case "title":
		cmp = func(a, b *model.Task) int { return strings.Compare(a.Title, b.Title) }
	case "status":
		cmp = func(a, b *model.Task) int { return strings.Compare(string(a.Status), string(b.Status)) }
	case "due_date":
		cmp = func(a, b *model.Task) int { return cmpTime(a.DueDate, b.DueDate) }
	case "start_date":
		cmp = func(a, b *model.Task) int { return cmpTime(a.StartDate, b.StartDate) }
	case "position":
		cmp = func(a, b *model.Task) int { return a.Position - b.Position }
	default:
		desc = false
		cmp = func(a, b *model.Task) int {
			if c := a.Position - b.Position; c != 0 {
				return c
			}
			return a.CreatedAt.Compare(b.CreatedAt)
		}
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		c := cmp(tasks[i], tasks[j])
		if c == 0 {
			return tasks[i].ID < tasks[j].ID
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func (d *data) updateTask(t *model.Task) error {
	existing, ok := d.tasks[t.ID]
	if !ok {
		return sql.ErrNoRows
	}
	if err := d.checkParent(t); err != nil {
		return err
	}
	t.UpdatedAt = d.now()
	cp := copyTask(t)
	cp.CreatedAt, cp.CreatedBy = existing.CreatedAt, existing.CreatedBy
	d.tasks[t.ID] = cp
	return nil
}

// deleteTask removes a task, its comments, and detaches its children.
func (d *data) deleteTask(id string) error {
	if _, ok := d.tasks[id]; !ok {
		return sql.ErrNoRows
	}
	delete(d.tasks, id)
	delete(d.comments, id)
	for _, t := range d.tasks {
		if t.Parent() == id {
			t.ParentID = nil
		}
	}
	return nil
}

func (d *data) addComment(c *model.Comment) error {
	if _, ok := d.tasks[c.TaskID]; !ok {
		return &ConstraintError{Constraint: "comments_task_id_fkey", Detail: "unknown task " + c.TaskID}
	}
	d.nextComment++
	c.ID = d.nextComment
	c.CreatedAt = d.now()
	cp := *c
	d.comments[c.TaskID] = append(d.comments[c.TaskID], &cp)
	return nil
}

func (d *data) getComments(taskID string) []*model.Comment {
	var out []*model.Comment
	for _, c := range d.comments[taskID] {
		cp := *c
		out = append(out, &cp)
	}
	return out
}

func (d *data) recordEvent(e *model.Event) {
	d.nextEvent++
	e.ID = d.nextEvent
	e.CreatedAt = d.now()
	cp := *e
	d.events[e.TaskID] = append(d.events[e.TaskID], &cp)
}

func (d *data) getEvents(taskID string) []*model.Event {
	var out []*model.Event
	for _, e := range d.events[taskID] {
		cp := *e
		out = append(out, &cp)
	}
	return out
}

func (d *data) setConfig(c *model.Config) {
	now := d.now()
	if existing, ok := d.configs[c.Key]; ok {
		c.CreatedAt = existing.CreatedAt
	} else {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	cp := *c
	d.configs[c.Key] = &cp
}

func (d *data) getConfig(key string) (*model.Config, error) {
	c, ok := d.configs[key]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

// listConfigs returns configs whose key starts with prefix, sorted by key.
func (d *data) listConfigs(prefix string) []*model.Config {
	var out []*model.Config
	for k, c := range d.configs {
		if strings.HasPrefix(k, prefix) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func (d *data) deleteConfig(key string) error {
	if _, ok := d.configs[key]; !ok {
		return sql.ErrNoRows
	}
	delete(d.configs, key)
	return nil
}

func (d *data) stats(projectID string) *model.TaskStats {
	s := &model.TaskStats{}
	for _, t := range d.tasks {
		if projectID != "" && t.ProjectID != projectID {
			continue
		}
		switch t.Status {
		case model.StatusTodo:
			s.TotalTodo++
		case model.StatusInProgress:
			s.TotalInProgress++
		case model.StatusReview:
			s.TotalReview++
		case model.StatusDone:
			s.TotalDone++
		case model.StatusBlocked:
			s.TotalBlocked++
		}
	}
	return s
}
