// Package memory implements store.Store in process memory. It backs
// development servers (TASKGRID_DATABASE_URL=memory://) and tests, and
// mirrors the PostgreSQL store's constraints and not-found behavior.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alfredjeanlab/taskgrid/internal/model"
	"github.com/alfredjeanlab/taskgrid/internal/store"
)

// ConstraintError reports a write rejected by a schema constraint.
type ConstraintError struct {
	Constraint string
	Detail     string
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%v: %s (%s)", store.ErrConstraint, e.Constraint, e.Detail)
}

func (e *ConstraintError) Is(target error) bool { return target == store.ErrConstraint }

// Store is a mutex-guarded in-memory store.
type Store struct {
	mu sync.Mutex
	d  *data
}

var _ store.Store = (*Store)(nil)

// New returns an empty store using the wall clock.
func New() *Store {
	return NewWithClock(func() time.Time { return time.Now().UTC() })
}

// NewWithClock returns an empty store whose generated timestamps come from now.
func NewWithClock(now func() time.Time) *Store {
	return &Store{d: newData(now)}
}

func (s *Store) CreateTask(_ context.Context, task *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.createTask(task)
}

func (s *Store) GetTask(_ context.Context, id string) (*model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.getTask(id)
}

func (s *Store) ListTasks(_ context.Context, filter model.TaskFilter) ([]*model.Task, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tasks, total := s.d.listTasks(filter)
	return tasks, total, nil
}

func (s *Store) UpdateTask(_ context.Context, task *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.updateTask(task)
}

func (s *Store) DeleteTask(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.deleteTask(id)
}

func (s *Store) AddComment(_ context.Context, comment *model.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.addComment(comment)
}

func (s *Store) GetComments(_ context.Context, taskID string) ([]*model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.getComments(taskID), nil
}

func (s *Store) RecordEvent(_ context.Context, event *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.recordEvent(event)
	return nil
}

func (s *Store) GetEvents(_ context.Context, taskID string) ([]*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.getEvents(taskID), nil
}

func (s *Store) SetConfig(_ context.Context, config *model.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.setConfig(config)
	return nil
}

func (s *Store) GetConfig(_ context.Context, key string) (*model.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.getConfig(key)
}

func (s *Store) ListConfigs(_ context.Context, namespace string) ([]*model.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.listConfigs(namespace + ":"), nil
}

func (s *Store) ListAllConfigs(_ context.Context) ([]*model.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.listConfigs(""), nil
}

func (s *Store) DeleteConfig(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.deleteConfig(key)
}

func (s *Store) GetStats(_ context.Context, projectID string) (*model.TaskStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.stats(projectID), nil
}

// RunInTransaction runs fn against a private copy of the state and installs
// the copy only if fn succeeds. The store stays locked for the duration, so
// fn must use tx rather than s.
func (s *Store) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.d.clone()
	if err := fn(&txStore{d: work}); err != nil {
		return err
	}
	s.d = work
	return nil
}

func (s *Store) Close() error { return nil }

// txStore operates on a transaction's private copy without locking.
type txStore struct {
	d *data
}

var _ store.Store = (*txStore)(nil)

func (t *txStore) CreateTask(_ context.Context, task *model.Task) error { return t.d.createTask(task) }

func (t *txStore) GetTask(_ context.Context, id string) (*model.Task, error) { return t.d.getTask(id) }

func (t *txStore) ListTasks(_ context.Context, filter model.TaskFilter) ([]*model.Task, int, error) {
	tasks, total := t.d.listTasks(filter)
	return tasks, total, nil
}

func (t *txStore) UpdateTask(_ context.Context, task *model.Task) error { return t.d.updateTask(task) }

func (t *txStore) DeleteTask(_ context.Context, id string) error { return t.d.deleteTask(id) }

func (t *txStore) AddComment(_ context.Context, c *model.Comment) error { return t.d.addComment(c) }

func (t *txStore) GetComments(_ context.Context, taskID string) ([]*model.Comment, error) {
	return t.d.getComments(taskID), nil
}

func (t *txStore) RecordEvent(_ context.Context, e *model.Event) error {
	t.d.recordEvent(e)
	return nil
}

func (t *txStore) GetEvents(_ context.Context, taskID string) ([]*model.Event, error) {
	return t.d.getEvents(taskID), nil
}

func (t *txStore) SetConfig(_ context.Context, c *model.Config) error {
	t.d.setConfig(c)
	return nil
}

func (t *txStore) GetConfig(_ context.Context, key string) (*model.Config, error) {
	return t.d.getConfig(key)
}

func (t *txStore) ListConfigs(_ context.Context, namespace string) ([]*model.Config, error) {
	return t.d.listConfigs(namespace + ":"), nil
}

func (t *txStore) ListAllConfigs(_ context.Context) ([]*model.Config, error) {
	return t.d.listConfigs(""), nil
}

func (t *txStore) DeleteConfig(_ context.Context, key string) error { return t.d.deleteConfig(key) }

func (t *txStore) GetStats(_ context.Context, projectID string) (*model.TaskStats, error) {
	return t.d.stats(projectID), nil
}

// RunInTransaction on a txStore reuses the existing transaction (no nesting).
func (t *txStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(t)
}

func (t *txStore) Close() error { return nil }
