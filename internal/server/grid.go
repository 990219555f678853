package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alfredjeanlab/taskgrid/internal/model"
	"github.com/alfredjeanlab/taskgrid/internal/tree"
)

// gridQuery selects which project to render and which rows are expanded.
type gridQuery struct {
	ProjectID string   `json:"project_id"`
	Expanded  []string `json:"expanded"`
	// View names a saved GridView whose expanded IDs are merged into Expanded.
	View        string `json:"view"`
	ExpandAll   bool   `json:"expand_all"`
	VisibleOnly bool   `json:"visible_only"`
	Rollup      bool   `json:"rollup"`
}

// gridResult is the flattened grid returned to clients.
type gridResult struct {
	Rows    []tree.Row               `json:"rows"`
	Total   int                      `json:"total"`
	Visible int                      `json:"visible"`
	Rollup  map[string]tree.Progress `json:"rollup,omitempty"`
}

// grid builds the project's task forest and flattens it for display.
func (s *GridServer) grid(ctx context.Context, q gridQuery) (*gridResult, error) {
	expanded := tree.NewExpandedSet(q.Expanded...)
	if q.View != "" {
		view, err := s.loadView(ctx, q.View)
		if err != nil {
			return nil, err
		}
		if q.ProjectID == "" {
			q.ProjectID = view.ProjectID
		}
		for _, id := range view.Expanded {
			if id != "" {
				expanded[id] = struct{}{}
			}
		}
	}

	tasks, err := projectTasks(ctx, s.store, q.ProjectID)
	if err != nil {
		return nil, err
	}
	roots, err := tree.Build(tasks)
	if err != nil {
		return nil, err
	}
	if q.ExpandAll {
		if expanded, err = tree.ExpandAll(roots); err != nil {
			return nil, err
		}
	}

	rows, err := tree.Flatten(roots, expanded)
	if err != nil {
		return nil, err
	}
	res := &gridResult{Rows: rows, Total: len(rows)}
	visible := tree.VisibleRows(rows)
	res.Visible = len(visible)
	if q.VisibleOnly {
		res.Rows = visible
	}
	if res.Rows == nil {
		res.Rows = []tree.Row{}
	}

	if q.Rollup {
		if res.Rollup, err = tree.Rollup(roots); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// loadView reads a saved grid view from the config store.
func (s *GridServer) loadView(ctx context.Context, name string) (*model.GridView, error) {
	cfg, err := s.getConfig(ctx, model.GridViewKey(name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("grid view %q: %w", name, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load grid view: %w", err)
	}
	var view model.GridView
	if err := json.Unmarshal(cfg.Value, &view); err != nil {
		return nil, inputError(fmt.Sprintf("grid view %q is not valid: %v", name, err))
	}
	return &view, nil
}
