package sync

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/alfredjeanlab/taskgrid/internal/model"
	"github.com/alfredjeanlab/taskgrid/internal/store"
	"github.com/alfredjeanlab/taskgrid/internal/tree"
)

// maxLineSize bounds a single JSONL record; tasks carry free-form fields.
const maxLineSize = 16 << 20

// Snapshot is the decoded content of an export.
type Snapshot struct {
	Timestamp time.Time
	Tasks     []*model.Task
	Configs   []*model.Config
}

// ImportResult counts what ImportJSONL wrote.
type ImportResult struct {
	Created  int `json:"created"`
	Updated  int `json:"updated"`
	Comments int `json:"comments"`
	Configs  int `json:"configs"`
	// Tasks whose parent was neither in the snapshot nor the store; they were
	// imported at root level.
	Detached []string `json:"detached,omitempty"`
}

// ReadJSONL parses an export written by ExportJSONL.
func ReadJSONL(r io.Reader) (*Snapshot, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var (
		h    *header
		snap Snapshot
		line int
	)
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		if h == nil {
			h = &header{}
			if err := json.Unmarshal(raw, h); err != nil {
				return nil, fmt.Errorf("line %d: decode header: %w", line, err)
			}
			if h.Type != "header" {
				return nil, fmt.Errorf("line %d: expected header record, got %q", line, h.Type)
			}
			if h.Version != FormatVersion {
				return nil, fmt.Errorf("unsupported export version %q", h.Version)
			}
			snap.Timestamp = h.Timestamp
			continue
		}

		var rec struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		switch rec.Type {
		case "task":
			var t model.Task
			if err := json.Unmarshal(rec.Data, &t); err != nil {
				return nil, fmt.Errorf("line %d: decode task: %w", line, err)
			}
			snap.Tasks = append(snap.Tasks, &t)
		case "config":
			var c model.Config
			if err := json.Unmarshal(rec.Data, &c); err != nil {
				return nil, fmt.Errorf("line %d: decode config: %w", line, err)
			}
			snap.Configs = append(snap.Configs, &c)
		default:
			return nil, fmt.Errorf("line %d: unknown record type %q", line, rec.Type)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	if h == nil {
		return nil, errors.New("empty export")
	}
	if len(snap.Tasks) != h.TaskCount || len(snap.Configs) != h.ConfigCount {
		return nil, fmt.Errorf("truncated export: header lists %d tasks and %d configs, found %d and %d",
			h.TaskCount, h.ConfigCount, len(snap.Tasks), len(snap.Configs))
	}
	return &snap, nil
}

// ImportJSONL restores an export into s in a single transaction. Tasks are
// written parents first so the parent foreign key always resolves. Existing
// tasks are overwritten; comments are only added for newly created tasks.
func ImportJSONL(ctx context.Context, s store.Store, r io.Reader) (*ImportResult, error) {
	snap, err := ReadJSONL(r)
	if err != nil {
		return nil, err
	}

	roots, err := tree.Build(snap.Tasks)
	if err != nil {
		return nil, fmt.Errorf("export hierarchy: %w", err)
	}
	var ordered []*model.Task
	if err := tree.Walk(roots, func(n *tree.Node, _ int) { ordered = append(ordered, n.Task) }); err != nil {
		return nil, err
	}
	inSnapshot := make(map[string]bool, len(ordered))
	for _, t := range ordered {
		inSnapshot[t.ID] = true
	}

	res := &ImportResult{}
	err = s.RunInTransaction(ctx, func(tx store.Store) error {
		for _, t := range ordered {
			if pid := t.Parent(); pid != "" && !inSnapshot[pid] {
				if _, err := tx.GetTask(ctx, pid); errors.Is(err, sql.ErrNoRows) {
					t.ParentID = nil
					res.Detached = append(res.Detached, t.ID)
				} else if err != nil {
					return fmt.Errorf("resolve parent of %s: %w", t.ID, err)
				}
			}

			comments := t.Comments
			_, err := tx.GetTask(ctx, t.ID)
			switch {
			case errors.Is(err, sql.ErrNoRows):
				if err := tx.CreateTask(ctx, t); err != nil {
					return fmt.Errorf("create task %s: %w", t.ID, err)
				}
				res.Created++
				for _, c := range comments {
					c.TaskID = t.ID
					if err := tx.AddComment(ctx, c); err != nil {
						return fmt.Errorf("add comment to %s: %w", t.ID, err)
					}
					res.Comments++
				}
			case err != nil:
				return fmt.Errorf("get task %s: %w", t.ID, err)
			default:
				if err := tx.UpdateTask(ctx, t); err != nil {
					return fmt.Errorf("update task %s: %w", t.ID, err)
				}
				res.Updated++
			}
		}

		for _, c := range snap.Configs {
			if err := tx.SetConfig(ctx, c); err != nil {
				return fmt.Errorf("set config %s: %w", c.Key, err)
			}
			res.Configs++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
