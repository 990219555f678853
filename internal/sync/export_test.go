package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/alfredjeanlab/taskgrid/internal/model"
	"github.com/alfredjeanlab/taskgrid/internal/store/memory"
)

var testNow = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

func nonEmptyLines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

func addTask(t *testing.T, s *memory.Store, id, parent string) {
	t.Helper()
	task := &model.Task{
		ID: id, ProjectID: "web", Title: "Task " + id, Type: model.TypeTask,
		Status: model.StatusTodo, CreatedAt: testNow, UpdatedAt: testNow,
	}
	task.SetParent(parent)
	if err := s.CreateTask(context.Background(), task); err != nil {
		t.Fatalf("create %s: %v", id, err)
	}
}

func TestExportJSONL_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), memory.New(), &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := nonEmptyLines(buf.String())
	if len(lines) != 1 {
		t.Fatalf("expected 1 line (header only), got %d", len(lines))
	}

	var h header
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if h.Version != "1" || h.Type != "header" || h.TaskCount != 0 || h.ConfigCount != 0 {
		t.Fatalf("unexpected header: %+v", h)
	}
}

func TestExportJSONL_WithTasksAndConfigs(t *testing.T) {
	ctx := context.Background()
	ms := memory.New()

	// Parent created first, but "tg-zzz" sorts last by ID.
	addTask(t, ms, "tg-zzz", "")
	addTask(t, ms, "tg-aaa", "tg-zzz")
	if err := ms.AddComment(ctx, &model.Comment{TaskID: "tg-aaa", Author: "alice", Text: "Fix this"}); err != nil {
		t.Fatal(err)
	}
	if err := ms.SetConfig(ctx, &model.Config{Key: "grid:mine", Value: json.RawMessage(`{"expanded":["tg-zzz"]}`)}); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := ExportJSONL(ctx, ms, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := nonEmptyLines(buf.String())
	// 1 header + 2 tasks + 1 config
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), buf.String())
	}

	var h header
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if h.TaskCount != 2 || h.ConfigCount != 1 {
		t.Fatalf("unexpected header counts: %+v", h)
	}

	var first struct {
		Type string     `json:"type"`
		Data model.Task `json:"data"`
	}
	if err := json.Unmarshal([]byte(lines[1]), &first); err != nil {
		t.Fatalf("unmarshal task: %v", err)
	}
	if first.Type != "task" || first.Data.ID != "tg-aaa" {
		t.Fatalf("expected tg-aaa first, got %s %s", first.Type, first.Data.ID)
	}
	if first.Data.Parent() != "tg-zzz" {
		t.Errorf("parent = %q, want tg-zzz", first.Data.Parent())
	}
	if len(first.Data.Comments) != 1 || first.Data.Comments[0].Text != "Fix this" {
		t.Errorf("comments not exported: %+v", first.Data.Comments)
	}

	var cfg struct {
		Type string       `json:"type"`
		Data model.Config `json:"data"`
	}
	if err := json.Unmarshal([]byte(lines[3]), &cfg); err != nil {
		t.Fatalf("unmarshal config: %v", err)
	}
	if cfg.Type != "config" || cfg.Data.Key != "grid:mine" {
		t.Fatalf("unexpected config record: %+v", cfg)
	}
}
