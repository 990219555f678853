package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseFieldEdit(t *testing.T) {
	task := validTask()

	for _, tc := range []struct {
		field string
		raw   string
		check func(t *testing.T, task *Task)
	}{
		{"title", `"Renamed"`, func(t *testing.T, task *Task) {
			if task.Title != "Renamed" {
				t.Errorf("Title = %q", task.Title)
			}
		}},
		{"status", `"done"`, func(t *testing.T, task *Task) {
			if task.Status != StatusDone {
				t.Errorf("Status = %q", task.Status)
			}
		}},
		{"priority", `3`, func(t *testing.T, task *Task) {
			if task.Priority != 3 {
				t.Errorf("Priority = %d", task.Priority)
			}
		}},
		{"story_points", `8`, func(t *testing.T, task *Task) {
			if task.StoryPoints == nil || *task.StoryPoints != 8 {
				t.Errorf("StoryPoints = %v", task.StoryPoints)
			}
		}},
		{"story_points", `null`, func(t *testing.T, task *Task) {
			if task.StoryPoints != nil {
				t.Errorf("StoryPoints = %v, want nil", *task.StoryPoints)
			}
		}},
		{"progress", `40`, func(t *testing.T, task *Task) {
			if task.Progress != 40 {
				t.Errorf("Progress = %d", task.Progress)
			}
		}},
		{"due_date", `"2026-05-01"`, func(t *testing.T, task *Task) {
			want := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
			if task.DueDate == nil || !task.DueDate.Equal(want) {
				t.Errorf("DueDate = %v", task.DueDate)
			}
		}},
		{"start_date", `"2026-04-01T09:00:00Z"`, func(t *testing.T, task *Task) {
			want := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
			if task.StartDate == nil || !task.StartDate.Equal(want) {
				t.Errorf("StartDate = %v", task.StartDate)
			}
		}},
		{"assignee", `null`, func(t *testing.T, task *Task) {
			if task.Assignee != "" {
				t.Errorf("Assignee = %q", task.Assignee)
			}
		}},
	} {
		t.Run(tc.field+"="+tc.raw, func(t *testing.T) {
			edit, err := ParseFieldEdit(tc.field, json.RawMessage(tc.raw))
			if err != nil {
				t.Fatalf("ParseFieldEdit: %v", err)
			}
			if string(edit.Field()) != tc.field {
				t.Errorf("Field() = %q, want %q", edit.Field(), tc.field)
			}
			edit.Apply(&task)
			tc.check(t, &task)
		})
	}
}

func TestParseFieldEdit_Errors(t *testing.T) {
	for _, tc := range []struct {
		field string
		raw   string
	}{
		{"owner", `"x"`},
		{"title", `12`},
		{"priority", `"high"`},
		{"due_date", `"next week"`},
		{"progress", ``},
	} {
		if _, err := ParseFieldEdit(tc.field, json.RawMessage(tc.raw)); err == nil {
			t.Errorf("ParseFieldEdit(%q, %q) expected error", tc.field, tc.raw)
		}
	}
}

func TestParseFieldEditString(t *testing.T) {
	edit, err := ParseFieldEditString("priority", "1")
	if err != nil {
		t.Fatalf("priority: %v", err)
	}
	if edit.Value() != 1 {
		t.Errorf("priority Value() = %v", edit.Value())
	}

	edit, err = ParseFieldEditString("title", "Ship \"it\"")
	if err != nil {
		t.Fatalf("title: %v", err)
	}
	if edit.Value() != "Ship \"it\"" {
		t.Errorf("title Value() = %v", edit.Value())
	}

	edit, err = ParseFieldEditString("due_date", "none")
	if err != nil {
		t.Fatalf("due_date none: %v", err)
	}
	if edit.Value() != nil {
		t.Errorf("due_date none Value() = %v, want nil", edit.Value())
	}

	if _, err := ParseFieldEditString("story_points", "lots"); err == nil {
		t.Error("expected error for non-numeric story points")
	}
}
