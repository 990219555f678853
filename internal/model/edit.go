package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EditableField names a task field that can be edited in place from the grid.
type EditableField string

const (
	FieldTitle       EditableField = "title"
	FieldStatus      EditableField = "status"
	FieldAssignee    EditableField = "assignee"
	FieldPriority    EditableField = "priority"
	FieldStoryPoints EditableField = "story_points"
	FieldProgress    EditableField = "progress"
	FieldStartDate   EditableField = "start_date"
	FieldDueDate     EditableField = "due_date"
)

// EditableFields lists every field accepted by ParseFieldEdit, in display order.
var EditableFields = []EditableField{
	FieldTitle, FieldStatus, FieldAssignee, FieldPriority,
	FieldStoryPoints, FieldProgress, FieldStartDate, FieldDueDate,
}

// FieldEdit is a single typed cell edit. The concrete types below are the
// only implementations.
type FieldEdit interface {
	Field() EditableField
	// Apply writes the new value onto t. It does not validate; callers run
	// ValidateTask afterwards.
	Apply(t *Task)
	// Value returns the new value in a JSON-friendly form (nil = cleared).
	Value() any
}

type TitleEdit struct{ Title string }

func (e TitleEdit) Field() EditableField { return FieldTitle }
func (e TitleEdit) Apply(t *Task)        { t.Title = e.Title }
func (e TitleEdit) Value() any           { return e.Title }

type StatusEdit struct{ Status Status }

func (e StatusEdit) Field() EditableField { return FieldStatus }
func (e StatusEdit) Apply(t *Task)        { t.Status = e.Status }
func (e StatusEdit) Value() any           { return string(e.Status) }

type AssigneeEdit struct{ Assignee string }

func (e AssigneeEdit) Field() EditableField { return FieldAssignee }
func (e AssigneeEdit) Apply(t *Task)        { t.Assignee = e.Assignee }
func (e AssigneeEdit) Value() any           { return e.Assignee }

type PriorityEdit struct{ Priority int }

func (e PriorityEdit) Field() EditableField { return FieldPriority }
func (e PriorityEdit) Apply(t *Task)        { t.Priority = e.Priority }
func (e PriorityEdit) Value() any           { return e.Priority }

// StoryPointsEdit clears the estimate when Points is nil.
type StoryPointsEdit struct{ Points *int }

func (e StoryPointsEdit) Field() EditableField { return FieldStoryPoints }
func (e StoryPointsEdit) Apply(t *Task)        { t.StoryPoints = e.Points }
func (e StoryPointsEdit) Value() any {
	if e.Points == nil {
		return nil
	}
	return *e.Points
}

type ProgressEdit struct{ Progress int }

func (e ProgressEdit) Field() EditableField { return FieldProgress }
func (e ProgressEdit) Apply(t *Task)        { t.Progress = e.Progress }
func (e ProgressEdit) Value() any           { return e.Progress }

// StartDateEdit clears the start date when Date is nil.
type StartDateEdit struct{ Date *time.Time }

func (e StartDateEdit) Field() EditableField { return FieldStartDate }
func (e StartDateEdit) Apply(t *Task)        { t.StartDate = e.Date }
func (e StartDateEdit) Value() any           { return timeValue(e.Date) }

// DueDateEdit clears the due date when Date is nil.
type DueDateEdit struct{ Date *time.Time }

func (e DueDateEdit) Field() EditableField { return FieldDueDate }
func (e DueDateEdit) Apply(t *Task)        { t.DueDate = e.Date }
func (e DueDateEdit) Value() any           { return timeValue(e.Date) }

func timeValue(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

// ParseFieldEdit decodes a JSON value for the named field into its typed edit.
// JSON null clears nullable fields (story_points, start_date, due_date).
func ParseFieldEdit(field string, raw json.RawMessage) (FieldEdit, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%s: value is required", field)
	}
	isNull := strings.TrimSpace(string(raw)) == "null"

	switch EditableField(field) {
	case FieldTitle:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("title: expected string: %w", err)
		}
		return TitleEdit{Title: s}, nil
	case FieldStatus:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("status: expected string: %w", err)
		}
		return StatusEdit{Status: Status(s)}, nil
	case FieldAssignee:
		if isNull {
			return AssigneeEdit{}, nil
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("assignee: expected string: %w", err)
		}
		return AssigneeEdit{Assignee: s}, nil
	case FieldPriority:
		var n int
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, fmt.Errorf("priority: expected integer: %w", err)
		}
		return PriorityEdit{Priority: n}, nil
	case FieldStoryPoints:
		if isNull {
			return StoryPointsEdit{}, nil
		}
		var n int
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, fmt.Errorf("story_points: expected integer: %w", err)
		}
		return StoryPointsEdit{Points: &n}, nil
	case FieldProgress:
		var n int
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, fmt.Errorf("progress: expected integer: %w", err)
		}
		return ProgressEdit{Progress: n}, nil
	case FieldStartDate, FieldDueDate:
		var d *time.Time
		if !isNull {
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return nil, fmt.Errorf("%s: expected date string: %w", field, err)
			}
			parsed, err := ParseDate(s)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", field, err)
			}
			d = &parsed
		}
		if EditableField(field) == FieldStartDate {
			return StartDateEdit{Date: d}, nil
		}
		return DueDateEdit{Date: d}, nil
	}
	return nil, fmt.Errorf("unknown editable field %q", field)
}

// ParseFieldEditString is ParseFieldEdit for command-line input: numeric fields
// take a bare number, text and date fields take the raw string, and "none"
// clears nullable fields.
func ParseFieldEditString(field, value string) (FieldEdit, error) {
	switch EditableField(field) {
	case FieldPriority, FieldProgress:
		if _, err := strconv.Atoi(value); err != nil {
			return nil, fmt.Errorf("%s: expected integer, got %q", field, value)
		}
		return ParseFieldEdit(field, json.RawMessage(value))
	case FieldStoryPoints:
		if value == "none" {
			return ParseFieldEdit(field, json.RawMessage("null"))
		}
		if _, err := strconv.Atoi(value); err != nil {
			return nil, fmt.Errorf("%s: expected integer, got %q", field, value)
		}
		return ParseFieldEdit(field, json.RawMessage(value))
	case FieldStartDate, FieldDueDate, FieldAssignee:
		if value == "none" {
			return ParseFieldEdit(field, json.RawMessage("null"))
		}
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return ParseFieldEdit(field, raw)
}

// ParseDate accepts either an RFC 3339 timestamp or a calendar date
// (YYYY-MM-DD, interpreted as midnight UTC).
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD or RFC 3339)", s)
	}
	return t, nil
}
