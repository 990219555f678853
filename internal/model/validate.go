package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ValidateTask checks a Task for constraint violations.
// It returns a *ValidationError if any rules fail, or nil if the task is valid.
func ValidateTask(t *Task) error {
	var ve ValidationError

	title := strings.TrimSpace(t.Title)
	if title == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "title", Message: "is required"})
	} else if len([]rune(title)) > 500 {
		ve.Errors = append(ve.Errors, FieldError{Field: "title", Message: "must be 500 characters or fewer"})
	}

	if t.Priority < 0 || t.Priority > 4 {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "priority",
			Message: fmt.Sprintf("must be between 0 and 4, got %d", t.Priority),
		})
	}

	if !t.Status.IsValid() {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "status",
			Message: fmt.Sprintf("invalid value %q", t.Status),
		})
	}

	if strings.TrimSpace(string(t.Type)) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "type", Message: "is required"})
	}

	if t.Progress < 0 || t.Progress > 100 {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "progress",
			Message: fmt.Sprintf("must be between 0 and 100, got %d", t.Progress),
		})
	}

	if t.StoryPoints != nil && *t.StoryPoints < 0 {
		ve.Errors = append(ve.Errors, FieldError{Field: "story_points", Message: "must not be negative"})
	}

	if t.StartDate != nil && t.DueDate != nil && t.DueDate.Before(*t.StartDate) {
		ve.Errors = append(ve.Errors, FieldError{Field: "due_date", Message: "must not be before start_date"})
	}

	if t.ParentID != nil && *t.ParentID == t.ID && t.ID != "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "parent_id", Message: "must not reference the task itself"})
	}

	if len(t.Fields) > 0 && !json.Valid(t.Fields) {
		ve.Errors = append(ve.Errors, FieldError{Field: "fields", Message: "contains invalid JSON"})
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}
