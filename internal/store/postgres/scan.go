package postgres

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/alfredjeanlab/taskgrid/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanTask scans a single row into a model.Task.
// The row must contain columns in the order defined by taskColumns.
func scanTask(row scannable) (*model.Task, error) {
	return scanTaskColumns(row)
}

// scanTaskWithTotal scans a row that has a leading total_count column
// followed by the standard task columns. Used by queryListTasks with
// COUNT(*) OVER().
func scanTaskWithTotal(row scannable) (*model.Task, int, error) {
	var total int
	t, err := scanTaskColumns(row, &total)
	if err != nil {
		return nil, 0, err
	}
	return t, total, nil
}

// scanTaskColumns scans the task columns, preceded by any leading destinations.
func scanTaskColumns(row scannable, leading ...any) (*model.Task, error) {
	var t model.Task
	var (
		parentID       sql.NullString
		hierarchyLevel sql.NullInt64
		description    sql.NullString
		assignee       sql.NullString
		storyPoints    sql.NullInt64
		startDate      sql.NullTime
		dueDate        sql.NullTime
		createdBy      sql.NullString
		fields         []byte
	)

	dest := append(leading,
		&t.ID,
		&t.ProjectID,
		&parentID,
		&hierarchyLevel,
		&t.Title,
		&description,
		&t.Type,
		&t.Status,
		&t.Priority,
		&assignee,
		&storyPoints,
		&t.Progress,
		&startDate,
		&dueDate,
		&t.Position,
		&t.CreatedAt,
		&createdBy,
		&t.UpdatedAt,
		&fields,
	)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	t.Description = description.String
	t.Assignee = assignee.String
	t.CreatedBy = createdBy.String

	if parentID.Valid {
		p := parentID.String
		t.ParentID = &p
	}
	t.HierarchyLevel = intPtr(hierarchyLevel)
	t.StoryPoints = intPtr(storyPoints)
	t.StartDate = timePtr(startDate)
	t.DueDate = timePtr(dueDate)
	if len(fields) > 0 {
		t.Fields = json.RawMessage(fields)
	}

	return &t, nil
}

// scanComment scans a single row into a model.Comment.
func scanComment(row scannable) (*model.Comment, error) {
	var c model.Comment
	var author sql.NullString
	err := row.Scan(
		&c.ID,
		&c.TaskID,
		&author,
		&c.Text,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Author = author.String
	return &c, nil
}

// scanComments scans multiple rows into a slice of model.Comment pointers.
func scanComments(rows *sql.Rows) ([]*model.Comment, error) {
	var comments []*model.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return comments, nil
}

// scanEvent scans a single row into a model.Event.
func scanEvent(row scannable) (*model.Event, error) {
	var e model.Event
	var (
		actor   sql.NullString
		payload []byte
	)
	err := row.Scan(&e.ID, &e.Topic, &e.TaskID, &actor, &payload, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.Actor = actor.String
	if len(payload) > 0 {
		e.Payload = json.RawMessage(payload)
	}
	return &e, nil
}

// scanEvents scans multiple rows into a slice of model.Event pointers.
func scanEvents(rows *sql.Rows) ([]*model.Event, error) {
	var events []*model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// scanConfig scans a single row into a model.Config.
func scanConfig(row scannable) (*model.Config, error) {
	var c model.Config
	var value []byte
	err := row.Scan(&c.Key, &value, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Value = json.RawMessage(value)
	return &c, nil
}

// scanConfigs scans multiple rows into a slice of model.Config pointers.
func scanConfigs(rows *sql.Rows) ([]*model.Config, error) {
	var configs []*model.Config
	for rows.Next() {
		c, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return configs, nil
}

// nullTimePtr converts a *time.Time to a sql.NullTime.
func nullTimePtr(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// nullStringPtr converts a *string to a sql.NullString; nil is null.
func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// nullIntPtr converts a *int to a sql.NullInt64; nil is null.
func nullIntPtr(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// jsonbBytes converts json.RawMessage to a []byte suitable for JSONB columns.
func jsonbBytes(m json.RawMessage) []byte {
	if len(m) == 0 {
		return nil
	}
	return []byte(m)
}
