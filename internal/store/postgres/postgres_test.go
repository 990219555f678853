package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/alfredjeanlab/taskgrid/internal/model"
	"github.com/alfredjeanlab/taskgrid/internal/store"
)

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

// taskRowColumns is the column list for scanTask results.
var taskRowColumns = []string{
	"id", "project_id", "parent_id", "hierarchy_level", "title", "description",
	"type", "status", "priority", "assignee", "story_points", "progress",
	"start_date", "due_date", "position", "created_at", "created_by", "updated_at", "fields",
}

// taskWithTotalColumns is the column list for queryListTasks results.
var taskWithTotalColumns = append([]string{"total_count"}, taskRowColumns...)

var commentColumns = []string{"id", "task_id", "author", "text", "created_at"}

// addTaskWithTotalRow adds a minimal task row with a leading total_count to a sqlmock.Rows.
func addTaskWithTotalRow(rows *sqlmock.Rows, total int, id, parentID, status string, position int, now time.Time) *sqlmock.Rows {
	var parent driver.Value
	if parentID != "" {
		parent = parentID
	}
	return rows.AddRow(
		total,
		id, "web", parent, nil, "T", nil,
		"task", status, 2, nil, nil, 0,
		nil, nil, position, now, nil, now, nil,
	)
}

func TestParseSortClause(t *testing.T) {
	for _, tc := range []struct {
		input string
		want  string
	}{
		{"", "position ASC, created_at ASC"},
		{"priority", "priority ASC"},
		{"-priority", "priority DESC"},
		{"evil_column", "position ASC, created_at ASC"},
		{"-evil_column; DROP TABLE tasks", "position ASC, created_at ASC"},
	} {
		if got := parseSortClause(tc.input); got != tc.want {
			t.Errorf("parseSortClause(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
	for _, col := range []string{"position", "priority", "created_at", "updated_at", "title", "status", "due_date", "start_date"} {
		if got := parseSortClause(col); got != col+" ASC" {
			t.Errorf("parseSortClause(%q) = %q, want %q", col, got, col+" ASC")
		}
		if got := parseSortClause("-" + col); got != col+" DESC" {
			t.Errorf("parseSortClause(-%q) = %q, want %q", col, got, col+" DESC")
		}
	}
}

func TestScanHelpers(t *testing.T) {
	if nullTimePtr(nil).Valid {
		t.Error("nullTimePtr(nil) should be invalid")
	}
	now := time.Now()
	if nt := nullTimePtr(&now); !nt.Valid || !nt.Time.Equal(now) {
		t.Errorf("nullTimePtr(now) = %v", nt)
	}

	if nullStringPtr(nil).Valid {
		t.Error("nullStringPtr(nil) should be invalid")
	}
	empty := ""
	if ns := nullStringPtr(&empty); !ns.Valid {
		t.Error("nullStringPtr(&\"\") should be valid")
	}

	if nullIntPtr(nil).Valid {
		t.Error("nullIntPtr(nil) should be invalid")
	}
	five := 5
	if ni := nullIntPtr(&five); !ni.Valid || ni.Int64 != 5 {
		t.Errorf("nullIntPtr(5) = %v", ni)
	}
	if p := intPtr(sql.NullInt64{Int64: 3, Valid: true}); p == nil || *p != 3 {
		t.Errorf("intPtr(3) = %v", p)
	}
	if intPtr(sql.NullInt64{}) != nil {
		t.Error("intPtr(null) should be nil")
	}

	if jsonbBytes(nil) != nil {
		t.Error("jsonbBytes(nil) should be nil")
	}
	input := json.RawMessage(`{"key":"value"}`)
	if string(jsonbBytes(input)) != `{"key":"value"}` {
		t.Errorf("jsonbBytes = %s", jsonbBytes(input))
	}
}

func TestQueryCreateTask(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	task := &model.Task{
		ID: "tg-test1", ProjectID: "web", Type: model.TypeTask, Title: "Test task",
		Status: model.StatusTodo, Priority: 2, Position: 3, CreatedAt: now, UpdatedAt: now,
	}
	task.SetParent("tg-epic")
	mock.ExpectExec("INSERT INTO tasks").
		WithArgs(
			"tg-test1", "web", "tg-epic", nil, "Test task", "",
			"task", "todo", 2, "", nil, 0,
			nil, nil, 3, now, "", now, sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := queryCreateTask(context.Background(), db, task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestQueryGetTask(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(taskRowColumns).AddRow(
		"tg-test1", "web", "tg-epic", 1, "Test task", nil,
		"story", "in_progress", 1, "alice", 5, 40,
		nil, now, 2, now, "bob", now, nil,
	)
	mock.ExpectQuery("SELECT .+ FROM tasks WHERE id = \\$1").WithArgs("tg-test1").WillReturnRows(rows)
	mock.ExpectQuery("SELECT .+ FROM comments WHERE task_id = \\$1").WithArgs("tg-test1").
		WillReturnRows(sqlmock.NewRows(commentColumns).AddRow(int64(1), "tg-test1", "carol", "LGTM", now))

	task, err := queryGetTask(context.Background(), db, "tg-test1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.ID != "tg-test1" || task.Title != "Test task" {
		t.Fatalf("got id=%q title=%q", task.ID, task.Title)
	}
	if task.Parent() != "tg-epic" {
		t.Fatalf("expected parent tg-epic, got %q", task.Parent())
	}
	if task.StoryPoints == nil || *task.StoryPoints != 5 {
		t.Fatalf("expected story_points=5, got %v", task.StoryPoints)
	}
	if task.DueDate == nil || task.StartDate != nil {
		t.Fatalf("got start=%v due=%v", task.StartDate, task.DueDate)
	}
	if len(task.Comments) != 1 || task.Comments[0].Author != "carol" {
		t.Fatalf("expected one comment by carol, got %v", task.Comments)
	}
}

func TestQueryGetTask_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT .+ FROM tasks WHERE id = \\$1").WithArgs("nonexistent").WillReturnError(sql.ErrNoRows)

	_, err := queryGetTask(context.Background(), db, "nonexistent")
	if err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestScanTask_NullableColumns(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	start := now.Add(-24 * time.Hour)

	rows := sqlmock.NewRows(taskRowColumns).AddRow(
		"tg-full", "web", nil, 4, "Full task", "A description",
		"bug", "blocked", 0, nil, nil, 100,
		start, nil, 7, now, "carol", now, []byte(`{"sprint":"3"}`),
	)
	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	task, err := scanTask(db.QueryRow("SELECT"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.ParentID != nil {
		t.Fatalf("expected root task, got parent %q", *task.ParentID)
	}
	if task.HierarchyLevel == nil || *task.HierarchyLevel != 4 {
		t.Fatalf("got hierarchy_level=%v", task.HierarchyLevel)
	}
	if task.StoryPoints != nil || task.Assignee != "" {
		t.Fatalf("got story_points=%v assignee=%q", task.StoryPoints, task.Assignee)
	}
	if task.StartDate == nil || !task.StartDate.Equal(start) || task.DueDate != nil {
		t.Fatalf("got start=%v due=%v", task.StartDate, task.DueDate)
	}
	if task.Description != "A description" || task.CreatedBy != "carol" || task.Position != 7 {
		t.Fatalf("got description=%q created_by=%q position=%d", task.Description, task.CreatedBy, task.Position)
	}
	if string(task.Fields) != `{"sprint":"3"}` {
		t.Fatalf("got fields=%s", task.Fields)
	}
}

func TestQueryUpdateTask(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	level := 1
	task := &model.Task{
		ID: "tg-test1", ProjectID: "web", Type: model.TypeTask, Title: "Updated task",
		Status: model.StatusReview, Priority: 1, HierarchyLevel: &level,
	}
	mock.ExpectQuery("UPDATE tasks SET").
		WithArgs(
			"tg-test1", "web", nil, int64(1), "Updated task", "",
			"task", "review", 1, "", nil, 0,
			nil, nil, 0, sqlmock.AnyArg(),
		).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))

	if err := queryUpdateTask(context.Background(), db, task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !task.UpdatedAt.Equal(now) {
		t.Fatalf("expected updated_at to be refreshed, got %v", task.UpdatedAt)
	}
}

func TestQueryUpdateTask_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	task := &model.Task{ID: "nonexistent", Type: model.TypeTask, Title: "Test", Status: model.StatusTodo}
	mock.ExpectQuery("UPDATE tasks SET").WillReturnError(sql.ErrNoRows)

	if err := queryUpdateTask(context.Background(), db, task); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestQueryDeleteTask(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("DELETE FROM tasks WHERE id = \\$1").WithArgs("tg-del1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := queryDeleteTask(context.Background(), db, "tg-del1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestQueryDeleteTask_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("DELETE FROM tasks WHERE id = \\$1").WithArgs("nonexistent").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := queryDeleteTask(context.Background(), db, "nonexistent"); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestQueryListTasks(t *testing.T) {
	now := time.Now().UTC()
	root := ""
	epic := "tg-epic"

	for _, tc := range []struct {
		name      string
		filter    model.TaskFilter
		queryPat  string
		args      []driver.Value
		wantCount int
		wantTotal int
	}{
		{
			name:      "NoFilter",
			filter:    model.TaskFilter{},
			queryPat:  "SELECT COUNT\\(\\*\\) OVER\\(\\) AS total_count, .+ FROM tasks ORDER BY position ASC, created_at ASC",
			wantCount: 2,
			wantTotal: 2,
		},
		{
			name:      "FilterByProject",
			filter:    model.TaskFilter{ProjectID: "web"},
			queryPat:  "SELECT .+ FROM tasks WHERE project_id = \\$1 ORDER BY",
			args:      []driver.Value{"web"},
			wantCount: 3,
			wantTotal: 3,
		},
		{
			name:      "FilterByStatus",
			filter:    model.TaskFilter{Status: []model.Status{model.StatusTodo, model.StatusBlocked}},
			queryPat:  "SELECT .+ FROM tasks WHERE status IN \\(\\$1, \\$2\\) ORDER BY",
			args:      []driver.Value{"todo", "blocked"},
			wantCount: 1,
			wantTotal: 1,
		},
		{
			name:     "FilterByType",
			filter:   model.TaskFilter{Type: []model.TaskType{model.TypeBug}},
			queryPat: "SELECT .+ FROM tasks WHERE type IN \\(\\$1\\) ORDER BY",
			args:     []driver.Value{"bug"},
		},
		{
			name:      "FilterByAssignee",
			filter:    model.TaskFilter{Assignee: "alice"},
			queryPat:  "SELECT .+ FROM tasks WHERE assignee = \\$1 ORDER BY",
			args:      []driver.Value{"alice"},
			wantCount: 1,
			wantTotal: 1,
		},
		{
			name:      "RootLevelOnly",
			filter:    model.TaskFilter{ParentID: &root},
			queryPat:  "SELECT .+ FROM tasks WHERE parent_id IS NULL ORDER BY",
			wantCount: 1,
			wantTotal: 1,
		},
		{
			name:      "ChildrenOfParent",
			filter:    model.TaskFilter{ParentID: &epic},
			queryPat:  "SELECT .+ FROM tasks WHERE parent_id = \\$1 ORDER BY",
			args:      []driver.Value{"tg-epic"},
			wantCount: 2,
			wantTotal: 2,
		},
		{
			name:      "FilterBySearch",
			filter:    model.TaskFilter{Search: "login"},
			queryPat:  "SELECT .+ FROM tasks WHERE \\(title ILIKE .+\\) ORDER BY",
			args:      []driver.Value{"login"},
			wantCount: 1,
			wantTotal: 1,
		},
		{
			name:      "WithLimitAndOffset",
			filter:    model.TaskFilter{Limit: 10, Offset: 5},
			queryPat:  "SELECT .+ FROM tasks ORDER BY .+ LIMIT \\$1 OFFSET \\$2",
			args:      []driver.Value{10, 5},
			wantCount: 1,
			wantTotal: 20,
		},
		{
			name:     "WithSort",
			filter:   model.TaskFilter{Sort: "-due_date"},
			queryPat: "SELECT .+ FROM tasks ORDER BY due_date DESC",
		},
		{
			name:      "CombinedFilters",
			filter:    model.TaskFilter{ProjectID: "web", Status: []model.Status{model.StatusTodo}, Assignee: "bob", Limit: 5},
			queryPat:  "SELECT .+ FROM tasks WHERE project_id = \\$1 AND status IN \\(\\$2\\) AND assignee = \\$3 ORDER BY .+ LIMIT \\$4",
			args:      []driver.Value{"web", "todo", "bob", 5},
			wantCount: 1,
			wantTotal: 3,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			eq := mock.ExpectQuery(tc.queryPat)
			if len(tc.args) > 0 {
				eq.WithArgs(tc.args...)
			}
			r := sqlmock.NewRows(taskWithTotalColumns)
			for i := range tc.wantCount {
				addTaskWithTotalRow(r, tc.wantTotal, fmt.Sprintf("tg-%d", i+1), "", "todo", i, now)
			}
			eq.WillReturnRows(r)

			tasks, total, err := queryListTasks(context.Background(), db, tc.filter)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(tasks) != tc.wantCount {
				t.Fatalf("expected %d tasks, got %d", tc.wantCount, len(tasks))
			}
			if total != tc.wantTotal {
				t.Fatalf("expected total=%d, got %d", tc.wantTotal, total)
			}
		})
	}
}

func TestQueryListTasks_ScansParents(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	r := sqlmock.NewRows(taskWithTotalColumns)
	addTaskWithTotalRow(r, 2, "tg-a", "", "todo", 0, now)
	addTaskWithTotalRow(r, 2, "tg-b", "tg-a", "done", 0, now)
	mock.ExpectQuery("SELECT COUNT").WillReturnRows(r)

	tasks, _, err := queryListTasks(context.Background(), db, model.TaskFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tasks[0].ParentID != nil || tasks[1].Parent() != "tg-a" {
		t.Fatalf("got parents %v, %q", tasks[0].ParentID, tasks[1].Parent())
	}
	if tasks[1].Status != model.StatusDone {
		t.Fatalf("got status %q", tasks[1].Status)
	}
}

func TestQueryListTasks_QueryError(t *testing.T) {
	db, mock := newMockDB(t)
	boom := errors.New("connection reset")
	mock.ExpectQuery("SELECT COUNT").WillReturnError(boom)

	if _, _, err := queryListTasks(context.Background(), db, model.TaskFilter{}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped %v, got %v", boom, err)
	}
}

func TestQueryAddComment(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	comment := &model.Comment{TaskID: "tg-a", Author: "alice", Text: "Hello world"}
	mock.ExpectQuery("INSERT INTO comments").
		WithArgs("tg-a", "alice", "Hello world").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), now))

	if err := queryAddComment(context.Background(), db, comment); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if comment.ID != 1 || comment.CreatedAt.IsZero() {
		t.Fatalf("got id=%d created_at=%v", comment.ID, comment.CreatedAt)
	}
}

func TestQueryGetComments(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	rows := sqlmock.NewRows(commentColumns).
		AddRow(int64(1), "tg-a", "alice", "First", now).
		AddRow(int64(2), "tg-a", nil, "Second", now)
	mock.ExpectQuery("SELECT .+ FROM comments WHERE task_id = \\$1").WithArgs("tg-a").WillReturnRows(rows)

	comments, err := queryGetComments(context.Background(), db, "tg-a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(comments) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(comments))
	}
	if comments[0].Author != "alice" || comments[1].Author != "" {
		t.Fatalf("got authors=%q %q", comments[0].Author, comments[1].Author)
	}
}

func TestQueryRecordEvent(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	event := &model.Event{
		Topic: "taskgrid.task.created", TaskID: "tg-a", Actor: "alice",
		Payload: json.RawMessage(`{"task":{"id":"tg-a"}}`),
	}
	mock.ExpectQuery("INSERT INTO events").
		WithArgs("taskgrid.task.created", "tg-a", "alice", []byte(`{"task":{"id":"tg-a"}}`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(1, now))

	if err := queryRecordEvent(context.Background(), db, event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.ID != 1 {
		t.Fatalf("expected id=1, got %d", event.ID)
	}
}

func TestQueryGetEvents(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "topic", "task_id", "actor", "payload", "created_at"}).
		AddRow(1, "taskgrid.task.created", "tg-a", "alice", []byte(`{}`), now).
		AddRow(2, "taskgrid.task.moved", "tg-a", nil, []byte(`{}`), now)
	mock.ExpectQuery("SELECT .+ FROM events WHERE task_id = \\$1").WithArgs("tg-a").WillReturnRows(rows)

	evts, err := queryGetEvents(context.Background(), db, "tg-a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(evts) != 2 {
		t.Fatalf("expected 2 events, got %d", len(evts))
	}
	if evts[0].Actor != "alice" || evts[1].Actor != "" {
		t.Fatalf("got actors=%q %q", evts[0].Actor, evts[1].Actor)
	}
}

func TestQuerySetConfig(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	config := &model.Config{Key: "grid:mine", Value: json.RawMessage(`{"expanded":["tg-a"]}`)}
	mock.ExpectQuery("INSERT INTO configs").
		WithArgs("grid:mine", []byte(`{"expanded":["tg-a"]}`)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	if err := querySetConfig(context.Background(), db, config); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be set")
	}
}

func TestQueryGetConfig(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT .+ FROM configs WHERE key = \\$1").WithArgs("grid:mine").
		WillReturnRows(sqlmock.NewRows([]string{"key", "value", "created_at", "updated_at"}).
			AddRow("grid:mine", []byte(`{}`), now, now))

	config, err := queryGetConfig(context.Background(), db, "grid:mine")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.Key != "grid:mine" {
		t.Fatalf("got key=%q", config.Key)
	}
}

func TestQueryGetConfig_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT .+ FROM configs WHERE key = \\$1").WithArgs("nonexistent").
		WillReturnError(sql.ErrNoRows)

	if _, err := queryGetConfig(context.Background(), db, "nonexistent"); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestQueryListConfigs(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT .+ FROM configs WHERE key LIKE").WithArgs("grid").
		WillReturnRows(sqlmock.NewRows([]string{"key", "value", "created_at", "updated_at"}).
			AddRow("grid:all-open", []byte(`{}`), now, now).
			AddRow("grid:mine", []byte(`{}`), now, now))

	configs, err := queryListConfigs(context.Background(), db, "grid")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(configs) != 2 {
		t.Fatalf("expected 2 configs, got %d", len(configs))
	}
}

func TestQueryListAllConfigs(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT .+ FROM configs ORDER BY key").
		WillReturnRows(sqlmock.NewRows([]string{"key", "value", "created_at", "updated_at"}).
			AddRow("board:default", []byte(`{}`), now, now).
			AddRow("grid:mine", []byte(`{}`), now, now))

	configs, err := queryListAllConfigs(context.Background(), db)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(configs) != 2 {
		t.Fatalf("expected 2 configs, got %d", len(configs))
	}
	if configs[0].Key != "board:default" || configs[1].Key != "grid:mine" {
		t.Fatalf("unexpected keys: %q, %q", configs[0].Key, configs[1].Key)
	}
}

func TestQueryDeleteConfig(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("DELETE FROM configs WHERE key = \\$1").WithArgs("grid:mine").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := queryDeleteConfig(context.Background(), db, "grid:mine"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestQueryDeleteConfig_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("DELETE FROM configs WHERE key = \\$1").WithArgs("nonexistent").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := queryDeleteConfig(context.Background(), db, "nonexistent"); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestQueryGetStats(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT .+ FROM tasks`).WithArgs("web").WillReturnRows(
		sqlmock.NewRows([]string{"todo", "in_progress", "review", "done", "blocked"}).
			AddRow(5, 3, 2, 10, 1),
	)

	stats, err := queryGetStats(context.Background(), db, "web")
	if err != nil {
		t.Fatal(err)
	}
	want := model.TaskStats{TotalTodo: 5, TotalInProgress: 3, TotalReview: 2, TotalDone: 10, TotalBlocked: 1}
	if *stats != want {
		t.Fatalf("got %+v, want %+v", *stats, want)
	}
}

func TestRunInTransaction(t *testing.T) {
	t.Run("commit", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM tasks").WithArgs("tg-a").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		s := NewWithDB(db)
		err := s.RunInTransaction(context.Background(), func(tx store.Store) error {
			return tx.DeleteTask(context.Background(), "tg-a")
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("rollback", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM tasks").WithArgs("tg-a").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		s := NewWithDB(db)
		err := s.RunInTransaction(context.Background(), func(tx store.Store) error {
			return tx.DeleteTask(context.Background(), "tg-a")
		})
		if err != sql.ErrNoRows {
			t.Fatalf("expected sql.ErrNoRows, got %v", err)
		}
	})
}

func TestTranslateError(t *testing.T) {
	fk := &pq.Error{Code: "23503", Constraint: "tasks_parent_id_fkey", Message: "violates foreign key"}
	if err := translateError(fk); !errors.Is(err, store.ErrConstraint) {
		t.Fatalf("expected ErrConstraint, got %v", err)
	}
	other := &pq.Error{Code: "40001", Message: "serialization failure"}
	if err := translateError(other); errors.Is(err, store.ErrConstraint) {
		t.Fatalf("serialization failure should not be a constraint error: %v", err)
	}
	if translateError(nil) != nil {
		t.Fatal("translateError(nil) should be nil")
	}
	if err := translateError(sql.ErrNoRows); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows passthrough, got %v", err)
	}
}

func TestCreateTask_ForeignKeyViolation(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("INSERT INTO tasks").
		WillReturnError(&pq.Error{Code: "23503", Constraint: "tasks_parent_id_fkey"})

	task := &model.Task{ID: "tg-x", Type: model.TypeTask, Title: "x", Status: model.StatusTodo}
	task.SetParent("tg-missing")
	if err := NewWithDB(db).CreateTask(context.Background(), task); !errors.Is(err, store.ErrConstraint) {
		t.Fatalf("expected ErrConstraint, got %v", err)
	}
}
