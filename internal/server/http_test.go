package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alfredjeanlab/taskgrid/internal/events"
	"github.com/alfredjeanlab/taskgrid/internal/model"
	"github.com/alfredjeanlab/taskgrid/internal/presence"
)

func newTestHandler() (*GridServer, http.Handler) {
	s, _, _ := newTestServer()
	return s, s.NewHTTPHandler("")
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		b, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, code int) {
	t.Helper()
	if rec.Code != code {
		t.Fatalf("expected status %d, got %d: %s", code, rec.Code, rec.Body.String())
	}
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func createViaHTTP(t *testing.T, h http.Handler, body map[string]any) *model.Task {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/v1/tasks", body)
	requireStatus(t, rec, http.StatusCreated)
	var task model.Task
	decodeJSON(t, rec, &task)
	return &task
}

func TestHandleHealth(t *testing.T) {
	_, h := newTestHandler()
	rec := doJSON(t, h, http.MethodGet, "/v1/health", nil)
	requireStatus(t, rec, http.StatusOK)
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("response is missing a request ID")
	}
}

func TestRequestIDPropagated(t *testing.T) {
	_, h := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "req-123" {
		t.Errorf("request ID = %q, want req-123", got)
	}
}

func TestRequestMiddleware_RecoversPanic(t *testing.T) {
	s, _ := newTestHandler()
	h := s.requestMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := doJSON(t, h, http.MethodGet, "/", nil)
	requireStatus(t, rec, http.StatusInternalServerError)
}

func TestHandleHTTPErrors(t *testing.T) {
	_, h := newTestHandler()
	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"get missing task", http.MethodGet, "/v1/tasks/tg-nope", nil, http.StatusNotFound},
		{"delete missing task", http.MethodDelete, "/v1/tasks/tg-nope", nil, http.StatusNotFound},
		{"patch missing task", http.MethodPatch, "/v1/tasks/tg-nope", map[string]any{"title": "x"}, http.StatusNotFound},
		{"create without title", http.MethodPost, "/v1/tasks", map[string]any{}, http.StatusBadRequest},
		{"edit unknown field", http.MethodPut, "/v1/tasks/tg-nope/fields/colour", map[string]any{"value": "red"}, http.StatusBadRequest},
		{"move missing task", http.MethodPost, "/v1/tasks/tg-nope/move", map[string]any{}, http.StatusNotFound},
		{"bad tree flag", http.MethodGet, "/v1/tree?rollup=maybe", nil, http.StatusBadRequest},
		{"unknown view", http.MethodGet, "/v1/tree?view=nope", nil, http.StatusNotFound},
		{"missing config", http.MethodGet, "/v1/configs/grid:nope", nil, http.StatusNotFound},
		{"list configs without namespace", http.MethodGet, "/v1/configs", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h, tt.method, tt.path, tt.body)
			requireStatus(t, rec, tt.want)
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/tasks", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	requireStatus(t, rec, http.StatusBadRequest)
}

func TestHandleTaskLifecycle(t *testing.T) {
	_, h := newTestHandler()

	epic := createViaHTTP(t, h, map[string]any{"project_id": "web", "title": "Epic", "type": "epic"})
	story := createViaHTTP(t, h, map[string]any{"title": "Story", "parent_id": epic.ID})
	if story.ProjectID != "web" || story.Parent() != epic.ID {
		t.Fatalf("story = %+v", story)
	}

	rec := doJSON(t, h, http.MethodGet, "/v1/tasks?project=web&parent="+epic.ID, nil)
	requireStatus(t, rec, http.StatusOK)
	var list struct {
		Tasks []*model.Task `json:"tasks"`
		Total int           `json:"total"`
	}
	decodeJSON(t, rec, &list)
	if list.Total != 1 || list.Tasks[0].ID != story.ID {
		t.Fatalf("children list = %+v", list)
	}

	rec = doJSON(t, h, http.MethodGet, "/v1/tasks?parent=", nil)
	decodeJSON(t, rec, &list)
	if list.Total != 1 || list.Tasks[0].ID != epic.ID {
		t.Fatalf("root list = %+v", list)
	}

	rec = doJSON(t, h, http.MethodPatch, "/v1/tasks/"+story.ID, map[string]any{"assignee": "alice", "priority": 1})
	requireStatus(t, rec, http.StatusOK)

	rec = doJSON(t, h, http.MethodPut, "/v1/tasks/"+story.ID+"/fields/status", map[string]any{"value": "review"})
	requireStatus(t, rec, http.StatusOK)
	var edited model.Task
	decodeJSON(t, rec, &edited)
	if edited.Status != model.StatusReview || edited.Assignee != "alice" {
		t.Errorf("edited = %+v", edited)
	}

	rec = doJSON(t, h, http.MethodPost, "/v1/tasks/"+story.ID+"/comments", map[string]any{"author": "bob", "text": "ship it"})
	requireStatus(t, rec, http.StatusCreated)

	rec = doJSON(t, h, http.MethodGet, "/v1/tasks/"+story.ID, nil)
	requireStatus(t, rec, http.StatusOK)
	var got model.Task
	decodeJSON(t, rec, &got)
	if len(got.Comments) != 1 || got.Comments[0].Text != "ship it" {
		t.Errorf("comments = %+v", got.Comments)
	}

	rec = doJSON(t, h, http.MethodGet, "/v1/tasks/"+story.ID+"/events", nil)
	var evts struct {
		Events []*model.Event `json:"events"`
	}
	decodeJSON(t, rec, &evts)
	// created, updated, updated, comment
	if len(evts.Events) != 4 {
		t.Errorf("events = %d, want 4", len(evts.Events))
	}

	rec = doJSON(t, h, http.MethodPost, "/v1/tasks/"+epic.ID+"/move", map[string]any{"parent_id": story.ID})
	requireStatus(t, rec, http.StatusConflict)

	rec = doJSON(t, h, http.MethodPost, "/v1/tasks/"+story.ID+"/move", map[string]any{"parent_id": ""})
	requireStatus(t, rec, http.StatusOK)
	var moved model.Task
	decodeJSON(t, rec, &moved)
	if moved.ParentID != nil || moved.Position != 1 {
		t.Errorf("moved = parent %v position %d", moved.ParentID, moved.Position)
	}

	rec = doJSON(t, h, http.MethodDelete, "/v1/tasks/"+epic.ID, nil)
	requireStatus(t, rec, http.StatusNoContent)
}

func TestHandleGetTree(t *testing.T) {
	_, h := newTestHandler()
	a := createViaHTTP(t, h, map[string]any{"project_id": "web", "title": "A"})
	createViaHTTP(t, h, map[string]any{"title": "A1", "parent_id": a.ID})
	createViaHTTP(t, h, map[string]any{"project_id": "web", "title": "B"})

	var res struct {
		Rows []struct {
			Task        model.Task `json:"task"`
			Depth       int        `json:"depth"`
			HasChildren bool       `json:"has_children"`
			Visible     bool       `json:"visible"`
		} `json:"rows"`
		Total   int                       `json:"total"`
		Visible int                       `json:"visible"`
		Rollup  map[string]map[string]int `json:"rollup"`
	}

	rec := doJSON(t, h, http.MethodGet, "/v1/tree?project=web", nil)
	requireStatus(t, rec, http.StatusOK)
	decodeJSON(t, rec, &res)
	if res.Total != 3 || res.Visible != 2 || len(res.Rows) != 3 {
		t.Fatalf("collapsed tree: total=%d visible=%d rows=%d", res.Total, res.Visible, len(res.Rows))
	}
	if !res.Rows[0].HasChildren || res.Rows[1].Visible || res.Rows[1].Depth != 1 {
		t.Errorf("rows = %+v", res.Rows)
	}

	rec = doJSON(t, h, http.MethodGet, "/v1/tree?project=web&expanded="+a.ID+"&visible_only=true&rollup=true", nil)
	requireStatus(t, rec, http.StatusOK)
	res.Rows = nil
	decodeJSON(t, rec, &res)
	if len(res.Rows) != 3 || res.Rows[1].Task.Title != "A1" || !res.Rows[1].Visible {
		t.Errorf("expanded rows = %+v", res.Rows)
	}
	if res.Rollup[a.ID]["total"] != 1 {
		t.Errorf("rollup = %+v", res.Rollup)
	}

	rec = doJSON(t, h, http.MethodPut, "/v1/configs/grid:open", map[string]any{"value": map[string]any{"expanded": []string{a.ID}}})
	requireStatus(t, rec, http.StatusOK)
	rec = doJSON(t, h, http.MethodGet, "/v1/tree?project=web&view=open&visible_only=1", nil)
	requireStatus(t, rec, http.StatusOK)
	res.Rows = nil
	decodeJSON(t, rec, &res)
	if len(res.Rows) != 3 {
		t.Errorf("saved view rows = %d, want 3", len(res.Rows))
	}
}

func TestHandleGetStats(t *testing.T) {
	_, h := newTestHandler()
	createViaHTTP(t, h, map[string]any{"project_id": "web", "title": "A", "status": "done"})
	createViaHTTP(t, h, map[string]any{"project_id": "web", "title": "B"})

	rec := doJSON(t, h, http.MethodGet, "/v1/stats?project=web", nil)
	requireStatus(t, rec, http.StatusOK)
	var res struct {
		Stats       model.TaskStats `json:"stats"`
		Total       int             `json:"total"`
		PercentDone int             `json:"percent_done"`
	}
	decodeJSON(t, rec, &res)
	if res.Total != 2 || res.PercentDone != 50 || res.Stats.TotalDone != 1 {
		t.Errorf("stats = %+v", res)
	}
}

func TestHandleConfigs(t *testing.T) {
	_, h := newTestHandler()

	rec := doJSON(t, h, http.MethodPut, "/v1/configs/grid:mine", map[string]any{"value": map[string]any{"expanded": []string{"a"}}})
	requireStatus(t, rec, http.StatusOK)

	rec = doJSON(t, h, http.MethodPut, "/v1/configs/grid:bad", map[string]any{"value": map[string]any{"expanded": "a"}})
	requireStatus(t, rec, http.StatusBadRequest)

	rec = doJSON(t, h, http.MethodGet, "/v1/configs?namespace=grid", nil)
	requireStatus(t, rec, http.StatusOK)
	var list struct {
		Configs []*model.Config `json:"configs"`
	}
	decodeJSON(t, rec, &list)
	// grid:mine plus the builtin grid:collapsed
	if len(list.Configs) != 2 {
		t.Fatalf("configs = %d, want 2", len(list.Configs))
	}

	rec = doJSON(t, h, http.MethodGet, "/v1/configs/grid:collapsed", nil)
	requireStatus(t, rec, http.StatusOK)

	rec = doJSON(t, h, http.MethodDelete, "/v1/configs/grid:mine", nil)
	requireStatus(t, rec, http.StatusNoContent)
	rec = doJSON(t, h, http.MethodDelete, "/v1/configs/grid:mine", nil)
	requireStatus(t, rec, http.StatusNotFound)
}

func TestNewHTTPHandler_Auth(t *testing.T) {
	s, _, _ := newTestServer()
	h := s.NewHTTPHandler("secret")

	requireStatus(t, doJSON(t, h, http.MethodGet, "/v1/health", nil), http.StatusOK)
	requireStatus(t, doJSON(t, h, http.MethodGet, "/v1/tasks", nil), http.StatusUnauthorized)

	req := httptest.NewRequest(http.MethodGet, "/v1/tasks", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	requireStatus(t, rec, http.StatusOK)
}

func TestHandleGetPresence(t *testing.T) {
	_, h := newTestHandler()

	rec := doJSON(t, h, http.MethodGet, "/v1/presence", nil)
	requireStatus(t, rec, http.StatusOK)
	var empty struct {
		Editors []presence.Editor `json:"editors"`
	}
	decodeJSON(t, rec, &empty)
	if empty.Editors == nil || len(empty.Editors) != 0 {
		t.Fatalf("expected empty editors array, got %+v", empty.Editors)
	}

	a := createViaHTTP(t, h, map[string]any{"project_id": "web", "title": "A", "created_by": "alice"})
	createViaHTTP(t, h, map[string]any{"project_id": "api", "title": "B", "created_by": "bob"})
	rec = doJSON(t, h, http.MethodPut, "/v1/tasks/"+a.ID+"/fields/status", map[string]any{"value": "done", "actor": "alice"})
	requireStatus(t, rec, http.StatusOK)

	rec = doJSON(t, h, http.MethodGet, "/v1/presence?project=web", nil)
	requireStatus(t, rec, http.StatusOK)
	var got struct {
		Editors []presence.Editor `json:"editors"`
	}
	decodeJSON(t, rec, &got)
	if len(got.Editors) != 1 {
		t.Fatalf("expected 1 web editor, got %+v", got.Editors)
	}
	e := got.Editors[0]
	if e.Actor != "alice" || e.Edits != 2 || e.LastTask != a.ID || e.LastTopic != events.TopicTaskUpdated {
		t.Errorf("editor = %+v", e)
	}

	rec = doJSON(t, h, http.MethodGet, "/v1/presence?stale_threshold_secs=bogus", nil)
	requireStatus(t, rec, http.StatusBadRequest)
}
