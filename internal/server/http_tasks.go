package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/alfredjeanlab/taskgrid/internal/model"
)

// handleCreateTask handles POST /v1/tasks.
func (s *GridServer) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var in createTaskInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	task, err := s.createTask(r.Context(), in)
	if err != nil {
		s.writeDomainError(w, r, "task not found", err)
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

// handleListTasks handles GET /v1/tasks.
func (s *GridServer) handleListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.TaskFilter{
		ProjectID: q.Get("project"),
		Assignee:  q.Get("assignee"),
		Search:    q.Get("search"),
		Sort:      q.Get("sort"),
	}

	if v := q.Get("status"); v != "" {
		for _, s := range strings.Split(v, ",") {
			filter.Status = append(filter.Status, model.Status(s))
		}
	}
	if v := q.Get("type"); v != "" {
		for _, t := range strings.Split(v, ",") {
			filter.Type = append(filter.Type, model.TaskType(t))
		}
	}
	if q.Has("parent") {
		parent := q.Get("parent")
		filter.ParentID = &parent
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	tasks, total, err := s.store.ListTasks(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}

	// Ensure tasks is never null in JSON output.
	if tasks == nil {
		tasks = []*model.Task{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tasks": tasks,
		"total": total,
	})
}

// handleGetTask handles GET /v1/tasks/{id}.
func (s *GridServer) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.store.GetTask(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, r, "task not found", err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// handleUpdateTask handles PATCH /v1/tasks/{id}.
func (s *GridServer) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var in updateTaskInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	task, err := s.updateTask(r.Context(), r.PathValue("id"), in)
	if err != nil {
		s.writeDomainError(w, r, "task not found", err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// editFieldRequest is the JSON body for PUT /v1/tasks/{id}/fields/{field}.
type editFieldRequest struct {
	Value json.RawMessage `json:"value"`
	Actor string          `json:"actor,omitempty"`
}

// handleEditField handles PUT /v1/tasks/{id}/fields/{field}, the inline cell edit.
func (s *GridServer) handleEditField(w http.ResponseWriter, r *http.Request) {
	var req editFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	task, err := s.editField(r.Context(), r.PathValue("id"), r.PathValue("field"), req.Value, req.Actor)
	if err != nil {
		s.writeDomainError(w, r, "task not found", err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// handleMoveTask handles POST /v1/tasks/{id}/move.
func (s *GridServer) handleMoveTask(w http.ResponseWriter, r *http.Request) {
	var in moveTaskInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	task, err := s.moveTask(r.Context(), r.PathValue("id"), in)
	if err != nil {
		s.writeDomainError(w, r, "task not found", err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// handleDeleteTask handles DELETE /v1/tasks/{id}.
func (s *GridServer) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.deleteTask(r.Context(), r.PathValue("id"), r.URL.Query().Get("actor")); err != nil {
		s.writeDomainError(w, r, "task not found", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// addCommentRequest is the JSON body for POST /v1/tasks/{id}/comments.
type addCommentRequest struct {
	Author string `json:"author"`
	Text   string `json:"text"`
}

// handleAddComment handles POST /v1/tasks/{id}/comments.
func (s *GridServer) handleAddComment(w http.ResponseWriter, r *http.Request) {
	var req addCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	comment, err := s.addComment(r.Context(), r.PathValue("id"), req.Author, req.Text)
	if err != nil {
		s.writeDomainError(w, r, "task not found", err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

// handleGetComments handles GET /v1/tasks/{id}/comments.
func (s *GridServer) handleGetComments(w http.ResponseWriter, r *http.Request) {
	comments, err := s.store.GetComments(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get comments")
		return
	}
	if comments == nil {
		comments = []*model.Comment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"comments": comments})
}

// handleGetEvents handles GET /v1/tasks/{id}/events.
func (s *GridServer) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	evts, err := s.store.GetEvents(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get events")
		return
	}
	if evts == nil {
		evts = []*model.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": evts})
}

// handleGetTree handles GET /v1/tree.
func (s *GridServer) handleGetTree(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	gq := gridQuery{
		ProjectID: q.Get("project"),
		View:      q.Get("view"),
	}
	if v := q.Get("expanded"); v != "" {
		gq.Expanded = strings.Split(v, ",")
	}
	var err error
	for name, dst := range map[string]*bool{
		"expand_all":   &gq.ExpandAll,
		"visible_only": &gq.VisibleOnly,
		"rollup":       &gq.Rollup,
	} {
		if v := q.Get(name); v != "" {
			if *dst, err = strconv.ParseBool(v); err != nil {
				writeError(w, http.StatusBadRequest, name+" must be a boolean")
				return
			}
		}
	}

	res, err := s.grid(r.Context(), gq)
	if err != nil {
		s.writeDomainError(w, r, "grid view not found", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleGetStats handles GET /v1/stats.
func (s *GridServer) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetStats(r.Context(), r.URL.Query().Get("project"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"stats":        stats,
		"total":        stats.Total(),
		"percent_done": stats.PercentDone(),
	})
}
