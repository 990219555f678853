package server

import (
	"encoding/json"
	"net/http"

	"github.com/alfredjeanlab/taskgrid/internal/model"
)

// setConfigRequest is the JSON body for PUT /v1/configs/{key}.
type setConfigRequest struct {
	Value json.RawMessage `json:"value"`
}

// handleSetConfig handles PUT /v1/configs/{key}.
func (s *GridServer) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	var req setConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	config, err := s.setConfig(r.Context(), r.PathValue("key"), req.Value)
	if err != nil {
		s.writeDomainError(w, r, "config not found", err)
		return
	}

	writeJSON(w, http.StatusOK, config)
}

// handleGetConfig handles GET /v1/configs/{key}.
func (s *GridServer) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	config, err := s.getConfig(r.Context(), r.PathValue("key"))
	if err != nil {
		s.writeDomainError(w, r, "config not found", err)
		return
	}

	writeJSON(w, http.StatusOK, config)
}

// handleListConfigs handles GET /v1/configs?namespace=...
func (s *GridServer) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	namespace := r.URL.Query().Get("namespace")
	if namespace == "" {
		writeError(w, http.StatusBadRequest, "namespace query parameter is required")
		return
	}

	configs, err := s.listConfigsWithBuiltins(r.Context(), namespace)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list configs")
		return
	}

	if configs == nil {
		configs = []*model.Config{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"configs": configs})
}

// handleDeleteConfig handles DELETE /v1/configs/{key}.
func (s *GridServer) handleDeleteConfig(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteConfig(r.Context(), r.PathValue("key")); err != nil {
		s.writeDomainError(w, r, "config not found", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
