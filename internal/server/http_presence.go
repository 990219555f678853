package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/alfredjeanlab/taskgrid/internal/presence"
)

// defaultStaleThreshold hides editors idle for longer than this from GET /v1/presence.
const defaultStaleThreshold = 30 * time.Minute

// handleGetPresence handles GET /v1/presence.
// Returns recent editors, optionally limited to one project.
func (s *GridServer) handleGetPresence(w http.ResponseWriter, r *http.Request) {
	staleThreshold := defaultStaleThreshold
	if v := r.URL.Query().Get("stale_threshold_secs"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs < 0 {
			writeError(w, http.StatusBadRequest, "invalid stale_threshold_secs")
			return
		}
		staleThreshold = time.Duration(secs) * time.Second
	}

	editors := s.presence.Editors(r.URL.Query().Get("project"), staleThreshold)
	if editors == nil {
		editors = []presence.Editor{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"editors": editors})
}
