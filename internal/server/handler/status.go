package handler

import (
	"net/http"
)

// StatusHandler reports which backends this instance runs on.
type StatusHandler struct {
	Version string
	Storage string
	Cache   string
	Archive bool
}

// GetStatus responds with the build version and backend selection.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"version": h.Version,
		"storage": h.Storage,
		"cache":   h.Cache,
		"archive": h.Archive,
	})
}
