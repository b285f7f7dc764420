// Package handler provides HTTP request handlers for TableSync.
package handler

import (
	"net/http"
	"time"

	"github.com/yndnr/tablesync-go/internal/infra/buildinfo"
)

// handleHealth handles GET /health.
//
// @design DS-0401
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": buildinfo.Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady handles GET /ready.
//
// @design DS-0401
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]any{
		"status":   "ready",
		"sessions": h.registry.Count(),
		"time":     time.Now().UTC().Format(time.RFC3339),
	})
}
