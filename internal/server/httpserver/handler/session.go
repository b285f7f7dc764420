// Package handler provides HTTP request handlers for TableSync.
package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/yndnr/tablesync-go/internal/core/service"
)

// handleCreateSession handles POST /sessions.
//
// @design DS-0401
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		h.writeError(w, r, http.StatusBadRequest, "TS-SYS-4000", "invalid request body", nil)
		return
	}

	var engine *service.Engine
	var err error
	if req.SessionID != "" {
		engine, err = h.registry.CreateSessionWithID(req.SessionID)
	} else {
		engine, err = h.registry.CreateSession()
	}
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.metrics.SessionsCreated.Inc()
	h.metrics.SessionsActive.Set(float64(h.registry.Count()))

	h.writeJSON(w, r, http.StatusCreated, sessionToResponse(engine))
}

// handleListSessions handles GET /sessions.
//
// @design DS-0401
func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	engines := h.registry.List()
	sessions := make([]SessionResponse, 0, len(engines))
	for _, engine := range engines {
		sessions = append(sessions, sessionToResponse(engine))
	}

	h.writeJSON(w, r, http.StatusOK, ListSessionsResponse{
		Sessions: sessions,
		Count:    len(sessions),
	})
}

// handleGetSession handles GET /sessions/{id}.
//
// @design DS-0401
func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.sessionEngine(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, r, http.StatusOK, sessionToResponse(engine))
}

// handleRemoveSession handles DELETE /sessions/{id}.
//
// @design DS-0401
func (h *Handler) handleRemoveSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		h.writeError(w, r, http.StatusBadRequest, "TS-ARG-1002", "session_id is required", nil)
		return
	}

	engine, err := h.registry.Remove(sessionID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if h.store != nil {
		if err := h.store.Release(engine.ID()); err != nil {
			h.logger.Warn("failed to release session storage",
				"session_id", engine.ID(), "error", err)
		}
	}

	h.metrics.SessionsRemoved.Inc()
	h.metrics.SessionsActive.Set(float64(h.registry.Count()))

	h.writeJSON(w, r, http.StatusOK, sessionToResponse(engine))
}

// sessionEngine resolves the {id} path value into an engine, writing the
// error response itself when resolution fails.
func (h *Handler) sessionEngine(w http.ResponseWriter, r *http.Request) (*service.Engine, bool) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		h.writeError(w, r, http.StatusBadRequest, "TS-ARG-1002", "session_id is required", nil)
		return nil, false
	}

	engine, err := h.registry.Get(sessionID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return nil, false
	}
	return engine, true
}

func sessionToResponse(engine *service.Engine) SessionResponse {
	return SessionResponse{
		SessionID: engine.ID(),
		Version:   engine.Version(),
		CreatedAt: engine.CreatedAt(),
	}
}
