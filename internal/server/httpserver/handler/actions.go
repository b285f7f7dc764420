// Package handler provides HTTP request handlers for TableSync.
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/yndnr/tablesync-go/internal/core/domain"
)

// handleSubmitActions handles POST /sessions/{id}/actions.
//
// @design DS-0401
func (h *Handler) handleSubmitActions(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.sessionEngine(w, r)
	if !ok {
		return
	}

	var req SubmitActionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "TS-SYS-4000", "invalid request body", nil)
		return
	}
	if len(req.Actions) == 0 {
		h.writeError(w, r, http.StatusBadRequest, "TS-ARG-1002", "actions are required", nil)
		return
	}

	actions := make([]*domain.Action, 0, len(req.Actions))
	for _, ar := range req.Actions {
		payload, err := domain.FromAny(ar.Payload)
		if err != nil {
			h.handleServiceError(w, r, domain.ErrInvalidArgument.WithCause(err))
			return
		}
		id := ar.ID
		if id == "" {
			id, err = domain.GenerateActionID()
			if err != nil {
				h.handleServiceError(w, r, domain.ErrInternalServer.WithCause(err))
				return
			}
		}
		timestamp := ar.Timestamp
		if timestamp == 0 {
			timestamp = time.Now().UnixMilli()
		}
		actions = append(actions, &domain.Action{
			ID:            id,
			ParticipantID: ar.ParticipantID,
			Type:          ar.Type,
			Payload:       payload,
			Timestamp:     timestamp,
		})
	}

	accepted, conflicts, err := engine.SubmitActions(actions)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.metrics.ActionsAccepted.Add(float64(len(accepted)))
	conflictResponses := make([]ConflictResponse, 0, len(conflicts))
	for _, c := range conflicts {
		h.metrics.ConflictsDetected.WithLabelValues(string(c.Type)).Inc()
		conflictResponses = append(conflictResponses, ConflictResponse{
			Type:    c.Type,
			Actions: c.Actions,
		})
	}

	h.writeJSON(w, r, http.StatusOK, SubmitActionsResponse{
		Accepted:  accepted,
		Conflicts: conflictResponses,
	})
}
