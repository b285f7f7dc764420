// Package handler provides HTTP request handlers for TableSync.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/yndnr/tablesync-go/internal/core/domain"
	"github.com/yndnr/tablesync-go/internal/wire"
)

// handlePublishSnapshot handles POST /sessions/{id}/snapshot.
//
// @design DS-0401
func (h *Handler) handlePublishSnapshot(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.sessionEngine(w, r)
	if !ok {
		return
	}

	var req PublishSnapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "TS-SYS-4000", "invalid request body", nil)
		return
	}

	sessionState, err := domain.FromAny(req.SessionState)
	if err != nil {
		h.handleServiceError(w, r, domain.ErrMalformedSnapshot.WithCause(err))
		return
	}
	participantStates := make(map[string]*domain.Value, len(req.ParticipantStates))
	for id, state := range req.ParticipantStates {
		v, err := domain.FromAny(state)
		if err != nil {
			h.handleServiceError(w, r, domain.ErrMalformedSnapshot.WithCause(err))
			return
		}
		participantStates[id] = v
	}

	snapshot, delta, err := engine.Publish(sessionState, participantStates)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.metrics.SnapshotsCreated.Inc()
	if delta != nil {
		h.metrics.DeltasGenerated.Inc()
	}

	h.writeJSON(w, r, http.StatusCreated, PublishSnapshotResponse{
		Version:   snapshot.Version,
		Hash:      snapshot.Hash,
		Timestamp: snapshot.Timestamp,
		Delta:     delta,
	})
}

// handleGetSnapshot handles GET /sessions/{id}/snapshot. With ?format=wire
// the snapshot is returned in the compact binary encoding instead of JSON.
//
// @design DS-0401
func (h *Handler) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.sessionEngine(w, r)
	if !ok {
		return
	}

	snapshot, err := engine.Current()
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	if r.URL.Query().Get("format") == "wire" {
		encoded, err := wire.EncodeSnapshot(snapshot)
		if err != nil {
			h.handleServiceError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.WriteHeader(http.StatusOK)
		w.Write(encoded)
		return
	}

	h.writeJSON(w, r, http.StatusOK, snapshot)
}
