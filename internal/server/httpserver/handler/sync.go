// Package handler provides HTTP request handlers for TableSync.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/yndnr/tablesync-go/internal/core/domain"
	"github.com/yndnr/tablesync-go/internal/core/service"
)

// handleSync handles POST /sessions/{id}/sync.
//
// @design DS-0401
func (h *Handler) handleSync(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.sessionEngine(w, r)
	if !ok {
		return
	}

	var req SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "TS-SYS-4000", "invalid request body", nil)
		return
	}

	result, err := engine.Sync(req.ClientVersion, service.SyncOptions{
		MaxDeltaSize: req.MaxDeltaSize,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.metrics.SyncResults.WithLabelValues(string(result.Type)).Inc()
	if result.Type == domain.SyncDelta && result.Delta != nil {
		h.metrics.DeltaBytes.Observe(float64(result.Delta.EstimatedSize()))
	}

	h.writeJSON(w, r, http.StatusOK, syncToResponse(result))
}

// handleRecover handles POST /sessions/{id}/recover.
//
// @design DS-0401
func (h *Handler) handleRecover(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.sessionEngine(w, r)
	if !ok {
		return
	}

	var req RecoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "TS-SYS-4000", "invalid request body", nil)
		return
	}

	result, err := engine.Recover(req.ClientVersion, req.ClientHash)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.metrics.RecoveryRequests.Inc()
	if result.LogUnavailable {
		h.metrics.RecoveryLogMisses.Inc()
	}

	resp := RecoverResponse{
		Success:        result.Success,
		MissedActions:  result.MissedActions,
		LogUnavailable: result.LogUnavailable,
	}
	if result.Updates != nil {
		updates := syncToResponse(result.Updates)
		resp.Updates = &updates
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}

func syncToResponse(result *domain.SyncResult) SyncResponse {
	return SyncResponse{
		Type:     result.Type,
		Delta:    result.Delta,
		Snapshot: result.Snapshot,
	}
}
