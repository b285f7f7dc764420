// Package handler provides HTTP request handlers for TableSync.
package handler

import (
	"time"

	"github.com/yndnr/tablesync-go/internal/core/domain"
)

// Response is the standard API response envelope. All JSON responses use
// this format (except /metrics which uses Prometheus format).
//
// @design DS-0401
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// CreateSessionRequest is the request body for POST /sessions.
type CreateSessionRequest struct {
	// SessionID lets the caller pick the session identifier. Empty means a
	// fresh one is generated.
	SessionID string `json:"session_id,omitempty"`
}

// SessionResponse describes a registered session.
type SessionResponse struct {
	SessionID string `json:"session_id"`
	Version   uint64 `json:"version"`
	CreatedAt int64  `json:"created_at"`
}

// ListSessionsResponse is the response body for GET /sessions.
type ListSessionsResponse struct {
	Sessions []SessionResponse `json:"sessions"`
	Count    int               `json:"count"`
}

// PublishSnapshotRequest is the request body for POST /sessions/{id}/snapshot.
type PublishSnapshotRequest struct {
	SessionState      any            `json:"session_state"`
	ParticipantStates map[string]any `json:"participant_states,omitempty"`
}

// PublishSnapshotResponse is the response body for snapshot publication.
type PublishSnapshotResponse struct {
	Version   uint64             `json:"version"`
	Hash      string             `json:"hash"`
	Timestamp int64              `json:"timestamp"`
	Delta     *domain.StateDelta `json:"delta,omitempty"`
}

// SyncRequest is the request body for POST /sessions/{id}/sync.
type SyncRequest struct {
	ClientVersion uint64 `json:"client_version"`
	MaxDeltaSize  int    `json:"max_delta_size,omitempty"`
}

// SyncResponse is the response body for a sync plan.
type SyncResponse struct {
	Type     domain.SyncType       `json:"type"`
	Delta    *domain.StateDelta    `json:"delta,omitempty"`
	Snapshot *domain.StateSnapshot `json:"snapshot,omitempty"`
}

// RecoverRequest is the request body for POST /sessions/{id}/recover.
type RecoverRequest struct {
	ClientVersion int64  `json:"client_version"`
	ClientHash    string `json:"client_hash"`
}

// RecoverResponse is the response body for a recovery plan.
type RecoverResponse struct {
	Success        bool             `json:"success"`
	Updates        *SyncResponse    `json:"updates,omitempty"`
	MissedActions  []*domain.Action `json:"missed_actions,omitempty"`
	LogUnavailable bool             `json:"log_unavailable"`
}

// SubmitActionRequest is one action in a POST /sessions/{id}/actions batch.
type SubmitActionRequest struct {
	ID            string `json:"id,omitempty"`
	ParticipantID string `json:"participant_id"`
	Type          string `json:"type"`
	Payload       any    `json:"payload,omitempty"`
	Timestamp     int64  `json:"timestamp"`
}

// SubmitActionsRequest is the request body for POST /sessions/{id}/actions.
type SubmitActionsRequest struct {
	Actions []SubmitActionRequest `json:"actions"`
}

// ConflictResponse describes one detected conflict.
type ConflictResponse struct {
	Type    domain.ConflictType `json:"type"`
	Actions []*domain.Action    `json:"actions"`
}

// SubmitActionsResponse is the response body for action submission.
type SubmitActionsResponse struct {
	Accepted  []*domain.Action   `json:"accepted"`
	Conflicts []ConflictResponse `json:"conflicts"`
}
