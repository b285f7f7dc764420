// Package domain defines the core domain models for TableSync.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// Action constraints.
const (
	MaxParticipantIDLength = 128
	MaxActionTypeLength    = 64
)

// Action is one participant-submitted action awaiting conflict resolution
// before being folded into the next session state. The engine treats actions
// as opaque beyond the fields needed for conflict detection; the game rule
// engine owns their meaning.
//
// @req RQ-0106
// @design DS-0206
type Action struct {
	// ID is the unique action identifier.
	// Format: tbac-{ulid_lowercase}, 31 characters total.
	ID string `json:"id"`

	// ParticipantID identifies the submitting participant.
	ParticipantID string `json:"participant_id"`

	// Type is the game-level action name (e.g. "bet", "fold"), opaque here.
	Type string `json:"type"`

	// Payload carries game-specific action data, opaque to the engine.
	Payload *Value `json:"payload,omitempty"`

	// Timestamp is the client submission instant (Unix milliseconds).
	Timestamp int64 `json:"timestamp"`
}

// NewAction creates an action with a generated ID, stamped now.
func NewAction(participantID, actionType string, payload *Value) (*Action, error) {
	id, err := GenerateActionID()
	if err != nil {
		return nil, err
	}
	a := &Action{
		ID:            id,
		ParticipantID: participantID,
		Type:          actionType,
		Payload:       payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// Validate validates the action fields against constraints.
func (a *Action) Validate() error {
	var violations []string

	if a.ParticipantID == "" {
		violations = append(violations, "participant_id is required")
	}
	if len(a.ParticipantID) > MaxParticipantIDLength {
		violations = append(violations, fmt.Sprintf("participant_id exceeds %d characters", MaxParticipantIDLength))
	}
	// Participant IDs appear as dotted-path segments, so dots are not allowed.
	if strings.Contains(a.ParticipantID, ".") {
		violations = append(violations, "participant_id must not contain dots")
	}
	if len(a.Type) > MaxActionTypeLength {
		violations = append(violations, fmt.Sprintf("type exceeds %d characters", MaxActionTypeLength))
	}
	if a.Timestamp < 0 {
		violations = append(violations, "timestamp must not be negative")
	}

	if len(violations) > 0 {
		return ErrInvalidArgument.WithDetails(strings.Join(violations, "; "))
	}
	return nil
}

// TimestampTime returns Timestamp as time.Time.
func (a *Action) TimestampTime() time.Time {
	return time.UnixMilli(a.Timestamp)
}
