// Package domain defines the core domain models for TableSync.
package domain

import (
	"encoding/hex"
	"sort"
	"time"

	"github.com/spaolacci/murmur3"
)

// StateSnapshot is an immutable, versioned, content-hashed capture of one
// session's shared state at an instant. Snapshots are created by the
// SnapshotBuilder (or by applying a delta to an existing snapshot) and are
// never mutated afterwards.
//
// @req RQ-0101
// @design DS-0202
type StateSnapshot struct {
	// Version is the per-session snapshot version, strictly increasing,
	// starting at 1.
	Version uint64 `json:"version"`

	// Hash is the murmur3-128 digest (hex) of the canonical content only.
	// Version and Timestamp are excluded, so identical content hashes
	// identically across independent engine instances.
	Hash string `json:"hash"`

	// SessionState is the shared table state, opaque to the engine.
	SessionState *Value `json:"session_state"`

	// ParticipantStates maps participant ID to that participant's state.
	ParticipantStates map[string]*Value `json:"participant_states"`

	// Timestamp is the capture instant (Unix milliseconds).
	Timestamp int64 `json:"timestamp"`
}

// NewStateSnapshot builds a snapshot at the given version, computing the
// content hash and stamping the capture time. The state trees are captured by
// reference: callers hand over ownership, which preserves subtree identity
// between consecutive snapshots for the delta engine's pointer shortcut.
func NewStateSnapshot(version uint64, sessionState *Value, participantStates map[string]*Value) *StateSnapshot {
	if sessionState == nil {
		sessionState = Object(nil)
	}
	if participantStates == nil {
		participantStates = map[string]*Value{}
	}
	return &StateSnapshot{
		Version:           version,
		Hash:              ContentHash(sessionState, participantStates),
		SessionState:      sessionState,
		ParticipantStates: participantStates,
		Timestamp:         time.Now().UnixMilli(),
	}
}

// ContentHash computes the deterministic content digest of a session state
// and participant set: canonical encoding (sorted keys, sorted participant
// IDs), hashed with murmur3-128, hex encoded.
//
// @req RQ-0202
func ContentHash(sessionState *Value, participantStates map[string]*Value) string {
	buf := make([]byte, 0, 256)
	buf = append(buf, "s:"...)
	buf = sessionState.appendCanonical(buf, make(map[*Value]bool))

	ids := make([]string, 0, len(participantStates))
	for id := range participantStates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		buf = append(buf, "\np:"...)
		buf = append(buf, id...)
		buf = append(buf, ':')
		buf = participantStates[id].appendCanonical(buf, make(map[*Value]bool))
	}

	h1, h2 := murmur3.Sum128(buf)
	var sum [16]byte
	for i := 0; i < 8; i++ {
		sum[i] = byte(h1 >> (56 - 8*i))
		sum[8+i] = byte(h2 >> (56 - 8*i))
	}
	return hex.EncodeToString(sum[:])
}

// Participant returns the state for a participant ID.
func (s *StateSnapshot) Participant(id string) (*Value, bool) {
	v, ok := s.ParticipantStates[id]
	return v, ok
}

// ParticipantIDs returns the participant IDs in sorted order.
func (s *StateSnapshot) ParticipantIDs() []string {
	ids := make([]string, 0, len(s.ParticipantStates))
	for id := range s.ParticipantStates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// At resolves a dotted change path ("sessionState.pot",
// "participantStates.<id>.chips") against the snapshot content.
func (s *StateSnapshot) At(path string) (*Value, bool) {
	segments, err := SplitPath(path)
	if err != nil {
		return nil, false
	}
	switch segments[0] {
	case PathSessionState:
		return s.SessionState.At(segments[1:])
	case PathParticipantStates:
		if len(segments) < 2 {
			return nil, false
		}
		p, ok := s.ParticipantStates[segments[1]]
		if !ok {
			return nil, false
		}
		return p.At(segments[2:])
	default:
		return nil, false
	}
}

// TimestampTime returns Timestamp as time.Time.
func (s *StateSnapshot) TimestampTime() time.Time {
	return time.UnixMilli(s.Timestamp)
}
