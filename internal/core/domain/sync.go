// Package domain defines the core domain models for TableSync.
package domain

// ConflictType classifies a detected conflict among submitted actions.
//
// @design DS-0206
type ConflictType string

const (
	// ConflictDuplicateAction groups two or more actions from the same
	// participant sharing an identical timestamp.
	ConflictDuplicateAction ConflictType = "duplicate_action"

	// ConflictOutOfTurn marks an action submitted by a participant other
	// than the reference snapshot's active participant.
	ConflictOutOfTurn ConflictType = "out_of_turn"
)

// Conflict is a detected inconsistency among a batch of submitted actions.
// A duplicate conflict carries all colliding actions (at least two); an
// out-of-turn conflict carries exactly the one offending action.
type Conflict struct {
	Type    ConflictType `json:"type"`
	Actions []*Action    `json:"actions"`
}

// ResolutionStrategy selects how conflicting actions are resolved.
// Represented as an enumerated tag dispatching to one resolver each,
// not as dynamic dispatch.
//
// @design DS-0206
type ResolutionStrategy uint8

const (
	// ResolutionTimestampFirst keeps, per participant, only the action with
	// the earliest timestamp (first submission wins ties).
	ResolutionTimestampFirst ResolutionStrategy = iota

	// ResolutionSequential preserves every action in input order; used when
	// legitimately repeated actions from one participant must all apply.
	ResolutionSequential
)

// String returns the strategy name.
func (s ResolutionStrategy) String() string {
	switch s {
	case ResolutionTimestampFirst:
		return "timestamp_first"
	case ResolutionSequential:
		return "sequential"
	default:
		return "unknown"
	}
}

// ParseResolutionStrategy parses a strategy name.
func ParseResolutionStrategy(name string) (ResolutionStrategy, error) {
	switch name {
	case "timestamp_first", "":
		return ResolutionTimestampFirst, nil
	case "sequential":
		return ResolutionSequential, nil
	default:
		return 0, ErrInvalidArgument.WithDetails("unknown resolution strategy " + name)
	}
}

// SyncType tags a SyncResult as a delta or a full snapshot transfer.
type SyncType string

const (
	// SyncDelta carries only the changes since the client's version.
	SyncDelta SyncType = "delta"

	// SyncSnapshot carries the full authoritative snapshot.
	SyncSnapshot SyncType = "snapshot"
)

// SyncResult is the planner's decision for bringing one client up to date:
// either a delta spanning clientVersion -> serverVersion, or the full
// snapshot when the delta cannot be reconstructed or would be too large.
//
// @req RQ-0104
// @design DS-0204
type SyncResult struct {
	Type     SyncType       `json:"type"`
	Delta    *StateDelta    `json:"delta,omitempty"`
	Snapshot *StateSnapshot `json:"snapshot,omitempty"`
}

// NewDeltaResult wraps a delta as a sync result.
func NewDeltaResult(delta *StateDelta) *SyncResult {
	return &SyncResult{Type: SyncDelta, Delta: delta}
}

// NewSnapshotResult wraps a full snapshot as a sync result.
func NewSnapshotResult(snapshot *StateSnapshot) *SyncResult {
	return &SyncResult{Type: SyncSnapshot, Snapshot: snapshot}
}

// RecoveryResult reconciles a reconnecting client against the authoritative
// snapshot. A stale-but-recoverable client always succeeds; only malformed
// input produces a hard failure at the call site.
//
// @req RQ-0105
// @design DS-0205
type RecoveryResult struct {
	Success bool `json:"success"`

	// Updates brings the client's state current.
	Updates *SyncResult `json:"updates"`

	// MissedActions lists, in order, the actions the client missed between
	// its version and the authoritative one. Never fabricated: empty with
	// LogUnavailable set when no action log is reachable.
	MissedActions []*Action `json:"missed_actions"`

	// LogUnavailable flags that the action log could not be consulted.
	LogUnavailable bool `json:"log_unavailable,omitempty"`
}
