package service

import (
	"github.com/yndnr/tablesync-go/internal/core/domain"
)

// DefaultMaxDeltaSize is the size ceiling (estimated serialized bytes) above
// which the planner prefers a full snapshot transfer.
const DefaultMaxDeltaSize = 32 * 1024

// History provides read access to the retained per-session delta history.
// Retention policy is owned by the storage layer, not the engine core.
//
// @design DS-0204
type History interface {
	// DeltaChain returns the contiguous deltas spanning fromVersion up to
	// toVersion, oldest first. It returns ErrHistoryUnavailable when the
	// span can no longer be reconstructed from retained history.
	DeltaChain(fromVersion, toVersion uint64) ([]*domain.StateDelta, error)
}

// SyncOptions tunes one sync decision.
type SyncOptions struct {
	// MaxDeltaSize overrides the planner's configured ceiling for this call.
	// Zero inherits the configured default; a negative value is invalid.
	MaxDeltaSize int
}

// SyncPlanner decides, per client, between a delta transfer and a full
// snapshot transfer. It is pure: the decision depends only on the arguments
// and the retained history.
//
// @req RQ-0104
// @design DS-0204
type SyncPlanner struct {
	history      History
	deltas       *DeltaEngine
	maxDeltaSize int
}

// NewSyncPlanner creates a planner over the given history. maxDeltaSize of
// zero selects DefaultMaxDeltaSize; a negative value is an invalid
// configuration.
func NewSyncPlanner(history History, deltas *DeltaEngine, maxDeltaSize int) (*SyncPlanner, error) {
	if maxDeltaSize < 0 {
		return nil, domain.ErrInvalidConfiguration.WithDetails("max delta size must be positive")
	}
	if maxDeltaSize == 0 {
		maxDeltaSize = DefaultMaxDeltaSize
	}
	if deltas == nil {
		deltas = NewDeltaEngine()
	}
	return &SyncPlanner{
		history:      history,
		deltas:       deltas,
		maxDeltaSize: maxDeltaSize,
	}, nil
}

// SyncState plans the transfer that brings a client at clientVersion up to
// the server snapshot. An up-to-date client receives a valid empty delta,
// not an error. A client ahead of the server, a history gap, and a delta
// exceeding the size ceiling all force a full snapshot.
func (p *SyncPlanner) SyncState(clientVersion uint64, serverSnapshot *domain.StateSnapshot, opts SyncOptions) (*domain.SyncResult, error) {
	if serverSnapshot == nil {
		return nil, domain.ErrMissingArgument.WithDetails("server snapshot is required")
	}
	maxSize := opts.MaxDeltaSize
	if maxSize < 0 {
		return nil, domain.ErrInvalidConfiguration.WithDetails("max delta size must be positive")
	}
	if maxSize == 0 {
		maxSize = p.maxDeltaSize
	}

	if clientVersion == serverSnapshot.Version {
		return domain.NewDeltaResult(domain.NewStateDelta(clientVersion, clientVersion, nil)), nil
	}
	if clientVersion > serverSnapshot.Version {
		// Client claims a future version; only a full resync is safe.
		return domain.NewSnapshotResult(serverSnapshot), nil
	}
	if p.history == nil {
		return domain.NewSnapshotResult(serverSnapshot), nil
	}

	chain, err := p.history.DeltaChain(clientVersion, serverSnapshot.Version)
	if err != nil {
		if domain.IsDomainError(err, "") {
			return domain.NewSnapshotResult(serverSnapshot), nil
		}
		return nil, domain.ErrStorageError.WithCause(err)
	}

	delta, err := p.deltas.CompressDeltas(chain)
	if err != nil {
		// A gap or malformed retained delta means history cannot serve this
		// span; fall back to the full snapshot.
		return domain.NewSnapshotResult(serverSnapshot), nil
	}
	if delta.EstimatedSize() > maxSize {
		return domain.NewSnapshotResult(serverSnapshot), nil
	}
	return domain.NewDeltaResult(delta), nil
}
