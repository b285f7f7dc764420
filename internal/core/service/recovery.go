package service

import (
	"fmt"

	"github.com/yndnr/tablesync-go/internal/core/domain"
)

// ActionLog provides the externally-owned action history consulted during
// recovery. Implementations live in the storage layer.
//
// @design DS-0205
type ActionLog interface {
	// Since returns, in order, the actions recorded after the given snapshot
	// version. It returns ErrLogUnavailable when the log cannot be read.
	Since(afterVersion uint64) ([]*domain.Action, error)
}

// RecoveryCoordinator reconciles a reconnecting client's stale
// (version, hash) pair against the authoritative snapshot.
//
// @req RQ-0105
// @design DS-0205
type RecoveryCoordinator struct {
	planner *SyncPlanner
	log     ActionLog
}

// NewRecoveryCoordinator creates a coordinator. The action log is optional;
// without one, recovery results are flagged log-unavailable.
func NewRecoveryCoordinator(planner *SyncPlanner, log ActionLog) (*RecoveryCoordinator, error) {
	if planner == nil {
		return nil, domain.ErrMissingArgument.WithDetails("sync planner is required")
	}
	return &RecoveryCoordinator{planner: planner, log: log}, nil
}

// RecoverState produces the update plan and missed-action summary for a
// reconnecting client. A stale-but-recoverable client always succeeds; only
// malformed input (a negative version) is a hard failure. Missed actions are
// never fabricated: when the log is unreachable the result carries an empty
// list explicitly flagged unavailable.
func (r *RecoveryCoordinator) RecoverState(clientVersion int64, clientHash string, serverSnapshot *domain.StateSnapshot) (*domain.RecoveryResult, error) {
	if serverSnapshot == nil {
		return nil, domain.ErrMissingArgument.WithDetails("server snapshot is required")
	}
	if clientVersion < 0 {
		return nil, domain.ErrInvalidArgument.WithDetails(
			fmt.Sprintf("client version %d must not be negative", clientVersion))
	}
	version := uint64(clientVersion)

	// Fully current client: nothing to transfer, nothing missed.
	if version == serverSnapshot.Version && clientHash == serverSnapshot.Hash {
		return &domain.RecoveryResult{
			Success: true,
			Updates: domain.NewDeltaResult(domain.NewStateDelta(version, version, nil)),
		}, nil
	}

	var updates *domain.SyncResult
	if version == serverSnapshot.Version {
		// Same version but divergent content: the client's state cannot be
		// trusted, force a full snapshot.
		updates = domain.NewSnapshotResult(serverSnapshot)
	} else {
		planned, err := r.planner.SyncState(version, serverSnapshot, SyncOptions{})
		if err != nil {
			return nil, err
		}
		updates = planned
	}

	result := &domain.RecoveryResult{
		Success: true,
		Updates: updates,
	}

	if r.log == nil {
		result.LogUnavailable = true
		return result, nil
	}
	missed, err := r.log.Since(version)
	if err != nil {
		if domain.IsDomainError(err, "") {
			result.LogUnavailable = true
			return result, nil
		}
		return nil, domain.ErrStorageError.WithCause(err)
	}
	result.MissedActions = missed
	return result, nil
}
