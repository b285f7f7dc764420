package service

import (
	"sync"
	"time"

	"github.com/yndnr/tablesync-go/internal/core/domain"
)

// HistoryStore extends the planner's read-only History with the write side
// used when snapshots are published.
type HistoryStore interface {
	History
	Record(delta *domain.StateDelta) error
}

// ActionStore extends the recovery ActionLog with the write side used when
// accepted actions are logged.
type ActionStore interface {
	ActionLog
	Append(version uint64, actions ...*domain.Action) error
}

// EngineConfig carries the per-session wiring for an Engine. History and
// Actions are optional; without them syncs always fall back to full
// snapshots and recovery results are flagged log-unavailable.
type EngineConfig struct {
	MaxDeltaSize int
	History      HistoryStore
	Actions      ActionStore
	Resolution   domain.ResolutionStrategy
}

// Engine is the per-session facade over the state machinery. Exactly one
// Engine exists per session; all snapshot publication for that session flows
// through it, which is what makes the single-writer version counter hold.
//
// @req RQ-0101
// @design DS-0201
type Engine struct {
	id        string
	createdAt int64

	builder   *SnapshotBuilder
	deltas    *DeltaEngine
	validator *Validator
	planner   *SyncPlanner
	recovery  *RecoveryCoordinator
	conflicts *ConflictResolver

	history    HistoryStore
	actions    ActionStore
	resolution domain.ResolutionStrategy

	mu        sync.RWMutex
	current   *domain.StateSnapshot
	lastValid *domain.StateSnapshot
}

// NewEngine creates the engine for one session.
func NewEngine(sessionID string, cfg EngineConfig) (*Engine, error) {
	if !domain.IsValidSessionID(sessionID) {
		return nil, domain.ErrInvalidArgument.WithDetails("session ID " + sessionID + " is not valid")
	}
	var history History
	if cfg.History != nil {
		history = cfg.History
	}
	planner, err := NewSyncPlanner(history, nil, cfg.MaxDeltaSize)
	if err != nil {
		return nil, err
	}
	var log ActionLog
	if cfg.Actions != nil {
		log = cfg.Actions
	}
	recovery, err := NewRecoveryCoordinator(planner, log)
	if err != nil {
		return nil, err
	}
	resolution := cfg.Resolution
	if resolution != domain.ResolutionSequential {
		resolution = domain.ResolutionTimestampFirst
	}
	return &Engine{
		id:         sessionID,
		createdAt:  time.Now().UnixMilli(),
		builder:    NewSnapshotBuilder(),
		deltas:     NewDeltaEngine(),
		validator:  NewValidator(),
		planner:    planner,
		recovery:   recovery,
		conflicts:  NewConflictResolver(),
		history:    cfg.History,
		actions:    cfg.Actions,
		resolution: resolution,
	}, nil
}

// ID returns the session identifier this engine serves.
func (e *Engine) ID() string { return e.id }

// CreatedAt returns the engine creation time in Unix milliseconds.
func (e *Engine) CreatedAt() int64 { return e.createdAt }

// Current returns the latest published snapshot, or ErrSnapshotNotFound
// before the first publish.
func (e *Engine) Current() (*domain.StateSnapshot, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.current == nil {
		return nil, domain.ErrSnapshotNotFound.WithDetails("session " + e.id + " has no published state")
	}
	return e.current, nil
}

// Version returns the latest published version, zero before the first
// publish.
func (e *Engine) Version() uint64 {
	return e.builder.CurrentVersion()
}

// Publish captures the given state as the next snapshot. The snapshot is
// validated before it becomes visible; an invalid state is rejected and the
// previous snapshot stays current. On success the delta from the previous
// version is recorded to history and returned (nil for the first publish).
func (e *Engine) Publish(sessionState *domain.Value, participantStates map[string]*domain.Value) (*domain.StateSnapshot, *domain.StateDelta, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	previous := e.current
	snapshot := e.builder.CreateSnapshot(sessionState, participantStates)
	if !e.validator.ValidateState(snapshot) {
		// The version was consumed but never published; the next publish
		// simply takes the following number.
		return nil, nil, domain.ErrMalformedSnapshot.WithDetails(
			"published state for session " + e.id + " failed validation")
	}

	var delta *domain.StateDelta
	if previous != nil {
		generated, err := e.deltas.GenerateDelta(previous, snapshot)
		if err != nil {
			return nil, nil, err
		}
		delta = generated
		if e.history != nil {
			if err := e.history.Record(delta); err != nil {
				return nil, nil, domain.ErrStorageError.WithCause(err)
			}
		}
	}

	e.current = snapshot
	e.lastValid = snapshot
	return snapshot, delta, nil
}

// Restore replaces the current state with an externally supplied snapshot,
// for example one decoded from persisted form. The snapshot must validate;
// otherwise the engine rolls back to the last known valid snapshot and
// reports it alongside the error.
func (e *Engine) Restore(snapshot *domain.StateSnapshot) (*domain.StateSnapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.validator.ValidateState(snapshot) {
		restored := e.validator.Rollback(snapshot, e.lastValid)
		e.current = restored
		return restored, domain.ErrMalformedSnapshot.WithDetails(
			"restored state for session " + e.id + " failed validation")
	}
	e.current = snapshot
	e.lastValid = snapshot
	return snapshot, nil
}

// Sync plans the update bringing a client at clientVersion up to the current
// snapshot.
func (e *Engine) Sync(clientVersion uint64, opts SyncOptions) (*domain.SyncResult, error) {
	current, err := e.Current()
	if err != nil {
		return nil, err
	}
	return e.planner.SyncState(clientVersion, current, opts)
}

// Recover reconciles a reconnecting client's (version, hash) pair against
// the current snapshot.
func (e *Engine) Recover(clientVersion int64, clientHash string) (*domain.RecoveryResult, error) {
	current, err := e.Current()
	if err != nil {
		return nil, err
	}
	return e.recovery.RecoverState(clientVersion, clientHash, current)
}

// SubmitActions runs the batch through conflict detection against the
// current snapshot, resolves it with the configured strategy, and appends
// the surviving actions to the action log. It returns the accepted actions
// and the conflicts that were found.
func (e *Engine) SubmitActions(actions []*domain.Action) ([]*domain.Action, []*domain.Conflict, error) {
	for _, a := range actions {
		if a == nil {
			return nil, nil, domain.ErrMissingArgument.WithDetails("nil action in batch")
		}
		if err := a.Validate(); err != nil {
			return nil, nil, err
		}
	}

	e.mu.RLock()
	current := e.current
	e.mu.RUnlock()

	detected, err := e.conflicts.DetectConflicts(actions, current)
	if err != nil {
		return nil, nil, err
	}

	accepted, err := e.conflicts.ResolveConflicts(actions, e.resolution)
	if err != nil {
		return nil, nil, err
	}

	if e.actions != nil && len(accepted) > 0 {
		if err := e.actions.Append(e.builder.CurrentVersion(), accepted...); err != nil {
			return nil, nil, domain.ErrStorageError.WithCause(err)
		}
	}
	return accepted, detected, nil
}
