package service

import (
	"sync"

	"github.com/yndnr/tablesync-go/internal/core/domain"
)

// SnapshotBuilder builds immutable, versioned, content-hashed snapshots from
// the session records handed in by the game layer. It owns the per-session
// monotonic version counter; version allocation is the only mutation in the
// engine and is serialized through the builder's mutex, so N concurrent
// CreateSnapshot calls yield exactly the versions {1..N}.
//
// @req RQ-0101
// @design DS-0202
type SnapshotBuilder struct {
	mu      sync.Mutex
	version uint64
}

// NewSnapshotBuilder creates a builder with its counter at zero; the first
// snapshot gets version 1.
func NewSnapshotBuilder() *SnapshotBuilder {
	return &SnapshotBuilder{}
}

// CreateSnapshot allocates the next version and captures the given state
// trees into a new snapshot. The trees are captured by reference, not cloned,
// so subtrees shared with a previous snapshot keep their identity for the
// delta engine's pointer shortcut.
func (b *SnapshotBuilder) CreateSnapshot(sessionState *domain.Value, participantStates map[string]*domain.Value) *domain.StateSnapshot {
	b.mu.Lock()
	b.version++
	version := b.version
	b.mu.Unlock()

	// Hashing and capture run outside the lock; only the counter serializes.
	return domain.NewStateSnapshot(version, sessionState, participantStates)
}

// CurrentVersion returns the last allocated version (0 before any snapshot).
func (b *SnapshotBuilder) CurrentVersion() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.version
}
