// Package service implements the TableSync state-synchronization engine.
//
// One Engine instance is owned per session. The SnapshotBuilder is the only
// component that mutates shared state (the version counter); the delta,
// validation, planning, recovery and conflict components are pure functions
// over already-published, immutable snapshots and may run concurrently.
//
// @req RQ-0100
// @design DS-0200
package service
