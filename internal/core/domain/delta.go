// Package domain defines the core domain models for TableSync.
package domain

import (
	"fmt"
	"time"
)

// Change records one field-level difference between two snapshots.
// Both value sides must be present; the absent-sentinel (not a nil pointer)
// encodes a side where the field does not exist.
//
// @design DS-0203
type Change struct {
	// Path is the dotted leaf address, e.g. "sessionState.pot" or
	// "participantStates.<id>.chips".
	Path string `json:"path"`

	// OldValue is the value in the from-snapshot (absent-sentinel if the
	// field did not exist there).
	OldValue *Value `json:"old_value"`

	// NewValue is the value in the to-snapshot (absent-sentinel if the
	// field no longer exists).
	NewValue *Value `json:"new_value"`
}

// Validate checks the change is well-formed.
func (c *Change) Validate() error {
	if c.Path == "" {
		return ErrMalformedDelta.WithDetails("change missing path")
	}
	if c.OldValue == nil {
		return ErrMalformedDelta.WithDetails(fmt.Sprintf("change at %q missing old value", c.Path))
	}
	if c.NewValue == nil {
		return ErrMalformedDelta.WithDetails(fmt.Sprintf("change at %q missing new value", c.Path))
	}
	return nil
}

// StateDelta is the minimal set of changes transforming one snapshot's
// content into another's. Deltas are transient values: produced per call and
// never mutated after construction.
//
// @req RQ-0102
// @design DS-0203
type StateDelta struct {
	FromVersion uint64 `json:"from_version"`

	ToVersion uint64 `json:"to_version"`

	// Changes carries one entry per divergent leaf; order is not
	// semantically significant.
	Changes []Change `json:"changes"`

	// Timestamp is the delta production instant (Unix milliseconds).
	Timestamp int64 `json:"timestamp"`
}

// NewStateDelta builds a delta spanning the given versions.
func NewStateDelta(fromVersion, toVersion uint64, changes []Change) *StateDelta {
	return &StateDelta{
		FromVersion: fromVersion,
		ToVersion:   toVersion,
		Changes:     changes,
		Timestamp:   time.Now().UnixMilli(),
	}
}

// Empty reports whether the delta carries no changes.
func (d *StateDelta) Empty() bool { return len(d.Changes) == 0 }

// Validate checks version ordering and that every change carries both values.
// An empty delta with FromVersion == ToVersion is valid: it is the sync
// answer for an already up-to-date client.
func (d *StateDelta) Validate() error {
	if d.FromVersion == d.ToVersion && len(d.Changes) == 0 {
		return nil
	}
	if d.FromVersion >= d.ToVersion {
		return ErrMalformedDelta.WithDetails(
			fmt.Sprintf("from version %d must precede to version %d", d.FromVersion, d.ToVersion))
	}
	for i := range d.Changes {
		if err := d.Changes[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// EstimatedSize returns the approximate serialized size of the delta in
// bytes, computed from canonical value encodings without marshaling.
func (d *StateDelta) EstimatedSize() int {
	// Fixed framing plus per-change path and value payloads.
	size := 64
	for i := range d.Changes {
		c := &d.Changes[i]
		size += len(c.Path) + 32
		if c.OldValue != nil {
			size += len(c.OldValue.Canonical())
		}
		if c.NewValue != nil {
			size += len(c.NewValue.Canonical())
		}
	}
	return size
}
