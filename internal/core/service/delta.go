package service

import (
	"fmt"
	"sort"

	"github.com/yndnr/tablesync-go/internal/core/domain"
)

// DeltaEngine diffs, composes and applies state deltas. All operations are
// pure: they take published immutable snapshots/deltas and never mutate
// their inputs, so they are safe to call concurrently.
//
// @req RQ-0102
// @design DS-0203
type DeltaEngine struct{}

// NewDeltaEngine creates a delta engine.
func NewDeltaEngine() *DeltaEngine {
	return &DeltaEngine{}
}

// visitPair keys the visited set during diffing so that shared or
// self-referential subtrees are descended into at most once.
type visitPair struct{ a, b *domain.Value }

// GenerateDelta walks both snapshots path-by-path and returns one change per
// divergent leaf. Pointer-identical subtrees short-circuit to "no change",
// which never alters the outcome versus a full structural comparison (a
// subtree identical to itself is structurally equal). Cost scales with the
// number of touched paths.
func (e *DeltaEngine) GenerateDelta(from, to *domain.StateSnapshot) (*domain.StateDelta, error) {
	if from == nil || to == nil {
		return nil, domain.ErrMissingArgument.WithDetails("both snapshots are required")
	}
	if from.Version >= to.Version {
		return nil, domain.ErrVersionMismatch.WithDetails(
			fmt.Sprintf("from version %d must precede to version %d", from.Version, to.Version))
	}

	var changes []domain.Change
	seen := make(map[visitPair]bool)

	diffValue(domain.PathSessionState, from.SessionState, to.SessionState, seen, &changes)

	for _, id := range unionParticipantIDs(from, to) {
		path := domain.JoinPath(domain.PathParticipantStates, id)
		oldState, inFrom := from.ParticipantStates[id]
		newState, inTo := to.ParticipantStates[id]
		switch {
		case inFrom && inTo:
			diffValue(path, oldState, newState, seen, &changes)
		case inFrom:
			changes = append(changes, domain.Change{Path: path, OldValue: oldState, NewValue: domain.Absent()})
		default:
			changes = append(changes, domain.Change{Path: path, OldValue: domain.Absent(), NewValue: newState})
		}
	}

	return domain.NewStateDelta(from.Version, to.Version, changes), nil
}

func unionParticipantIDs(from, to *domain.StateSnapshot) []string {
	set := make(map[string]struct{}, len(from.ParticipantStates)+len(to.ParticipantStates))
	for id := range from.ParticipantStates {
		set[id] = struct{}{}
	}
	for id := range to.ParticipantStates {
		set[id] = struct{}{}
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// diffValue appends one change per divergent leaf under path.
func diffValue(path string, oldVal, newVal *domain.Value, seen map[visitPair]bool, out *[]domain.Change) {
	// Identity shortcut: the same node can only be structurally equal to itself.
	if oldVal == newVal {
		return
	}
	if oldVal == nil {
		oldVal = domain.Null()
	}
	if newVal == nil {
		newVal = domain.Null()
	}
	if oldVal.Kind() != newVal.Kind() {
		*out = append(*out, domain.Change{Path: path, OldValue: oldVal, NewValue: newVal})
		return
	}

	switch oldVal.Kind() {
	case domain.KindObject:
		pair := visitPair{oldVal, newVal}
		if seen[pair] {
			return
		}
		seen[pair] = true
		for _, key := range unionKeys(oldVal, newVal) {
			childPath := domain.JoinPath(path, key)
			oldChild, inOld := oldVal.Field(key)
			newChild, inNew := newVal.Field(key)
			switch {
			case inOld && inNew:
				diffValue(childPath, oldChild, newChild, seen, out)
			case inOld:
				*out = append(*out, domain.Change{Path: childPath, OldValue: oldChild, NewValue: domain.Absent()})
			default:
				*out = append(*out, domain.Change{Path: childPath, OldValue: domain.Absent(), NewValue: newChild})
			}
		}

	case domain.KindArray:
		pair := visitPair{oldVal, newVal}
		if seen[pair] {
			return
		}
		seen[pair] = true
		shared := oldVal.Len()
		if newVal.Len() < shared {
			shared = newVal.Len()
		}
		for i := 0; i < shared; i++ {
			diffValue(fmt.Sprintf("%s.%d", path, i), oldVal.Index(i), newVal.Index(i), seen, out)
		}
		for i := shared; i < oldVal.Len(); i++ {
			*out = append(*out, domain.Change{
				Path:     fmt.Sprintf("%s.%d", path, i),
				OldValue: oldVal.Index(i),
				NewValue: domain.Absent(),
			})
		}
		for i := shared; i < newVal.Len(); i++ {
			*out = append(*out, domain.Change{
				Path:     fmt.Sprintf("%s.%d", path, i),
				OldValue: domain.Absent(),
				NewValue: newVal.Index(i),
			})
		}

	default:
		if !oldVal.Equal(newVal) {
			*out = append(*out, domain.Change{Path: path, OldValue: oldVal, NewValue: newVal})
		}
	}
}

func unionKeys(a, b *domain.Value) []string {
	set := make(map[string]struct{}, a.Len()+b.Len())
	for _, k := range a.Keys() {
		set[k] = struct{}{}
	}
	for _, k := range b.Keys() {
		set[k] = struct{}{}
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CompressDeltas composes a contiguous delta chain into one equivalent delta.
// The chain must satisfy chain[i].ToVersion == chain[i+1].FromVersion; a gap
// is an error, never a best-effort merge. Per touched path the earliest old
// value and latest new value survive; paths whose collapsed old and new
// values are equal (a no-op across the whole chain) are dropped.
func (e *DeltaEngine) CompressDeltas(chain []*domain.StateDelta) (*domain.StateDelta, error) {
	if len(chain) == 0 {
		return nil, domain.ErrMissingArgument.WithDetails("empty delta chain")
	}

	// Validate everything up front: either the whole composition succeeds or
	// no work is observable.
	for i, d := range chain {
		if d == nil {
			return nil, domain.ErrMalformedDelta.WithDetails(fmt.Sprintf("nil delta at chain index %d", i))
		}
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if i > 0 && chain[i-1].ToVersion != d.FromVersion {
			return nil, domain.ErrBrokenChain.WithDetails(
				fmt.Sprintf("chain index %d starts at version %d, previous ended at %d",
					i, d.FromVersion, chain[i-1].ToVersion))
		}
	}

	type span struct {
		oldValue *domain.Value
		newValue *domain.Value
	}
	collapsed := make(map[string]*span)
	var order []string

	for _, d := range chain {
		for i := range d.Changes {
			c := &d.Changes[i]
			if s, ok := collapsed[c.Path]; ok {
				s.newValue = c.NewValue
			} else {
				collapsed[c.Path] = &span{oldValue: c.OldValue, newValue: c.NewValue}
				order = append(order, c.Path)
			}
		}
	}

	changes := make([]domain.Change, 0, len(order))
	for _, path := range order {
		s := collapsed[path]
		if s.oldValue.Equal(s.newValue) {
			continue
		}
		changes = append(changes, domain.Change{Path: path, OldValue: s.oldValue, NewValue: s.newValue})
	}

	return domain.NewStateDelta(chain[0].FromVersion, chain[len(chain)-1].ToVersion, changes), nil
}

// ApplyDelta applies a delta to a snapshot, producing the next snapshot with
// a freshly computed hash. The delta's from-version must match the snapshot's
// version (VersionMismatch otherwise) and every change must carry both value
// sides (MalformedDelta otherwise); on any failure the input snapshot is left
// untouched — there is no partially applied state.
func (e *DeltaEngine) ApplyDelta(snapshot *domain.StateSnapshot, delta *domain.StateDelta) (*domain.StateSnapshot, error) {
	if snapshot == nil || delta == nil {
		return nil, domain.ErrMissingArgument.WithDetails("snapshot and delta are required")
	}
	if delta.FromVersion != snapshot.Version {
		return nil, domain.ErrVersionMismatch.WithDetails(
			fmt.Sprintf("delta spans %d->%d but snapshot is at version %d",
				delta.FromVersion, delta.ToVersion, snapshot.Version))
	}
	if err := delta.Validate(); err != nil {
		return nil, err
	}
	if delta.Empty() && delta.FromVersion == delta.ToVersion {
		return snapshot, nil
	}

	sessionState := snapshot.SessionState
	participants := make(map[string]*domain.Value, len(snapshot.ParticipantStates))
	for id, v := range snapshot.ParticipantStates {
		participants[id] = v
	}

	for i := range delta.Changes {
		c := &delta.Changes[i]
		segments, err := domain.SplitPath(c.Path)
		if err != nil {
			return nil, domain.ErrMalformedDelta.WithCause(err)
		}
		switch segments[0] {
		case domain.PathSessionState:
			if len(segments) == 1 {
				if c.NewValue.IsAbsent() {
					return nil, domain.ErrMalformedDelta.WithDetails("cannot delete the session state root")
				}
				sessionState = c.NewValue
				continue
			}
			next, err := domain.SetAt(sessionState, segments[1:], c.NewValue)
			if err != nil {
				return nil, err
			}
			sessionState = next

		case domain.PathParticipantStates:
			if len(segments) < 2 {
				return nil, domain.ErrMalformedDelta.WithDetails("participant path missing participant id")
			}
			id := segments[1]
			if len(segments) == 2 {
				if c.NewValue.IsAbsent() {
					delete(participants, id)
				} else {
					participants[id] = c.NewValue
				}
				continue
			}
			next, err := domain.SetAt(participants[id], segments[2:], c.NewValue)
			if err != nil {
				return nil, err
			}
			participants[id] = next

		default:
			return nil, domain.ErrMalformedDelta.WithDetails(
				fmt.Sprintf("path %q addresses neither state tree", c.Path))
		}
	}

	return domain.NewStateSnapshot(delta.ToVersion, sessionState, participants), nil
}
