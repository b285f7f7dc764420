package service

import (
	"errors"
	"testing"

	"github.com/yndnr/tablesync-go/internal/core/domain"
)

func snapshotAt(version uint64, pot float64, active string, chips map[string]float64) *domain.StateSnapshot {
	participants := make(map[string]*domain.Value, len(chips))
	for id, c := range chips {
		participants[id] = participantState(c)
	}
	return domain.NewStateSnapshot(version, sessionState(pot, active), participants)
}

func changeByPath(t *testing.T, delta *domain.StateDelta, path string) *domain.Change {
	t.Helper()
	for i := range delta.Changes {
		if delta.Changes[i].Path == path {
			return &delta.Changes[i]
		}
	}
	t.Fatalf("no change at path %q in %v", path, delta.Changes)
	return nil
}

func TestDeltaEngine_GenerateDelta(t *testing.T) {
	engine := NewDeltaEngine()

	from := snapshotAt(1, 100, "alice", map[string]float64{"alice": 900, "bob": 1100})
	to := snapshotAt(2, 250, "bob", map[string]float64{"alice": 750, "bob": 1100})

	delta, err := engine.GenerateDelta(from, to)
	if err != nil {
		t.Fatalf("GenerateDelta() error: %v", err)
	}

	if delta.FromVersion != 1 || delta.ToVersion != 2 {
		t.Errorf("delta spans %d->%d, want 1->2", delta.FromVersion, delta.ToVersion)
	}
	if len(delta.Changes) != 3 {
		t.Fatalf("len(Changes) = %d, want 3: %v", len(delta.Changes), delta.Changes)
	}

	pot := changeByPath(t, delta, "sessionState.pot")
	if pot.OldValue.AsNumber() != 100 || pot.NewValue.AsNumber() != 250 {
		t.Errorf("pot change = %v -> %v", pot.OldValue.AsNumber(), pot.NewValue.AsNumber())
	}
	active := changeByPath(t, delta, "sessionState.activeParticipant")
	if active.NewValue.AsString() != "bob" {
		t.Errorf("active change = %v", active.NewValue.AsString())
	}
	chips := changeByPath(t, delta, "participantStates.alice.chips")
	if chips.OldValue.AsNumber() != 900 || chips.NewValue.AsNumber() != 750 {
		t.Errorf("chips change = %v -> %v", chips.OldValue.AsNumber(), chips.NewValue.AsNumber())
	}
}

func TestDeltaEngine_GenerateDelta_NoChanges(t *testing.T) {
	engine := NewDeltaEngine()

	from := snapshotAt(1, 100, "alice", map[string]float64{"alice": 900})
	to := snapshotAt(2, 100, "alice", map[string]float64{"alice": 900})

	delta, err := engine.GenerateDelta(from, to)
	if err != nil {
		t.Fatalf("GenerateDelta() error: %v", err)
	}
	if !delta.Empty() {
		t.Errorf("identical content should yield an empty delta, got %v", delta.Changes)
	}
}

func TestDeltaEngine_GenerateDelta_ParticipantJoinLeave(t *testing.T) {
	engine := NewDeltaEngine()

	from := snapshotAt(1, 100, "alice", map[string]float64{"alice": 900, "bob": 1100})
	to := snapshotAt(2, 100, "alice", map[string]float64{"alice": 900, "carl": 500})

	delta, err := engine.GenerateDelta(from, to)
	if err != nil {
		t.Fatalf("GenerateDelta() error: %v", err)
	}

	left := changeByPath(t, delta, "participantStates.bob")
	if !left.NewValue.IsAbsent() {
		t.Error("departed participant should diff to the absent sentinel")
	}
	joined := changeByPath(t, delta, "participantStates.carl")
	if !joined.OldValue.IsAbsent() {
		t.Error("joined participant should diff from the absent sentinel")
	}
}

func TestDeltaEngine_GenerateDelta_PointerShortcutNeutral(t *testing.T) {
	engine := NewDeltaEngine()

	// Same content twice: once sharing the participant subtree by pointer,
	// once with structurally equal but distinct trees.
	shared := participantState(900)
	fromShared := domain.NewStateSnapshot(1, sessionState(100, "alice"), map[string]*domain.Value{"alice": shared})
	toShared := domain.NewStateSnapshot(2, sessionState(250, "alice"), map[string]*domain.Value{"alice": shared})

	fromDistinct := domain.NewStateSnapshot(1, sessionState(100, "alice"), map[string]*domain.Value{"alice": participantState(900)})
	toDistinct := domain.NewStateSnapshot(2, sessionState(250, "alice"), map[string]*domain.Value{"alice": participantState(900)})

	dShared, err := engine.GenerateDelta(fromShared, toShared)
	if err != nil {
		t.Fatalf("GenerateDelta(shared) error: %v", err)
	}
	dDistinct, err := engine.GenerateDelta(fromDistinct, toDistinct)
	if err != nil {
		t.Fatalf("GenerateDelta(distinct) error: %v", err)
	}

	if len(dShared.Changes) != len(dDistinct.Changes) {
		t.Fatalf("shortcut changed the outcome: %d vs %d changes",
			len(dShared.Changes), len(dDistinct.Changes))
	}
	for i := range dShared.Changes {
		if dShared.Changes[i].Path != dDistinct.Changes[i].Path {
			t.Errorf("change %d path %q vs %q", i, dShared.Changes[i].Path, dDistinct.Changes[i].Path)
		}
	}
}

func TestDeltaEngine_GenerateDelta_Errors(t *testing.T) {
	engine := NewDeltaEngine()
	snap := snapshotAt(2, 100, "alice", nil)

	if _, err := engine.GenerateDelta(nil, snap); !errors.Is(err, domain.ErrMissingArgument) {
		t.Errorf("nil from error = %v, want missing argument", err)
	}
	if _, err := engine.GenerateDelta(snap, nil); !errors.Is(err, domain.ErrMissingArgument) {
		t.Errorf("nil to error = %v, want missing argument", err)
	}
	if _, err := engine.GenerateDelta(snap, snapshotAt(1, 0, "", nil)); !errors.Is(err, domain.ErrVersionMismatch) {
		t.Errorf("inverted versions error = %v, want version mismatch", err)
	}
	if _, err := engine.GenerateDelta(snap, snapshotAt(2, 0, "", nil)); !errors.Is(err, domain.ErrVersionMismatch) {
		t.Errorf("equal versions error = %v, want version mismatch", err)
	}
}

func TestDeltaEngine_ApplyDelta(t *testing.T) {
	engine := NewDeltaEngine()

	from := snapshotAt(1, 100, "alice", map[string]float64{"alice": 900, "bob": 1100})
	to := snapshotAt(2, 250, "bob", map[string]float64{"alice": 750, "carl": 500})

	delta, err := engine.GenerateDelta(from, to)
	if err != nil {
		t.Fatalf("GenerateDelta() error: %v", err)
	}

	applied, err := engine.ApplyDelta(from, delta)
	if err != nil {
		t.Fatalf("ApplyDelta() error: %v", err)
	}

	if applied.Version != to.Version {
		t.Errorf("applied Version = %d, want %d", applied.Version, to.Version)
	}
	if applied.Hash != to.Hash {
		t.Errorf("applied Hash = %s, want %s (content must converge)", applied.Hash, to.Hash)
	}
	if _, ok := applied.Participant("bob"); ok {
		t.Error("departed participant should be removed by apply")
	}
	if _, ok := applied.Participant("carl"); !ok {
		t.Error("joined participant should be added by apply")
	}

	// The input snapshot is never mutated.
	if from.Hash != domain.ContentHash(from.SessionState, from.ParticipantStates) {
		t.Error("ApplyDelta mutated the input snapshot")
	}
}

func TestDeltaEngine_ApplyDelta_Empty(t *testing.T) {
	engine := NewDeltaEngine()
	snap := snapshotAt(3, 100, "alice", nil)

	applied, err := engine.ApplyDelta(snap, domain.NewStateDelta(3, 3, nil))
	if err != nil {
		t.Fatalf("ApplyDelta() error: %v", err)
	}
	if applied != snap {
		t.Error("an empty same-version delta should return the snapshot unchanged")
	}
}

func TestDeltaEngine_ApplyDelta_Errors(t *testing.T) {
	engine := NewDeltaEngine()
	snap := snapshotAt(5, 100, "alice", nil)

	tests := []struct {
		name     string
		snapshot *domain.StateSnapshot
		delta    *domain.StateDelta
		sentinel *domain.DomainError
	}{
		{
			name:     "nil snapshot",
			delta:    domain.NewStateDelta(5, 6, nil),
			sentinel: domain.ErrMissingArgument,
		},
		{
			name:     "nil delta",
			snapshot: snap,
			sentinel: domain.ErrMissingArgument,
		},
		{
			name:     "version mismatch",
			snapshot: snap,
			delta: domain.NewStateDelta(3, 4, []domain.Change{
				{Path: "sessionState.pot", OldValue: domain.Number(1), NewValue: domain.Number(2)},
			}),
			sentinel: domain.ErrVersionMismatch,
		},
		{
			name:     "change missing value side",
			snapshot: snap,
			delta: domain.NewStateDelta(5, 6, []domain.Change{
				{Path: "sessionState.pot", OldValue: domain.Number(1)},
			}),
			sentinel: domain.ErrMalformedDelta,
		},
		{
			name:     "path outside both trees",
			snapshot: snap,
			delta: domain.NewStateDelta(5, 6, []domain.Change{
				{Path: "tableState.pot", OldValue: domain.Number(1), NewValue: domain.Number(2)},
			}),
			sentinel: domain.ErrMalformedDelta,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := engine.ApplyDelta(tt.snapshot, tt.delta); !errors.Is(err, tt.sentinel) {
				t.Errorf("ApplyDelta() error = %v, want %v", err, tt.sentinel)
			}
		})
	}
}

func TestDeltaEngine_CompressDeltas(t *testing.T) {
	engine := NewDeltaEngine()

	// v1 -> v2 -> v3 -> v4 touching overlapping paths.
	v1 := snapshotAt(1, 100, "alice", map[string]float64{"alice": 900})
	v2 := snapshotAt(2, 150, "alice", map[string]float64{"alice": 850})
	v3 := snapshotAt(3, 200, "bob", map[string]float64{"alice": 850})
	v4 := snapshotAt(4, 250, "bob", map[string]float64{"alice": 700})

	var chain []*domain.StateDelta
	for _, pair := range [][2]*domain.StateSnapshot{{v1, v2}, {v2, v3}, {v3, v4}} {
		d, err := engine.GenerateDelta(pair[0], pair[1])
		if err != nil {
			t.Fatalf("GenerateDelta() error: %v", err)
		}
		chain = append(chain, d)
	}

	compressed, err := engine.CompressDeltas(chain)
	if err != nil {
		t.Fatalf("CompressDeltas() error: %v", err)
	}
	if compressed.FromVersion != 1 || compressed.ToVersion != 4 {
		t.Errorf("compressed spans %d->%d, want 1->4", compressed.FromVersion, compressed.ToVersion)
	}

	// Applying the compressed delta must land on the same content as
	// applying the chain step by step.
	applied, err := engine.ApplyDelta(v1, compressed)
	if err != nil {
		t.Fatalf("ApplyDelta(compressed) error: %v", err)
	}
	if applied.Hash != v4.Hash {
		t.Errorf("compressed apply Hash = %s, want %s", applied.Hash, v4.Hash)
	}

	// The collapsed pot change spans earliest-old to latest-new.
	pot := changeByPath(t, compressed, "sessionState.pot")
	if pot.OldValue.AsNumber() != 100 || pot.NewValue.AsNumber() != 250 {
		t.Errorf("pot span = %v -> %v, want 100 -> 250", pot.OldValue.AsNumber(), pot.NewValue.AsNumber())
	}
}

func TestDeltaEngine_CompressDeltas_DropsRoundTrips(t *testing.T) {
	engine := NewDeltaEngine()

	// pot goes 100 -> 250 -> 100: a no-op across the chain.
	chain := []*domain.StateDelta{
		domain.NewStateDelta(1, 2, []domain.Change{
			{Path: "sessionState.pot", OldValue: domain.Number(100), NewValue: domain.Number(250)},
		}),
		domain.NewStateDelta(2, 3, []domain.Change{
			{Path: "sessionState.pot", OldValue: domain.Number(250), NewValue: domain.Number(100)},
		}),
	}

	compressed, err := engine.CompressDeltas(chain)
	if err != nil {
		t.Fatalf("CompressDeltas() error: %v", err)
	}
	if !compressed.Empty() {
		t.Errorf("round-trip change should be dropped, got %v", compressed.Changes)
	}
	if compressed.FromVersion != 1 || compressed.ToVersion != 3 {
		t.Errorf("compressed spans %d->%d, want 1->3", compressed.FromVersion, compressed.ToVersion)
	}
}

func TestDeltaEngine_CompressDeltas_Errors(t *testing.T) {
	engine := NewDeltaEngine()

	if _, err := engine.CompressDeltas(nil); !errors.Is(err, domain.ErrMissingArgument) {
		t.Errorf("empty chain error = %v, want missing argument", err)
	}

	gap := []*domain.StateDelta{
		domain.NewStateDelta(1, 2, nil),
		domain.NewStateDelta(3, 4, nil),
	}
	// Make both deltas non-empty so Validate passes and the gap is the fault.
	gap[0].Changes = []domain.Change{{Path: "sessionState.pot", OldValue: domain.Number(1), NewValue: domain.Number(2)}}
	gap[1].Changes = []domain.Change{{Path: "sessionState.pot", OldValue: domain.Number(2), NewValue: domain.Number(3)}}
	if _, err := engine.CompressDeltas(gap); !errors.Is(err, domain.ErrBrokenChain) {
		t.Errorf("gap error = %v, want broken chain", err)
	}

	withNil := []*domain.StateDelta{domain.NewStateDelta(1, 2, nil), nil}
	withNil[0].Changes = []domain.Change{{Path: "x", OldValue: domain.Number(1), NewValue: domain.Number(2)}}
	if _, err := engine.CompressDeltas(withNil); !errors.Is(err, domain.ErrMalformedDelta) {
		t.Errorf("nil delta error = %v, want malformed delta", err)
	}
}
