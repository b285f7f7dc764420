package service

import (
	"errors"
	"testing"

	"github.com/yndnr/tablesync-go/internal/core/domain"
)

func TestConflictResolver_DetectConflicts_Duplicates(t *testing.T) {
	resolver := NewConflictResolver()
	snap := snapshotAt(1, 100, "alice", map[string]float64{"alice": 900, "bob": 1100})

	dup1 := namedAction(t, "alice", 1000)
	dup2 := namedAction(t, "alice", 1000)
	clean := namedAction(t, "alice", 2000)

	conflicts, err := resolver.DetectConflicts([]*domain.Action{dup1, clean, dup2}, snap)
	if err != nil {
		t.Fatalf("DetectConflicts() error: %v", err)
	}

	if len(conflicts) != 1 {
		t.Fatalf("len(conflicts) = %d, want 1: %+v", len(conflicts), conflicts)
	}
	c := conflicts[0]
	if c.Type != domain.ConflictDuplicateAction {
		t.Errorf("Type = %q, want duplicate", c.Type)
	}
	if len(c.Actions) != 2 || c.Actions[0] != dup1 || c.Actions[1] != dup2 {
		t.Errorf("duplicate group should hold both colliding actions in batch order")
	}
}

func TestConflictResolver_DetectConflicts_OutOfTurn(t *testing.T) {
	resolver := NewConflictResolver()
	snap := snapshotAt(1, 100, "alice", map[string]float64{"alice": 900, "bob": 1100})

	inTurn := namedAction(t, "alice", 1000)
	outOfTurn := namedAction(t, "bob", 1001)

	conflicts, err := resolver.DetectConflicts([]*domain.Action{inTurn, outOfTurn}, snap)
	if err != nil {
		t.Fatalf("DetectConflicts() error: %v", err)
	}

	if len(conflicts) != 1 {
		t.Fatalf("len(conflicts) = %d, want 1: %+v", len(conflicts), conflicts)
	}
	c := conflicts[0]
	if c.Type != domain.ConflictOutOfTurn {
		t.Errorf("Type = %q, want out of turn", c.Type)
	}
	if len(c.Actions) != 1 || c.Actions[0] != outOfTurn {
		t.Errorf("out-of-turn conflict carries exactly the offending action")
	}
}

func TestConflictResolver_DetectConflicts_DuplicateSuppressesOutOfTurn(t *testing.T) {
	resolver := NewConflictResolver()
	snap := snapshotAt(1, 100, "alice", nil)

	// Both bob actions collide on timestamp; they must surface once, as a
	// duplicate group, not again as out-of-turn.
	dup1 := namedAction(t, "bob", 1000)
	dup2 := namedAction(t, "bob", 1000)

	conflicts, err := resolver.DetectConflicts([]*domain.Action{dup1, dup2}, snap)
	if err != nil {
		t.Fatalf("DetectConflicts() error: %v", err)
	}
	if len(conflicts) != 1 || conflicts[0].Type != domain.ConflictDuplicateAction {
		t.Fatalf("conflicts = %+v, want one duplicate group", conflicts)
	}
}

func TestConflictResolver_DetectConflicts_NoActiveParticipant(t *testing.T) {
	resolver := NewConflictResolver()

	// Session state without an activeParticipant string: out-of-turn
	// detection is skipped entirely.
	snap := domain.NewStateSnapshot(1, domain.Object(map[string]*domain.Value{
		"phase": domain.String("lobby"),
	}), nil)

	conflicts, err := resolver.DetectConflicts([]*domain.Action{namedAction(t, "bob", 1)}, snap)
	if err != nil {
		t.Fatalf("DetectConflicts() error: %v", err)
	}
	if len(conflicts) != 0 {
		t.Errorf("conflicts = %+v, want none", conflicts)
	}

	// Nil snapshot likewise skips turn checking.
	conflicts, err = resolver.DetectConflicts([]*domain.Action{namedAction(t, "bob", 1)}, nil)
	if err != nil {
		t.Fatalf("DetectConflicts(nil snapshot) error: %v", err)
	}
	if len(conflicts) != 0 {
		t.Errorf("conflicts = %+v, want none", conflicts)
	}
}

func TestConflictResolver_DetectConflicts_NilAction(t *testing.T) {
	resolver := NewConflictResolver()
	_, err := resolver.DetectConflicts([]*domain.Action{namedAction(t, "a", 1), nil}, nil)
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("error = %v, want invalid argument", err)
	}
}

func TestConflictResolver_ResolveConflicts_TimestampFirst(t *testing.T) {
	resolver := NewConflictResolver()

	early := namedAction(t, "alice", 1000)
	late := namedAction(t, "alice", 2000)

	resolved, err := resolver.ResolveConflicts([]*domain.Action{late, early}, domain.ResolutionTimestampFirst)
	if err != nil {
		t.Fatalf("ResolveConflicts() error: %v", err)
	}
	if len(resolved) != 1 || resolved[0] != early {
		t.Errorf("resolved = %+v, want only alice's earliest action", resolved)
	}
}

func TestConflictResolver_ResolveConflicts_TimestampFirstKeepsEveryParticipant(t *testing.T) {
	resolver := NewConflictResolver()

	alice := namedAction(t, "alice", 1000)
	bob := namedAction(t, "bob", 500)

	// Grouping is per participant: bob's earlier timestamp must not displace
	// alice, each participant keeps one survivor.
	resolved, err := resolver.ResolveConflicts([]*domain.Action{alice, bob}, domain.ResolutionTimestampFirst)
	if err != nil {
		t.Fatalf("ResolveConflicts() error: %v", err)
	}
	if len(resolved) != 2 {
		t.Fatalf("len(resolved) = %d, want one survivor per participant", len(resolved))
	}
	if resolved[0] != alice || resolved[1] != bob {
		t.Errorf("resolved = %+v, want [alice, bob] in first-appearance order", resolved)
	}
}

func TestConflictResolver_ResolveConflicts_TimestampTieKeepsBatchOrder(t *testing.T) {
	resolver := NewConflictResolver()

	first := namedAction(t, "alice", 1000)
	second := namedAction(t, "alice", 1000)

	resolved, err := resolver.ResolveConflicts([]*domain.Action{first, second}, domain.ResolutionTimestampFirst)
	if err != nil {
		t.Fatalf("ResolveConflicts() error: %v", err)
	}
	if len(resolved) != 1 || resolved[0] != first {
		t.Error("timestamp ties break by batch position")
	}
}

func TestConflictResolver_ResolveConflicts_Sequential(t *testing.T) {
	resolver := NewConflictResolver()

	a1 := namedAction(t, "alice", 2000)
	a2 := namedAction(t, "alice", 1000)
	a3 := namedAction(t, "alice", 1000)

	resolved, err := resolver.ResolveConflicts([]*domain.Action{a1, a2, a3}, domain.ResolutionSequential)
	if err != nil {
		t.Fatalf("ResolveConflicts() error: %v", err)
	}

	// No deduplication and no reordering: submission order is preserved even
	// when later actions carry earlier timestamps.
	if len(resolved) != 3 {
		t.Fatalf("len(resolved) = %d, want 3", len(resolved))
	}
	if resolved[0] != a1 || resolved[1] != a2 || resolved[2] != a3 {
		t.Errorf("resolved order = %+v, want submission order", resolved)
	}
}

func TestConflictResolver_ResolveConflicts_Errors(t *testing.T) {
	resolver := NewConflictResolver()
	valid := namedAction(t, "a", 1)

	if _, err := resolver.ResolveConflicts([]*domain.Action{valid}, domain.ResolutionStrategy(42)); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("unknown strategy error = %v, want invalid argument", err)
	}
	if _, err := resolver.ResolveConflicts([]*domain.Action{valid, nil}, domain.ResolutionTimestampFirst); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("nil action error = %v, want invalid argument", err)
	}
}

func TestConflictResolver_BatchUpdates(t *testing.T) {
	resolver := NewConflictResolver()

	aliceOld := namedAction(t, "alice", 1000)
	bobOnly := namedAction(t, "bob", 1500)
	aliceNew := namedAction(t, "alice", 2000)

	batched := resolver.BatchUpdates([]*domain.Action{aliceOld, bobOnly, nil, aliceNew})

	// Last write wins per participant; order follows first appearance.
	if len(batched) != 2 {
		t.Fatalf("len(batched) = %d, want 2", len(batched))
	}
	if batched[0] != aliceNew {
		t.Errorf("batched[0] = %+v, want alice's latest action", batched[0])
	}
	if batched[1] != bobOnly {
		t.Errorf("batched[1] = %+v, want bob's action", batched[1])
	}

	if got := resolver.BatchUpdates(nil); got != nil {
		t.Errorf("BatchUpdates(nil) = %v, want nil", got)
	}
}
