package service

import (
	"fmt"

	"github.com/yndnr/tablesync-go/internal/core/domain"
)

// ActiveParticipantField is the session-state field naming the participant
// whose turn it currently is. Out-of-turn detection is skipped when the
// snapshot does not carry it as a string.
const ActiveParticipantField = "activeParticipant"

// ConflictResolver detects and resolves conflicts among concurrently
// submitted actions.
//
// @req RQ-0106
// @design DS-0206
type ConflictResolver struct{}

// NewConflictResolver creates a stateless resolver.
func NewConflictResolver() *ConflictResolver {
	return &ConflictResolver{}
}

type dupKey struct {
	participantID string
	timestamp     int64
}

// DetectConflicts scans the batch for duplicate submissions and out-of-turn
// actions. Duplicate detection groups actions by exact (participant,
// timestamp) pair; an action claimed by a duplicate group is not reported
// again as out of turn. Conflict groups preserve the order in which their
// actions appeared in the batch.
func (c *ConflictResolver) DetectConflicts(actions []*domain.Action, snapshot *domain.StateSnapshot) ([]*domain.Conflict, error) {
	for i, a := range actions {
		if a == nil {
			return nil, domain.ErrInvalidArgument.WithDetails(
				fmt.Sprintf("action at index %d is nil", i))
		}
	}

	var conflicts []*domain.Conflict

	groups := make(map[dupKey][]*domain.Action)
	var keyOrder []dupKey
	for _, a := range actions {
		k := dupKey{participantID: a.ParticipantID, timestamp: a.Timestamp}
		if _, seen := groups[k]; !seen {
			keyOrder = append(keyOrder, k)
		}
		groups[k] = append(groups[k], a)
	}

	inDuplicate := make(map[*domain.Action]bool)
	for _, k := range keyOrder {
		group := groups[k]
		if len(group) < 2 {
			continue
		}
		for _, a := range group {
			inDuplicate[a] = true
		}
		conflicts = append(conflicts, &domain.Conflict{
			Type:    domain.ConflictDuplicateAction,
			Actions: group,
		})
	}

	active, ok := activeParticipant(snapshot)
	if !ok {
		return conflicts, nil
	}
	for _, a := range actions {
		if inDuplicate[a] || a.ParticipantID == active {
			continue
		}
		conflicts = append(conflicts, &domain.Conflict{
			Type:    domain.ConflictOutOfTurn,
			Actions: []*domain.Action{a},
		})
	}
	return conflicts, nil
}

func activeParticipant(snapshot *domain.StateSnapshot) (string, bool) {
	if snapshot == nil || snapshot.SessionState == nil {
		return "", false
	}
	field, ok := snapshot.SessionState.Field(ActiveParticipantField)
	if !ok || field.Kind() != domain.KindString {
		return "", false
	}
	return field.AsString(), true
}

// ResolveConflicts reduces a submitted batch to the actions that should be
// applied. The timestamp-first strategy groups by participant and keeps, per
// participant, the single action with the earliest timestamp, breaking ties
// by batch position; every distinct participant survives, in first-appearance
// order. The sequential strategy deduplicates nothing and returns the batch
// in submission order.
func (c *ConflictResolver) ResolveConflicts(actions []*domain.Action, strategy domain.ResolutionStrategy) ([]*domain.Action, error) {
	for i, a := range actions {
		if a == nil {
			return nil, domain.ErrInvalidArgument.WithDetails(
				fmt.Sprintf("action at index %d is nil", i))
		}
	}

	switch strategy {
	case domain.ResolutionTimestampFirst:
		earliest := make(map[string]*domain.Action, len(actions))
		var order []string
		for _, a := range actions {
			winner, seen := earliest[a.ParticipantID]
			if !seen {
				order = append(order, a.ParticipantID)
			}
			if !seen || a.Timestamp < winner.Timestamp {
				earliest[a.ParticipantID] = a
			}
		}
		resolved := make([]*domain.Action, 0, len(order))
		for _, id := range order {
			resolved = append(resolved, earliest[id])
		}
		return resolved, nil
	case domain.ResolutionSequential:
		resolved := make([]*domain.Action, len(actions))
		copy(resolved, actions)
		return resolved, nil
	default:
		return nil, domain.ErrInvalidArgument.WithDetails(
			fmt.Sprintf("unknown resolution strategy %d", strategy))
	}
}

// BatchUpdates collapses per-participant updates to the last write per
// participant. Output order follows each participant's first appearance in
// the batch.
func (c *ConflictResolver) BatchUpdates(updates []*domain.Action) []*domain.Action {
	if len(updates) == 0 {
		return nil
	}
	latest := make(map[string]*domain.Action, len(updates))
	var order []string
	for _, u := range updates {
		if u == nil {
			continue
		}
		if _, seen := latest[u.ParticipantID]; !seen {
			order = append(order, u.ParticipantID)
		}
		latest[u.ParticipantID] = u
	}
	batched := make([]*domain.Action, 0, len(order))
	for _, id := range order {
		batched = append(batched, latest[id])
	}
	return batched
}
