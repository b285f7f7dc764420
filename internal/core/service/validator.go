package service

import (
	"math"
	"strings"

	"github.com/yndnr/tablesync-go/internal/core/domain"
)

// Monetary fields with a non-negativity invariant. Field names the game layer
// does not use are simply never present.
var (
	sessionMoneyFields     = []string{"pot", "currentBet", "minRaise"}
	participantMoneyFields = []string{"chips", "bet", "currentBet"}
)

// Validator checks structural and invariant soundness of snapshots.
// Both operations report through return values and never panic, so the
// caller decides remediation (typically rollback).
//
// @req RQ-0103
// @design DS-0204
type Validator struct{}

// NewValidator creates a validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateState reports whether the snapshot is a well-formed container with
// its known numeric invariants intact. It returns false on any violation:
// missing or non-object state trees, an inconsistent content hash, malformed
// participant IDs, or a negative monetary field.
func (v *Validator) ValidateState(s *domain.StateSnapshot) bool {
	if s == nil {
		return false
	}
	if s.Version == 0 {
		return false
	}
	if s.SessionState == nil || s.SessionState.Kind() != domain.KindObject {
		return false
	}
	for id, state := range s.ParticipantStates {
		if id == "" || strings.Contains(id, ".") {
			return false
		}
		if state == nil || state.Kind() != domain.KindObject {
			return false
		}
	}
	if s.Hash != domain.ContentHash(s.SessionState, s.ParticipantStates) {
		return false
	}

	if !moneyFieldsValid(s.SessionState, sessionMoneyFields) {
		return false
	}
	for _, state := range s.ParticipantStates {
		if !moneyFieldsValid(state, participantMoneyFields) {
			return false
		}
	}
	return true
}

func moneyFieldsValid(state *domain.Value, fields []string) bool {
	for _, name := range fields {
		f, ok := state.Field(name)
		if !ok {
			continue
		}
		if f.Kind() != domain.KindNumber {
			return false
		}
		n := f.AsNumber()
		if n < 0 || math.IsNaN(n) || math.IsInf(n, 0) {
			return false
		}
	}
	return true
}

// Rollback returns the last valid snapshot unchanged. The invalid snapshot
// is never partially repaired — callers discard it and resume from the last
// snapshot that passed validation.
func (v *Validator) Rollback(_, lastValid *domain.StateSnapshot) *domain.StateSnapshot {
	return lastValid
}
