package service

import (
	"math"
	"testing"

	"github.com/yndnr/tablesync-go/internal/core/domain"
)

func TestValidator_ValidateState(t *testing.T) {
	validator := NewValidator()

	valid := snapshotAt(1, 100, "alice", map[string]float64{"alice": 900})

	tests := []struct {
		name     string
		mutate   func() *domain.StateSnapshot
		expected bool
	}{
		{
			name:     "valid snapshot",
			mutate:   func() *domain.StateSnapshot { return valid },
			expected: true,
		},
		{
			name:     "nil snapshot",
			mutate:   func() *domain.StateSnapshot { return nil },
			expected: false,
		},
		{
			name: "version zero",
			mutate: func() *domain.StateSnapshot {
				return domain.NewStateSnapshot(0, sessionState(100, "alice"), nil)
			},
			expected: false,
		},
		{
			name: "nil session state",
			mutate: func() *domain.StateSnapshot {
				s := *valid
				s.SessionState = nil
				return &s
			},
			expected: false,
		},
		{
			name: "non-object participant state",
			mutate: func() *domain.StateSnapshot {
				return domain.NewStateSnapshot(1, nil, map[string]*domain.Value{"alice": domain.String("not an object")})
			},
			expected: false,
		},
		{
			name: "participant id with dot",
			mutate: func() *domain.StateSnapshot {
				return domain.NewStateSnapshot(1, sessionState(100, "a"), map[string]*domain.Value{
					"a.b": participantState(100),
				})
			},
			expected: false,
		},
		{
			name: "empty participant id",
			mutate: func() *domain.StateSnapshot {
				return domain.NewStateSnapshot(1, sessionState(100, "a"), map[string]*domain.Value{
					"": participantState(100),
				})
			},
			expected: false,
		},
		{
			name: "tampered hash",
			mutate: func() *domain.StateSnapshot {
				s := *valid
				s.Hash = "0000000000000000000000000000dead"
				return &s
			},
			expected: false,
		},
		{
			name: "tampered content",
			mutate: func() *domain.StateSnapshot {
				s := *valid
				s.SessionState = sessionState(999999, "alice")
				return &s
			},
			expected: false,
		},
		{
			name: "negative pot",
			mutate: func() *domain.StateSnapshot {
				return domain.NewStateSnapshot(1, sessionState(-5, "alice"), nil)
			},
			expected: false,
		},
		{
			name: "negative participant chips",
			mutate: func() *domain.StateSnapshot {
				return domain.NewStateSnapshot(1, sessionState(100, "alice"), map[string]*domain.Value{
					"alice": participantState(-1),
				})
			},
			expected: false,
		},
		{
			name: "non-numeric money field",
			mutate: func() *domain.StateSnapshot {
				state := domain.Object(map[string]*domain.Value{"pot": domain.String("lots")})
				return domain.NewStateSnapshot(1, state, nil)
			},
			expected: false,
		},
		{
			name: "NaN money field",
			mutate: func() *domain.StateSnapshot {
				state := domain.Object(map[string]*domain.Value{"pot": domain.Number(math.NaN())})
				return domain.NewStateSnapshot(1, state, nil)
			},
			expected: false,
		},
		{
			name: "missing money fields are fine",
			mutate: func() *domain.StateSnapshot {
				state := domain.Object(map[string]*domain.Value{"phase": domain.String("lobby")})
				return domain.NewStateSnapshot(1, state, nil)
			},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := validator.ValidateState(tt.mutate()); got != tt.expected {
				t.Errorf("ValidateState() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestValidator_Rollback(t *testing.T) {
	validator := NewValidator()

	lastValid := snapshotAt(3, 100, "alice", nil)
	invalid := snapshotAt(4, -5, "alice", nil)

	restored := validator.Rollback(invalid, lastValid)
	if restored != lastValid {
		t.Error("Rollback must return the last valid snapshot unchanged")
	}

	if got := validator.Rollback(invalid, nil); got != nil {
		t.Error("Rollback with no valid history returns nil")
	}
}
