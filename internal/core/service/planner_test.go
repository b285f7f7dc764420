package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/yndnr/tablesync-go/internal/core/domain"
)

// fakeHistory serves a canned chain or error.
type fakeHistory struct {
	chain []*domain.StateDelta
	err   error
}

func (f *fakeHistory) DeltaChain(fromVersion, toVersion uint64) ([]*domain.StateDelta, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.chain, nil
}

func smallChain(from, to uint64) []*domain.StateDelta {
	var chain []*domain.StateDelta
	for v := from; v < to; v++ {
		chain = append(chain, domain.NewStateDelta(v, v+1, []domain.Change{
			{Path: "sessionState.pot", OldValue: domain.Number(float64(v)), NewValue: domain.Number(float64(v + 1))},
		}))
	}
	return chain
}

func TestNewSyncPlanner(t *testing.T) {
	if _, err := NewSyncPlanner(nil, nil, -1); !errors.Is(err, domain.ErrInvalidConfiguration) {
		t.Errorf("negative size error = %v, want invalid configuration", err)
	}

	p, err := NewSyncPlanner(nil, nil, 0)
	if err != nil {
		t.Fatalf("NewSyncPlanner() error: %v", err)
	}
	if p.maxDeltaSize != DefaultMaxDeltaSize {
		t.Errorf("maxDeltaSize = %d, want default %d", p.maxDeltaSize, DefaultMaxDeltaSize)
	}
}

func TestSyncPlanner_SyncState(t *testing.T) {
	server := snapshotAt(10, 500, "alice", map[string]float64{"alice": 500})

	tests := []struct {
		name          string
		history       History
		clientVersion uint64
		opts          SyncOptions
		expectedType  domain.SyncType
	}{
		{
			name:          "up to date client gets empty delta",
			history:       &fakeHistory{chain: smallChain(1, 10)},
			clientVersion: 10,
			expectedType:  domain.SyncDelta,
		},
		{
			name:          "client ahead forces snapshot",
			history:       &fakeHistory{},
			clientVersion: 11,
			expectedType:  domain.SyncSnapshot,
		},
		{
			name:          "no history forces snapshot",
			history:       nil,
			clientVersion: 5,
			expectedType:  domain.SyncSnapshot,
		},
		{
			name:          "healthy chain within budget",
			history:       &fakeHistory{chain: smallChain(5, 10)},
			clientVersion: 5,
			expectedType:  domain.SyncDelta,
		},
		{
			name:          "history gap falls back to snapshot",
			history:       &fakeHistory{err: domain.ErrHistoryUnavailable},
			clientVersion: 5,
			expectedType:  domain.SyncSnapshot,
		},
		{
			name:          "broken retained chain falls back to snapshot",
			history:       &fakeHistory{chain: append(smallChain(5, 7), smallChain(8, 10)...)},
			clientVersion: 5,
			expectedType:  domain.SyncSnapshot,
		},
		{
			name:          "oversized delta falls back to snapshot",
			history:       &fakeHistory{chain: smallChain(5, 10)},
			clientVersion: 5,
			opts:          SyncOptions{MaxDeltaSize: 1},
			expectedType:  domain.SyncSnapshot,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			planner, err := NewSyncPlanner(tt.history, nil, 0)
			if err != nil {
				t.Fatalf("NewSyncPlanner() error: %v", err)
			}

			result, err := planner.SyncState(tt.clientVersion, server, tt.opts)
			if err != nil {
				t.Fatalf("SyncState() error: %v", err)
			}
			if result.Type != tt.expectedType {
				t.Fatalf("Type = %q, want %q", result.Type, tt.expectedType)
			}
			switch result.Type {
			case domain.SyncDelta:
				if result.Delta == nil {
					t.Fatal("delta result missing delta")
				}
				if result.Delta.ToVersion != server.Version {
					t.Errorf("delta ToVersion = %d, want %d", result.Delta.ToVersion, server.Version)
				}
			case domain.SyncSnapshot:
				if result.Snapshot != server {
					t.Error("snapshot result must carry the server snapshot")
				}
			}
		})
	}
}

func TestSyncPlanner_SyncState_UpToDateEmptyDelta(t *testing.T) {
	planner, _ := NewSyncPlanner(nil, nil, 0)
	server := snapshotAt(4, 100, "alice", nil)

	result, err := planner.SyncState(4, server, SyncOptions{})
	if err != nil {
		t.Fatalf("SyncState() error: %v", err)
	}
	if result.Type != domain.SyncDelta || !result.Delta.Empty() {
		t.Fatalf("up-to-date client should get an empty delta, got %+v", result)
	}
	if result.Delta.FromVersion != 4 || result.Delta.ToVersion != 4 {
		t.Errorf("empty delta spans %d->%d, want 4->4", result.Delta.FromVersion, result.Delta.ToVersion)
	}
	if err := result.Delta.Validate(); err != nil {
		t.Errorf("empty delta should validate: %v", err)
	}
}

func TestSyncPlanner_SyncState_Errors(t *testing.T) {
	planner, _ := NewSyncPlanner(nil, nil, 0)

	if _, err := planner.SyncState(1, nil, SyncOptions{}); !errors.Is(err, domain.ErrMissingArgument) {
		t.Errorf("nil snapshot error = %v, want missing argument", err)
	}

	server := snapshotAt(4, 100, "alice", nil)
	if _, err := planner.SyncState(1, server, SyncOptions{MaxDeltaSize: -5}); !errors.Is(err, domain.ErrInvalidConfiguration) {
		t.Errorf("negative option error = %v, want invalid configuration", err)
	}
}

func TestSyncPlanner_SyncState_HistoryInfrastructureError(t *testing.T) {
	planner, _ := NewSyncPlanner(&fakeHistory{err: fmt.Errorf("disk gone")}, nil, 0)
	server := snapshotAt(4, 100, "alice", nil)

	_, err := planner.SyncState(1, server, SyncOptions{})
	if !errors.Is(err, domain.ErrStorageError) {
		t.Errorf("infrastructure error = %v, want storage error", err)
	}
}
