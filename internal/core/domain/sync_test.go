// Package domain defines the core domain models for TableSync.
package domain

import (
	"errors"
	"testing"
)

func TestParseResolutionStrategy(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected ResolutionStrategy
		wantErr  bool
	}{
		{"timestamp first", "timestamp_first", ResolutionTimestampFirst, false},
		{"sequential", "sequential", ResolutionSequential, false},
		{"empty defaults to timestamp first", "", ResolutionTimestampFirst, false},
		{"unknown", "newest_wins", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseResolutionStrategy(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidArgument) {
					t.Errorf("error = %v, want invalid argument", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseResolutionStrategy(%q) error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("ParseResolutionStrategy(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestResolutionStrategy_String(t *testing.T) {
	if got := ResolutionTimestampFirst.String(); got != "timestamp_first" {
		t.Errorf("String() = %q", got)
	}
	if got := ResolutionSequential.String(); got != "sequential" {
		t.Errorf("String() = %q", got)
	}
	if got := ResolutionStrategy(99).String(); got != "unknown" {
		t.Errorf("String() = %q", got)
	}
}

func TestSyncResultConstructors(t *testing.T) {
	delta := NewStateDelta(1, 2, nil)
	dr := NewDeltaResult(delta)
	if dr.Type != SyncDelta || dr.Delta != delta || dr.Snapshot != nil {
		t.Errorf("NewDeltaResult() = %+v", dr)
	}

	snap := NewStateSnapshot(2, nil, nil)
	sr := NewSnapshotResult(snap)
	if sr.Type != SyncSnapshot || sr.Snapshot != snap || sr.Delta != nil {
		t.Errorf("NewSnapshotResult() = %+v", sr)
	}
}
