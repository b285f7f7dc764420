package memory

import (
	"sync"

	"github.com/yndnr/tablesync-go/internal/core/domain"
)

type logEntry struct {
	version uint64
	action  *domain.Action
}

// ActionLog is the in-memory append-only action log of one session. Entries
// carry the snapshot version that was current when the action was accepted.
type ActionLog struct {
	mu      sync.RWMutex
	entries []logEntry
	closed  bool
}

// NewActionLog creates an empty log.
func NewActionLog() *ActionLog {
	return &ActionLog{}
}

// Append records actions under the given snapshot version.
func (l *ActionLog) Append(version uint64, actions ...*domain.Action) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return domain.ErrLogUnavailable.WithDetails("action log is closed")
	}
	for _, a := range actions {
		if a == nil {
			return domain.ErrMissingArgument.WithDetails("nil action in batch")
		}
		l.entries = append(l.entries, logEntry{version: version, action: a})
	}
	return nil
}

// Since returns, in append order, the actions recorded after the given
// snapshot version.
func (l *ActionLog) Since(afterVersion uint64) ([]*domain.Action, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return nil, domain.ErrLogUnavailable.WithDetails("action log is closed")
	}
	var out []*domain.Action
	for _, e := range l.entries {
		if e.version > afterVersion {
			out = append(out, e.action)
		}
	}
	return out, nil
}

// Len reports the number of logged actions.
func (l *ActionLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Close marks the log unavailable. Appends and reads fail afterwards.
func (l *ActionLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}
