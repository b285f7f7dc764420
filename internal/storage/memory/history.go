package memory

import (
	"fmt"
	"sync"

	"github.com/yndnr/tablesync-go/internal/core/domain"
)

// DefaultRetention is the number of deltas a history keeps when no explicit
// retention is configured.
const DefaultRetention = 256

// History retains the most recent deltas of one session, oldest first. Once
// the retention limit evicts a delta, version ranges reaching behind it are
// reported unreconstructible so callers fall back to full snapshots.
//
// @req RQ-0108
type History struct {
	mu        sync.RWMutex
	retention int
	deltas    []*domain.StateDelta
}

// NewHistory creates a history ring. A non-positive retention takes the
// default.
func NewHistory(retention int) *History {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &History{retention: retention}
}

// Record appends a delta. The delta must extend the retained chain, so the
// stored sequence always has matching version endpoints.
func (h *History) Record(delta *domain.StateDelta) error {
	if delta == nil {
		return domain.ErrMissingArgument.WithDetails("delta is required")
	}
	if err := delta.Validate(); err != nil {
		return err
	}
	if delta.Empty() && delta.FromVersion == delta.ToVersion {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if n := len(h.deltas); n > 0 {
		if last := h.deltas[n-1]; delta.FromVersion != last.ToVersion {
			return domain.ErrBrokenChain.WithDetails(fmt.Sprintf(
				"delta from version %d does not extend retained chain ending at %d",
				delta.FromVersion, last.ToVersion))
		}
	}
	h.deltas = append(h.deltas, delta)
	if len(h.deltas) > h.retention {
		evicted := len(h.deltas) - h.retention
		h.deltas = append(h.deltas[:0:0], h.deltas[evicted:]...)
	}
	return nil
}

// DeltaChain returns the retained deltas covering fromVersion up to
// toVersion. It reports ErrHistoryUnavailable when the range reaches behind
// the retained window or past its end.
func (h *History) DeltaChain(fromVersion, toVersion uint64) ([]*domain.StateDelta, error) {
	if fromVersion >= toVersion {
		return nil, domain.ErrInvalidArgument.WithDetails(fmt.Sprintf(
			"from version %d must precede to version %d", fromVersion, toVersion))
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.deltas) == 0 {
		return nil, domain.ErrHistoryUnavailable.WithDetails("no deltas retained")
	}
	oldest := h.deltas[0].FromVersion
	newest := h.deltas[len(h.deltas)-1].ToVersion
	if fromVersion < oldest || toVersion > newest {
		return nil, domain.ErrHistoryUnavailable.WithDetails(fmt.Sprintf(
			"versions %d..%d outside retained window %d..%d",
			fromVersion, toVersion, oldest, newest))
	}

	var chain []*domain.StateDelta
	for _, d := range h.deltas {
		if d.ToVersion <= fromVersion {
			continue
		}
		if d.FromVersion >= toVersion {
			break
		}
		chain = append(chain, d)
	}
	if len(chain) == 0 || chain[0].FromVersion != fromVersion || chain[len(chain)-1].ToVersion != toVersion {
		return nil, domain.ErrHistoryUnavailable.WithDetails(fmt.Sprintf(
			"retained deltas do not align on versions %d..%d", fromVersion, toVersion))
	}
	return chain, nil
}

// Len reports the number of retained deltas.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.deltas)
}
