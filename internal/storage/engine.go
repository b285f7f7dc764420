package storage

import (
	"errors"

	"github.com/yndnr/tablesync-go/internal/core/domain"
	"github.com/yndnr/tablesync-go/internal/core/service"
	"github.com/yndnr/tablesync-go/internal/storage/actionlog"
	"github.com/yndnr/tablesync-go/internal/storage/memory"
	"github.com/yndnr/tablesync-go/pkg/cmap"
)

// Config configures the storage engine.
type Config struct {
	// DataDir is the directory for durable action logs. Empty keeps action
	// logs in memory only.
	DataDir string

	// HistoryRetention is the number of deltas retained per session.
	// Non-positive takes memory.DefaultRetention.
	HistoryRetention int
}

// Engine creates and tracks the storage backends of registered sessions.
type Engine struct {
	cfg  Config
	logs *cmap.Map[*actionlog.Log]
}

// NewEngine creates a storage engine.
func NewEngine(cfg Config) *Engine {
	return &Engine{
		cfg:  cfg,
		logs: cmap.New[*actionlog.Log](),
	}
}

// ForSession builds the history and action log of one session. File-backed
// logs are tracked so Close can release them.
func (e *Engine) ForSession(sessionID string) (service.HistoryStore, service.ActionStore, error) {
	history := memory.NewHistory(e.cfg.HistoryRetention)
	if e.cfg.DataDir == "" {
		return history, memory.NewActionLog(), nil
	}
	log, err := actionlog.Open(e.cfg.DataDir, sessionID)
	if err != nil {
		return nil, nil, err
	}
	e.logs.Set(sessionID, log)
	return history, log, nil
}

// Release closes and forgets the action log of a removed session. The log
// file stays on disk.
func (e *Engine) Release(sessionID string) error {
	log, ok := e.logs.Pop(sessionID)
	if !ok {
		return nil
	}
	return log.Close()
}

// Close releases every tracked action log.
func (e *Engine) Close() error {
	var errs []error
	for _, log := range e.logs.Values() {
		if err := log.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	e.logs.Clear()
	if len(errs) > 0 {
		return domain.ErrStorageError.WithCause(errors.Join(errs...))
	}
	return nil
}
