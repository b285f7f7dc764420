package service

import (
	"sort"

	"github.com/yndnr/tablesync-go/internal/core/domain"
	"github.com/yndnr/tablesync-go/pkg/cmap"
)

// EngineFactory builds the storage wiring for a new session engine.
type EngineFactory func(sessionID string) (EngineConfig, error)

// Registry maps session IDs to their engines. It is safe for concurrent use.
//
// @design DS-0202
type Registry struct {
	engines *cmap.Map[*Engine]
	factory EngineFactory
}

// NewRegistry creates a registry. The factory is invoked once per created
// session; a nil factory yields engines with no history or action log.
func NewRegistry(factory EngineFactory) *Registry {
	if factory == nil {
		factory = func(string) (EngineConfig, error) { return EngineConfig{}, nil }
	}
	return &Registry{
		engines: cmap.New[*Engine](),
		factory: factory,
	}
}

// CreateSession registers an engine under a freshly generated session ID.
func (r *Registry) CreateSession() (*Engine, error) {
	id, err := domain.GenerateSessionID()
	if err != nil {
		return nil, domain.ErrInternalServer.WithCause(err)
	}
	return r.createEngine(id)
}

// CreateSessionWithID registers an engine under a caller-chosen session ID.
// It fails with ErrSessionConflict when the ID is already registered.
func (r *Registry) CreateSessionWithID(sessionID string) (*Engine, error) {
	sessionID = domain.NormalizeSessionID(sessionID)
	if !domain.IsValidSessionID(sessionID) {
		return nil, domain.ErrInvalidArgument.WithDetails("session ID " + sessionID + " is not valid")
	}
	return r.createEngine(sessionID)
}

func (r *Registry) createEngine(sessionID string) (*Engine, error) {
	cfg, err := r.factory(sessionID)
	if err != nil {
		return nil, err
	}
	engine, err := NewEngine(sessionID, cfg)
	if err != nil {
		return nil, err
	}
	if !r.engines.SetIfAbsent(sessionID, engine) {
		return nil, domain.ErrSessionConflict.WithDetails("session " + sessionID + " already exists")
	}
	return engine, nil
}

// Get returns the engine for a session.
func (r *Registry) Get(sessionID string) (*Engine, error) {
	engine, ok := r.engines.Get(domain.NormalizeSessionID(sessionID))
	if !ok {
		return nil, domain.ErrSessionNotFound.WithDetails("session " + sessionID + " is not registered")
	}
	return engine, nil
}

// List returns all registered engines sorted by session ID.
func (r *Registry) List() []*Engine {
	engines := r.engines.Values()
	sort.Slice(engines, func(i, j int) bool { return engines[i].ID() < engines[j].ID() })
	return engines
}

// Count reports the number of registered sessions.
func (r *Registry) Count() int {
	return r.engines.Count()
}

// Remove unregisters a session and returns its engine.
func (r *Registry) Remove(sessionID string) (*Engine, error) {
	engine, ok := r.engines.Pop(domain.NormalizeSessionID(sessionID))
	if !ok {
		return nil, domain.ErrSessionNotFound.WithDetails("session " + sessionID + " is not registered")
	}
	return engine, nil
}
