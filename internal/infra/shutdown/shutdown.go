// Package shutdown coordinates graceful termination of the sync server.
//
// The server registers cleanup hooks (HTTP listener drain, storage engine
// close) and blocks on Wait until SIGINT or SIGTERM arrives. Hooks then run
// in reverse registration order under a shared deadline, so the listener
// stops accepting before the action logs are closed.
//
// @design DS-0501
package shutdown

import (
	"context"
	"errors"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Handler runs registered cleanup hooks when the process is asked to stop.
type Handler struct {
	timeout time.Duration

	mu    sync.Mutex
	hooks []func(context.Context) error

	once sync.Once
	done chan struct{}
}

// NewHandler creates a handler. timeout bounds the total time the hooks get
// once shutdown starts.
func NewHandler(timeout time.Duration) *Handler {
	return &Handler{
		timeout: timeout,
		done:    make(chan struct{}),
	}
}

// OnShutdown registers a cleanup hook. Hooks run in reverse registration
// order, so register dependencies before their dependents.
func (h *Handler) OnShutdown(hook func(context.Context) error) {
	h.mu.Lock()
	h.hooks = append(h.hooks, hook)
	h.mu.Unlock()
}

// Wait blocks until SIGINT or SIGTERM, then runs the hooks. It returns the
// joined errors of every hook that failed.
func (h *Handler) Wait() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	return h.Trigger()
}

// Trigger runs the hooks immediately, without waiting for a signal.
func (h *Handler) Trigger() error {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	h.mu.Lock()
	hooks := make([]func(context.Context) error, len(h.hooks))
	copy(hooks, h.hooks)
	h.mu.Unlock()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}

	h.once.Do(func() { close(h.done) })
	return errors.Join(errs...)
}

// Done is closed once the hooks have run.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}
