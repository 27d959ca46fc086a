package registry

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/aretw0/pdshell/internal/logging"
	"github.com/aretw0/pdshell/pkg/expr"
)

// Factory builds a fresh engine for a session.
type Factory func(sessionID string) *expr.Engine

// Registry owns one expression engine per host session.
// It replaces a process-global map: the application root creates it and injects it
// into every shell.
type Registry struct {
	mu      sync.RWMutex
	engines map[string]*expr.Engine
	factory Factory
	logger  *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithFactory overrides how engines are built.
func WithFactory(f Factory) Option {
	return func(r *Registry) {
		r.factory = f
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		engines: make(map[string]*expr.Engine),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.factory == nil {
		r.factory = func(string) *expr.Engine { return expr.New(expr.WithLogger(r.logger)) }
	}
	return r
}

// Get returns the session's engine, creating it on first use.
func (r *Registry) Get(sessionID string) *expr.Engine {
	r.mu.RLock()
	e, ok := r.engines[sessionID]
	r.mu.RUnlock()
	if ok {
		return e
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock
	if e, ok := r.engines[sessionID]; ok {
		return e
	}
	e = r.factory(sessionID)
	r.engines[sessionID] = e
	return e
}

// Reset discards the session's engine and returns a fresh one.
// Globals defined in the old engine are gone.
func (r *Registry) Reset(sessionID string) *expr.Engine {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.engines[sessionID]; ok {
		old.Close()
	}
	e := r.factory(sessionID)
	r.engines[sessionID] = e
	r.logger.Debug("Expression engine reset", "session_id", sessionID)
	return e
}

// Remove closes and forgets the session's engine.
func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.engines[sessionID]; ok {
		e.Close()
		delete(r.engines, sessionID)
	}
}

// Sessions lists the sessions that currently own an engine, sorted.
func (r *Registry) Sessions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.engines))
	for id := range r.engines {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close releases every engine.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, e := range r.engines {
		e.Close()
		delete(r.engines, id)
	}
}
