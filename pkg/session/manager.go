package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"log/slog"

	"github.com/aretw0/pdshell"
	"github.com/aretw0/pdshell/internal/logging"
	"github.com/aretw0/pdshell/pkg/domain"
	"github.com/aretw0/pdshell/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed session lock is held.
const DefaultLockTTL = 30 * time.Second

// Factory builds the shell of a new session.
type Factory func(sessionID string) (*pdshell.Shell, error)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager owns one Shell per session and serializes the commands sent to each.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	factory Factory

	mu    sync.Mutex            // Global lock for the lock map
	locks map[string]*lockEntry // Map of active locks

	shellsMu sync.Mutex
	shells   map[string]*pdshell.Shell

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger // Logger for internal events (like deferred errors)
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides the distributed lock TTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a session manager that builds shells with factory.
func NewManager(factory Factory, opts ...Option) *Manager {
	m := &Manager{
		factory: factory,
		locks:   make(map[string]*lockEntry),
		shells:  make(map[string]*pdshell.Shell),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return // Should not happen if paired correctly
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Open returns the shell of a session, creating it on first use.
func (m *Manager) Open(ctx context.Context, sessionID string) (*pdshell.Shell, error) {
	var sh *pdshell.Shell
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		sh, err = m.openLocked(sessionID)
		return err
	})
	return sh, err
}

func (m *Manager) openLocked(sessionID string) (*pdshell.Shell, error) {
	m.shellsMu.Lock()
	defer m.shellsMu.Unlock()

	if sh, ok := m.shells[sessionID]; ok {
		return sh, nil
	}
	sh, err := m.factory(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session %s: %w", sessionID, err)
	}
	m.shells[sessionID] = sh
	m.logger.Debug("Session opened", "session_id", sessionID)
	return sh, nil
}

// Get returns an existing shell.
func (m *Manager) Get(sessionID string) (*pdshell.Shell, error) {
	m.shellsMu.Lock()
	defer m.shellsMu.Unlock()

	sh, ok := m.shells[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return sh, nil
}

// Execute submits a command to an existing session while holding its lock.
// Incomplete input (an open '{') yields domain.ErrIncomplete.
func (m *Manager) Execute(ctx context.Context, sessionID, text string) ([]domain.Line, error) {
	var lines []domain.Line
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		sh, err := m.Get(sessionID)
		if err != nil {
			return err
		}
		lines, err = sh.ExecuteComplete(ctx, text)
		return err
	})
	return lines, err
}

// Target returns the prompt label of a session.
func (m *Manager) Target(sessionID string) (string, error) {
	sh, err := m.Get(sessionID)
	if err != nil {
		return "", err
	}
	return sh.Target(), nil
}

// Delete closes the session's shell and forgets it.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		m.shellsMu.Lock()
		defer m.shellsMu.Unlock()

		sh, ok := m.shells[sessionID]
		if !ok {
			return domain.ErrSessionNotFound
		}
		sh.Close()
		delete(m.shells, sessionID)
		return nil
	})
}

// List returns the open sessions, sorted.
func (m *Manager) List() []string {
	m.shellsMu.Lock()
	defer m.shellsMu.Unlock()

	ids := make([]string, 0, len(m.shells))
	for id := range m.shells {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close closes every shell.
func (m *Manager) Close() {
	m.shellsMu.Lock()
	defer m.shellsMu.Unlock()

	for id, sh := range m.shells {
		sh.Close()
		delete(m.shells, id)
	}
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	// Distributed Locking
	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
