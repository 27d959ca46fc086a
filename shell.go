package pdshell

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/pdshell/internal/logging"
	"github.com/aretw0/pdshell/pkg/dispatch"
	"github.com/aretw0/pdshell/pkg/domain"
	"github.com/aretw0/pdshell/pkg/expr"
	"github.com/aretw0/pdshell/pkg/history"
	"github.com/aretw0/pdshell/pkg/ports"
	"github.com/aretw0/pdshell/pkg/preprocess"
	"github.com/aretw0/pdshell/pkg/registry"
)

// LuaTarget is the prompt label shown while a multi-line Lua block is being entered.
const LuaTarget = "lua >"

// Shell is the high-level entry point of the library.
// It wires the dispatcher, the expression engine registry and the history for one
// host session, and mirrors every output line to the console.
//
// A Shell is not safe for concurrent Execute calls; use session.Manager to share one.
type Shell struct {
	host       ports.Host
	dispatcher *dispatch.Dispatcher
	registry   *registry.Registry
	ownsReg    bool
	history    *history.Log
	nav        *history.Navigator
	store      ports.HistoryStore
	console    ports.Console
	locator    ports.ScriptLocator
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	help       dispatch.HelpHandler
	onTarget   dispatch.TargetListener
	maxDepth   int
	timeout    time.Duration
	sessionID  string

	mu     sync.Mutex
	target string
}

// Option defines a functional option for configuring the Shell.
type Option func(*Shell)

// WithSessionID names the host session. Sessions sharing a registry get separate Lua states.
func WithSessionID(id string) Option {
	return func(s *Shell) {
		s.sessionID = id
	}
}

// WithConsole sets where output lines and pd.post messages go.
func WithConsole(c ports.Console) Option {
	return func(s *Shell) {
		s.console = c
	}
}

// WithHistory shares a history log, typically one per process.
func WithHistory(h *history.Log) Option {
	return func(s *Shell) {
		s.history = h
	}
}

// WithHistoryStore enables LoadHistory and SaveHistory.
func WithHistoryStore(store ports.HistoryStore) Option {
	return func(s *Shell) {
		s.store = store
	}
}

// WithRegistry shares an engine registry, typically one per process.
// The Shell then does not own the registry and only removes its own engine on Close.
func WithRegistry(r *registry.Registry) Option {
	return func(s *Shell) {
		s.registry = r
	}
}

// WithScriptLocator sets the search path used by the "script" command.
func WithScriptLocator(l ports.ScriptLocator) Option {
	return func(s *Shell) {
		s.locator = l
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Shell) {
		s.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Shell) {
		s.hooks = hooks
	}
}

// WithMaxDepth bounds re-entrant pd.eval nesting.
func WithMaxDepth(n int) Option {
	return func(s *Shell) {
		s.maxDepth = n
	}
}

// WithEvalTimeout bounds a single top-level Lua evaluation.
// It applies to the registry the Shell creates itself; a shared registry decides on its own.
func WithEvalTimeout(d time.Duration) Option {
	return func(s *Shell) {
		s.timeout = d
	}
}

// WithHelpHandler overrides what "?" and "help" do.
func WithHelpHandler(h dispatch.HelpHandler) Option {
	return func(s *Shell) {
		s.help = h
	}
}

// WithTargetListener is notified whenever the prompt label changes.
func WithTargetListener(l dispatch.TargetListener) Option {
	return func(s *Shell) {
		s.onTarget = l
	}
}

// New creates a shell for host.
func New(host ports.Host, opts ...Option) (*Shell, error) {
	if host == nil {
		return nil, fmt.Errorf("host is required")
	}

	s := &Shell{
		host:      host,
		sessionID: "default",
		target:    ">",
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	s.logger = s.logger.With("session_id", s.sessionID)

	if s.console == nil {
		s.console = discardConsole{}
	}
	if s.history == nil {
		s.history = history.New()
	}
	s.nav = history.NewNavigator(s.history)

	if s.registry == nil {
		timeout, logger := s.timeout, s.logger
		s.registry = registry.NewRegistry(
			registry.WithLogger(logger),
			registry.WithFactory(func(string) *expr.Engine {
				return expr.New(expr.WithLogger(logger), expr.WithTimeout(timeout))
			}),
		)
		s.ownsReg = true
	}

	dispatchOpts := []dispatch.Option{
		dispatch.WithSessionID(s.sessionID),
		dispatch.WithHistory(s.history),
		dispatch.WithConsole(s.console),
		dispatch.WithScriptLocator(s.locator),
		dispatch.WithLogger(s.logger),
		dispatch.WithLifecycleHooks(s.hooks),
		dispatch.WithMaxDepth(s.maxDepth),
		dispatch.WithTargetListener(s.setTarget),
	}
	if s.help != nil {
		dispatchOpts = append(dispatchOpts, dispatch.WithHelpHandler(s.help))
	}
	s.dispatcher = dispatch.New(host, s.registry, dispatchOpts...)
	s.target = s.dispatcher.Target()

	return s, nil
}

// SessionID returns the host session this shell serves.
func (s *Shell) SessionID() string {
	return s.sessionID
}

// Dispatcher exposes the underlying dispatcher, e.g. to register extra commands.
func (s *Shell) Dispatcher() *dispatch.Dispatcher {
	return s.dispatcher
}

// History returns the history log.
func (s *Shell) History() *history.Log {
	return s.history
}

// Execute runs one complete command. Every output line is also written to the console,
// and the command is recorded in the history.
func (s *Shell) Execute(ctx context.Context, text string) []domain.Line {
	lines := s.dispatcher.Execute(ctx, text)

	for _, l := range lines {
		if l.Severity == domain.SeverityError {
			s.console.Error(l.Text)
		} else {
			s.console.Post(l.Text)
		}
	}

	if s.history.Push(text) {
		s.nav.Reset()
	}
	s.setTarget(s.dispatcher.Target())
	return lines
}

// Submit is the entry point for interactive input. While text still has an open '{',
// nothing runs, the prompt switches to "lua >" and complete is false.
func (s *Shell) Submit(ctx context.Context, text string) (lines []domain.Line, complete bool) {
	if preprocess.CountBraces(text) > 0 {
		s.setTarget(LuaTarget)
		return nil, false
	}
	return s.Execute(ctx, text), true
}

// ExecuteComplete is like Submit but reports incomplete input as domain.ErrIncomplete.
func (s *Shell) ExecuteComplete(ctx context.Context, text string) ([]domain.Line, error) {
	lines, complete := s.Submit(ctx, text)
	if !complete {
		return nil, domain.ErrIncomplete
	}
	return lines, nil
}

// Target returns the current prompt label.
func (s *Shell) Target() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

// HistoryOlder recalls the previous command.
func (s *Shell) HistoryOlder() string {
	return s.recall(s.nav.Older())
}

// HistoryNewer recalls the next command, or "" past the most recent one.
func (s *Shell) HistoryNewer() string {
	return s.recall(s.nav.Newer())
}

func (s *Shell) recall(cmd string) string {
	if strings.Contains(cmd, "\n") {
		s.setTarget(LuaTarget)
	} else {
		s.setTarget(s.dispatcher.Target())
	}
	return cmd
}

// Reset discards the session's Lua state and the history position.
func (s *Shell) Reset() {
	s.registry.Reset(s.sessionID)
	s.nav.Reset()
	s.setTarget(s.dispatcher.Target())
}

// LoadHistory replaces the history with the persisted one.
func (s *Shell) LoadHistory(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	entries, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	s.history.Replace(entries)
	s.nav.Reset()
	return nil
}

// SaveHistory persists the history.
func (s *Shell) SaveHistory(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Save(ctx, s.history.Entries()); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	return nil
}

// Close releases the session's Lua state.
func (s *Shell) Close() {
	if s.ownsReg {
		s.registry.Close()
		return
	}
	s.registry.Remove(s.sessionID)
}

func (s *Shell) setTarget(label string) {
	s.mu.Lock()
	changed := s.target != label
	s.target = label
	s.mu.Unlock()

	if changed && s.onTarget != nil {
		s.onTarget(label)
	}
}

type discardConsole struct{}

func (discardConsole) Post(string)  {}
func (discardConsole) Error(string) {}
func (discardConsole) Clear()       {}
