package cli

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/pdshell"
	"github.com/aretw0/pdshell/internal/config"
	"github.com/aretw0/pdshell/internal/presentation/tui"
	"github.com/aretw0/pdshell/pkg/adapters/file"
	"github.com/aretw0/pdshell/pkg/adapters/memory"
	"github.com/aretw0/pdshell/pkg/adapters/redis"
	"github.com/aretw0/pdshell/pkg/domain"
	"github.com/aretw0/pdshell/pkg/history"
	"github.com/aretw0/pdshell/pkg/observability"
	"github.com/aretw0/pdshell/pkg/persistence/middleware"
	"github.com/aretw0/pdshell/pkg/ports"
	"github.com/aretw0/pdshell/pkg/runner"
)

// Environment holds the adapters a subcommand wires into its shells.
type Environment struct {
	Config  *config.Config
	Logger  *slog.Logger
	Host    *memory.Host
	Locator *file.SearchPath
	Store   ports.HistoryStore
	Metrics *observability.Metrics

	// HelpStyle is the glamour style of the manual. Empty detects the terminal.
	HelpStyle string

	redis *redis.HistoryStore
}

// NewEnvironment builds the host, the stores and the hooks described by cfg.
func NewEnvironment(cfg *config.Config, logger *slog.Logger) (*Environment, error) {
	if logger == nil {
		logger = createLogger(cfg.Debug)
	}

	env := &Environment{
		Config:  cfg,
		Logger:  logger,
		Host:    memory.NewHost(),
		Locator: file.NewSearchPath(cfg.SearchPaths...),
		Metrics: observability.NewMetrics(),
	}

	// 1. Host: a patch fixture, or an empty canvas
	if cfg.Patch != "" {
		if _, err := env.Host.LoadPatch(cfg.Patch); err != nil {
			return nil, err
		}
		logger.Info("Patch loaded", "path", cfg.Patch)
	} else {
		env.Host.OpenCanvas()
	}

	// 2. History persistence
	if cfg.RedisURL != "" {
		opts := []redis.Option{redis.WithPrefix(cfg.RedisPrefix)}
		if cfg.RedisTTL > 0 {
			opts = append(opts, redis.WithTTL(cfg.RedisTTL))
		}
		store, err := redis.New(cfg.RedisURL, opts...)
		if err != nil {
			return nil, fmt.Errorf("error initializing redis: %w", err)
		}
		env.redis = store
		env.Store = store
		logger.Info("Using redis history", "prefix", cfg.RedisPrefix)
	} else {
		env.Store = file.NewHistoryStore(cfg.HistoryFile)
	}
	if cfg.HistoryKey != "" {
		key, err := middleware.ParseKey(cfg.HistoryKey)
		if err != nil {
			return nil, fmt.Errorf("invalid history_key: %w", err)
		}
		encrypt, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			return nil, err
		}
		env.Store = encrypt(env.Store)
	}

	// 3. Input limits
	if cfg.MaxInputSize > 0 {
		runner.DefaultMaxInputSize = cfg.MaxInputSize
	}

	return env, nil
}

// Locker returns the distributed session locker, or nil without Redis.
func (e *Environment) Locker() ports.DistributedLocker {
	if e.redis == nil {
		return nil
	}
	return redis.NewLocker(e.redis.Client(), e.Config.RedisPrefix)
}

// Hooks records metrics and, in debug mode, logs every event.
func (e *Environment) Hooks() domain.LifecycleHooks {
	hooks := e.Metrics.Hooks()
	if e.Config.Debug {
		hooks = observability.Combine(hooks, observability.LogHooks(e.Logger))
	}
	return hooks
}

// NewHistory creates an empty log bounded by the configured limit.
func (e *Environment) NewHistory() *history.Log {
	return history.New(history.WithLimit(e.Config.HistoryLimit))
}

// ShellOptions returns the options shared by every shell of the environment.
func (e *Environment) ShellOptions(sessionID string, log *history.Log) []pdshell.Option {
	return []pdshell.Option{
		pdshell.WithSessionID(sessionID),
		pdshell.WithLogger(e.Logger),
		pdshell.WithHistory(log),
		pdshell.WithHistoryStore(e.Store),
		pdshell.WithScriptLocator(e.Locator),
		pdshell.WithLifecycleHooks(e.Hooks()),
		pdshell.WithMaxDepth(e.Config.MaxDepth),
		pdshell.WithEvalTimeout(e.Config.EvalTimeout),
		pdshell.WithHelpHandler(tui.HelpHandler(tui.NewRenderer(e.HelpStyle))),
	}
}

// NewShell creates a standalone shell with its own history.
func (e *Environment) NewShell(sessionID string, extra ...pdshell.Option) (*pdshell.Shell, error) {
	opts := append(e.ShellOptions(sessionID, e.NewHistory()), extra...)
	sh, err := pdshell.New(e.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing shell: %w", err)
	}
	return sh, nil
}

// Close releases the Redis connection, if any.
func (e *Environment) Close() error {
	if e.redis != nil {
		return e.redis.Close()
	}
	return nil
}
