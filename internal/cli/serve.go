package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/pdshell"
	httpAdapter "github.com/aretw0/pdshell/pkg/adapters/http"
	"github.com/aretw0/pdshell/pkg/expr"
	"github.com/aretw0/pdshell/pkg/history"
	"github.com/aretw0/pdshell/pkg/registry"
	"github.com/aretw0/pdshell/pkg/session"
)

// ShutdownTimeout bounds the graceful shutdown of the HTTP server.
const ShutdownTimeout = 5 * time.Second

// Server bundles the HTTP handler with the state it serves.
type Server struct {
	Handler  http.Handler
	Sessions *session.Manager
	History  *history.Log

	registry *registry.Registry
}

// NewServer wires a session manager whose shells share one Lua registry and
// one history log.
func NewServer(env *Environment) *Server {
	timeout, logger := env.Config.EvalTimeout, env.Logger
	reg := registry.NewRegistry(
		registry.WithLogger(logger),
		registry.WithFactory(func(string) *expr.Engine {
			return expr.New(expr.WithLogger(logger), expr.WithTimeout(timeout))
		}),
	)
	log := env.NewHistory()

	managerOpts := []session.Option{session.WithLogger(logger)}
	if locker := env.Locker(); locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(locker))
	}
	sessions := session.NewManager(func(sessionID string) (*pdshell.Shell, error) {
		opts := append(env.ShellOptions(sessionID, log), pdshell.WithRegistry(reg))
		return pdshell.New(env.Host, opts...)
	}, managerOpts...)

	handler := httpAdapter.NewHandler(sessions,
		httpAdapter.WithHistory(log),
		httpAdapter.WithMetrics(env.Metrics.Handler()),
		httpAdapter.WithLogger(logger),
	)

	return &Server{
		Handler:  handler,
		Sessions: sessions,
		History:  log,
		registry: reg,
	}
}

// Load restores the shared history from the environment's store.
func (s *Server) Load(ctx context.Context, env *Environment) error {
	entries, err := env.Store.Load(ctx)
	if err != nil {
		return err
	}
	s.History.Replace(entries)
	return nil
}

// Close persists the shared history and releases every session.
func (s *Server) Close(ctx context.Context, env *Environment) error {
	s.Sessions.Close()
	s.registry.Close()
	return env.Store.Save(ctx, s.History.Entries())
}

// Serve handles the 'serve' command: the HTTP API until SIGINT or SIGTERM.
func Serve(opts Options) error {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return err
	}
	env, err := NewEnvironment(cfg, createServerLogger(cfg.Debug))
	if err != nil {
		return err
	}
	defer env.Close()
	env.HelpStyle = "notty"

	ctx, stop := shutdownContext(context.Background(), env.Logger)
	defer stop()

	srv := NewServer(env)
	if err := srv.Load(ctx, env); err != nil {
		env.Logger.Warn("History not loaded", "err", err)
	}

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: srv.Handler,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		env.Logger.Info("Starting pdshell server", "addr", httpSrv.Addr)
		serverErrors <- httpSrv.ListenAndServe()
	}()

	var runErr error
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		env.Logger.Info("Start shutdown")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			env.Logger.Error("Graceful shutdown did not complete", "timeout", ShutdownTimeout, "err", err)
			_ = httpSrv.Close()
		}
	}

	if err := srv.Close(context.Background(), env); err != nil {
		env.Logger.Error("History not saved", "err", err)
	}
	env.Logger.Info("pdshell server stopped")
	return runErr
}
