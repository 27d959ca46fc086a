package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/aretw0/pdshell/pkg/adapters/mcp"
)

// Supported MCP transports.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// ServeMCP handles the 'mcp' command: the shell exposed as MCP tools.
func ServeMCP(opts Options, transport string) error {
	if transport != TransportStdio && transport != TransportSSE {
		return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
	}

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

	sh, err := env.NewShell("mcp")
	if err != nil {
		return err
	}
	defer sh.Close()

	ctx, stop := shutdownContext(context.Background(), env.Logger)
	defer stop()

	if err := sh.LoadHistory(ctx); err != nil {
		env.Logger.Warn("History not loaded", "err", err)
	}
	defer func() {
		if err := sh.SaveHistory(context.Background()); err != nil {
			env.Logger.Error("History not saved", "err", err)
		}
	}()

	srv := mcp.NewServer(sh, env.Host, mcp.WithLogger(env.Logger))

	switch transport {
	case TransportStdio:
		// Ensure logs don't corrupt JSON-RPC on Stdout
		log.SetOutput(os.Stderr)
		env.Logger.Info("Starting pdshell MCP server (stdio)")
		if err := srv.ServeStdio(); err != nil {
			return fmt.Errorf("MCP server execution failed: %w", err)
		}
	case TransportSSE:
		env.Logger.Info("Starting pdshell MCP server (SSE)", "port", cfg.Port)
		if err := srv.ServeSSE(ctx, cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("MCP server execution failed: %w", err)
		}
		env.Logger.Info("MCP server stopped gracefully")
	}
	return nil
}
