package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/pdshell"
	"github.com/aretw0/pdshell/internal/logging"
	"github.com/aretw0/pdshell/pkg/dispatch"
	"github.com/aretw0/pdshell/pkg/domain"
	"github.com/aretw0/pdshell/pkg/ports"
	"github.com/aretw0/pdshell/pkg/resolver"
	"github.com/aretw0/pdshell/pkg/runner"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	HistoryURI = "pdshell://history"
	ManualURI  = "pdshell://manual"
)

// ExecuteArgs are the arguments of the execute tool.
type ExecuteArgs struct {
	Command string `json:"command"`
}

// ExecuteResponse is the structured result of the execute tool.
type ExecuteResponse struct {
	Lines  []domain.Line `json:"lines" jsonschema_description:"Output lines; severity 1 marks an error"`
	Target string        `json:"target" jsonschema_description:"Prompt label after the command"`
}

// ObjectInfo describes one addressable object of the current canvas.
type ObjectInfo struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Text     string `json:"text"`
	Selected bool   `json:"selected"`
}

// ObjectsResponse is the structured result of the list_objects tool.
type ObjectsResponse struct {
	Objects []ObjectInfo `json:"objects" jsonschema_description:"Objects in canvas order"`
}

// HistoryResponse is the structured result of the history tool.
type HistoryResponse struct {
	Entries []string `json:"entries" jsonschema_description:"Commands, most recent first"`
}

// Server exposes one shell session as an MCP server.
type Server struct {
	mu        sync.Mutex
	shell     *pdshell.Shell
	host      ports.Host
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance over shell. host is the patch the shell drives.
func NewServer(shell *pdshell.Shell, host ports.Host, opts ...Option) *Server {
	s := &Server{
		shell:     shell,
		host:      host,
		mcpServer: server.NewMCPServer("pdshell-mcp", strings.TrimSpace(pdshell.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: execute
	executeTool := mcp.NewTool("execute",
		mcp.WithDescription("Run one shell command against the open patch, e.g. 'sel tgl_1', 'ls', 'bang' or 'pd dsp 1'. Text in {braces} is evaluated as Lua first."),
		mcp.WithString("command", mcp.Required(), mcp.Description("The command line")),
		mcp.WithOutputSchema[ExecuteResponse](),
	)
	s.mcpServer.AddTool(executeTool, mcp.NewStructuredToolHandler(s.handleExecute))

	// TOOL: list_objects
	listTool := mcp.NewTool("list_objects",
		mcp.WithDescription("List the addressable objects of the current canvas with their display names."),
		mcp.WithOutputSchema[ObjectsResponse](),
	)
	s.mcpServer.AddTool(listTool, mcp.NewStructuredToolHandler(s.handleListObjects))

	// TOOL: history
	historyTool := mcp.NewTool("history",
		mcp.WithDescription("Return the command history, most recent first."),
		mcp.WithOutputSchema[HistoryResponse](),
	)
	s.mcpServer.AddTool(historyTool, mcp.NewStructuredToolHandler(s.handleHistory))
}

func (s *Server) handleExecute(ctx context.Context, request mcp.CallToolRequest, args ExecuteArgs) (ExecuteResponse, error) {
	clean, err := runner.SanitizeInput(args.Command)
	if err != nil {
		s.logger.Warn("MCP Execute: Input rejected", "err", err, "size", len(args.Command))
		return ExecuteResponse{}, fmt.Errorf("input rejected: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.shell.ExecuteComplete(ctx, clean)
	if err != nil {
		return ExecuteResponse{}, fmt.Errorf("execute failed: %w", err)
	}
	if lines == nil {
		lines = []domain.Line{}
	}
	return ExecuteResponse{Lines: lines, Target: s.shell.Target()}, nil
}

func (s *Server) handleListObjects(ctx context.Context, request mcp.CallToolRequest, _ map[string]any) (ObjectsResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	canvas, ok := s.host.CurrentCanvas()
	if !ok {
		return ObjectsResponse{}, domain.ErrNoCanvas
	}

	selected := make(map[string]bool)
	for _, obj := range canvas.Selection() {
		selected[obj.ID] = true
	}

	table := resolver.Build(canvas)
	objects := make([]ObjectInfo, 0, table.Len())
	for _, e := range table.Entries() {
		objects = append(objects, ObjectInfo{
			Name:     e.Name,
			Kind:     e.Object.Kind,
			Text:     e.Object.Text,
			Selected: selected[e.Object.ID],
		})
	}
	return ObjectsResponse{Objects: objects}, nil
}

func (s *Server) handleHistory(ctx context.Context, request mcp.CallToolRequest, _ map[string]any) (HistoryResponse, error) {
	return HistoryResponse{Entries: s.shell.History().Entries()}, nil
}

func (s *Server) registerResources() {
	// EXPOSE: pdshell://history
	s.mcpServer.AddResource(mcp.NewResource(HistoryURI, "Command History",
		mcp.WithMIMEType("application/json"),
	), s.readHistory)

	// EXPOSE: pdshell://manual
	s.mcpServer.AddResource(mcp.NewResource(ManualURI, "Shell Manual",
		mcp.WithMIMEType("text/markdown"),
	), s.readManual)
}

func (s *Server) readHistory(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	jsonBytes, err := json.Marshal(s.shell.History().Entries())
	if err != nil {
		return nil, fmt.Errorf("failed to encode history: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      HistoryURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}

func (s *Server) readManual(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	var b strings.Builder
	b.WriteString(dispatch.Documentation)
	b.WriteString("\n\n## Control commands\n\n")
	for _, name := range s.shell.Dispatcher().Commands() {
		fmt.Fprintf(&b, "- `%s`\n", name)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ManualURI,
			MIMEType: "text/markdown",
			Text:     b.String(),
		},
	}, nil
}
