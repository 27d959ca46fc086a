package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/aretw0/pdshell"
	"github.com/aretw0/pdshell/internal/logging"
	"github.com/aretw0/pdshell/pkg/domain"
	"github.com/aretw0/pdshell/pkg/history"
	"github.com/aretw0/pdshell/pkg/runner"
	"github.com/aretw0/pdshell/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Server exposes shell sessions over HTTP.
type Server struct {
	Sessions *session.Manager
	History  *history.Log
	Streams  *StreamManager
	Metrics  http.Handler
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithHistory exposes a history log under /history. Pass the log the session shells
// record into.
func WithHistory(h *history.Log) Option {
	return func(s *Server) {
		s.History = h
	}
}

// WithMetrics mounts a metrics handler under /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.Metrics = h
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// LineDTO is the wire form of an output line.
type LineDTO struct {
	Severity string `json:"severity"`
	Text     string `json:"text"`
}

// ExecuteRequest is the body of POST /sessions/{id}/execute.
type ExecuteRequest struct {
	Command string `json:"command"`
}

// ExecuteResponse carries the output of one command and the new prompt label.
type ExecuteResponse struct {
	Lines  []LineDTO `json:"lines"`
	Target string    `json:"target"`
}

// NewHandler creates the HTTP handler for the session manager.
func NewHandler(sessions *session.Manager, opts ...Option) http.Handler {
	s := &Server{
		Sessions: sessions,
		Streams:  NewStreamManager(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	if s.History == nil {
		s.History = history.New()
	}

	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.CreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Delete("/", s.DeleteSession)
			r.Post("/execute", s.Execute)
			r.Get("/target", s.GetTarget)
			r.Get("/events", s.SubscribeEvents)
		})
	})

	r.Route("/history", func(r chi.Router) {
		r.Get("/", s.ListHistory)
		r.Delete("/", s.ClearHistory)
		r.Get("/{index}", s.GetHistoryEntry)
	})

	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "pdshell-http",
		"version": strings.TrimSpace(pdshell.Version),
	})
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string][]string{"sessions": s.Sessions.List()})
}

// CreateSession handles POST /sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	sh, err := s.Sessions.Open(r.Context(), id)
	if err != nil {
		http.Error(w, fmt.Sprintf("Create session error: %v", err), http.StatusInternalServerError)
		s.logger.Error("CreateSession failed", "err", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{
		"session_id": id,
		"target":     sh.Target(),
	})
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Sessions.Delete(r.Context(), id); err != nil {
		s.writeSessionError(w, "Delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Execute handles POST /sessions/{id}/execute.
func (s *Server) Execute(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("Execute: Invalid request body", "err", err)
		return
	}

	// Sanitize Input (Global Policy)
	command, err := runner.SanitizeInput(body.Command)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid input: %v", err), http.StatusBadRequest)
		s.logger.Warn("Execute: Input rejected", "err", err, "size", len(body.Command))
		return
	}

	lines, err := s.Sessions.Execute(r.Context(), id, command)
	if err != nil {
		if errors.Is(err, domain.ErrIncomplete) {
			http.Error(w, "Incomplete input: unbalanced '{'", http.StatusUnprocessableEntity)
			return
		}
		s.writeSessionError(w, "Execute", err)
		return
	}
	target, _ := s.Sessions.Target(id)
	resp := ExecuteResponse{Lines: linesToDTO(lines), Target: target}

	if len(lines) > 0 {
		if payload, err := json.Marshal(resp.Lines); err == nil {
			s.Streams.Broadcast(id, string(payload))
		}
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// GetTarget handles GET /sessions/{id}/target.
func (s *Server) GetTarget(w http.ResponseWriter, r *http.Request) {
	target, err := s.Sessions.Target(chi.URLParam(r, "id"))
	if err != nil {
		s.writeSessionError(w, "GetTarget", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"target": target})
}

// ListHistory handles GET /history.
func (s *Server) ListHistory(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string][]string{"entries": s.History.Entries()})
}

// GetHistoryEntry handles GET /history/{index}. Index 0 is the most recent command.
func (s *Server) GetHistoryEntry(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 || index >= s.History.Len() {
		http.Error(w, "History entry not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"index":   index,
		"command": s.History.At(index),
	})
}

// ClearHistory handles DELETE /history.
func (s *Server) ClearHistory(w http.ResponseWriter, r *http.Request) {
	s.History.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeSessionError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, domain.ErrSessionNotFound) {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	http.Error(w, fmt.Sprintf("%s error: %v", op, err), http.StatusInternalServerError)
	s.logger.Error(op+" failed", "err", err)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}

func linesToDTO(lines []domain.Line) []LineDTO {
	res := make([]LineDTO, len(lines))
	for i, l := range lines {
		res[i] = LineDTO{Severity: l.Severity.String(), Text: l.Text}
	}
	return res
}
