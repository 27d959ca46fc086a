package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/pdshell/pkg/domain"
)

// LogHooks returns lifecycle hooks that write every event to logger at debug level,
// and failed messages at warn level.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnCommand: func(ctx context.Context, e *domain.CommandEvent) {
			logger.DebugContext(ctx, "command",
				"session_id", e.SessionID,
				"name", e.Name,
				"kind", e.Kind,
				"depth", e.Depth,
				"errors", e.Errors,
				"duration", e.Duration,
			)
		},
		OnMessage: func(ctx context.Context, e *domain.MessageEvent) {
			level := slog.LevelDebug
			if e.IsError {
				level = slog.LevelWarn
			}
			logger.Log(ctx, level, "message",
				"session_id", e.SessionID,
				"target", e.Target,
				"message", e.Message.String(),
			)
		},
		OnScript: func(ctx context.Context, e *domain.ScriptEvent) {
			logger.DebugContext(ctx, "lua",
				"session_id", e.SessionID,
				"source", e.Source,
				"is_error", e.IsError,
			)
		},
	}
}

// Combine chains hook sets; every non-nil callback runs in order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		h := h
		if h.OnCommand != nil {
			prev := out.OnCommand
			out.OnCommand = func(ctx context.Context, e *domain.CommandEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnCommand(ctx, e)
			}
		}
		if h.OnMessage != nil {
			prev := out.OnMessage
			out.OnMessage = func(ctx context.Context, e *domain.MessageEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnMessage(ctx, e)
			}
		}
		if h.OnScript != nil {
			prev := out.OnScript
			out.OnScript = func(ctx context.Context, e *domain.ScriptEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnScript(ctx, e)
			}
		}
	}
	return out
}
