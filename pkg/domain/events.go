package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventCommand EventType = "command"
	EventMessage EventType = "message"
	EventScript  EventType = "script"
)

// CommandKind tells which branch a command was dispatched through.
type CommandKind string

const (
	CommandControl CommandKind = "control"
	CommandObject  CommandKind = "object"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// CommandEvent is emitted once per dispatched command.
type CommandEvent struct {
	EventBase
	Name     string        `json:"name"`
	Kind     CommandKind   `json:"kind"`
	Depth    int           `json:"depth"`
	Errors   int           `json:"errors"`
	Duration time.Duration `json:"duration"`
}

// MessageEvent is emitted for every message sent to the patch.
type MessageEvent struct {
	EventBase
	// Target is an object display name, "canvas", or a global receiver symbol.
	Target  string  `json:"target"`
	Message Message `json:"message"`
	IsError bool    `json:"is_error,omitempty"`
}

// ScriptEvent is emitted for every Lua evaluation.
type ScriptEvent struct {
	EventBase
	Source  string `json:"source"` // "expression" or a script path
	IsError bool   `json:"is_error,omitempty"`
}

// LifecycleHooks defines callbacks for shell observability.
type LifecycleHooks struct {
	OnCommand func(context.Context, *CommandEvent)
	OnMessage func(context.Context, *MessageEvent)
	OnScript  func(context.Context, *ScriptEvent)
}
