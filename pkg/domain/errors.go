package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID is unknown to the manager.
var ErrSessionNotFound = errors.New("session not found")

// ErrIncomplete is returned when submitted text still has an open '{' and needs more lines.
var ErrIncomplete = errors.New("incomplete expression")

// ErrNoCanvas is returned by hosts that have no canvas open.
var ErrNoCanvas = errors.New("No canvas open")

// ErrDepthExceeded is returned when re-entrant evaluation nests too deeply.
var ErrDepthExceeded = errors.New("Maximum command nesting depth exceeded")

// ScriptError reports a syntax or runtime fault in embedded Lua code.
type ScriptError struct {
	// Stage is "eval" for inline expressions, "load" or "exec" for script files.
	Stage   string
	Message string
	Cause   error
}

func (e *ScriptError) Error() string {
	switch e.Stage {
	case "load":
		return "Error loading Lua script: " + e.Message
	case "exec":
		return "Error executing Lua script: " + e.Message
	default:
		return "Lua error: " + e.Message
	}
}

func (e *ScriptError) Unwrap() error { return e.Cause }

// SyntaxError reports an unmatched brace in command text.
type SyntaxError struct {
	Offset int
}

func (e *SyntaxError) Error() string {
	return "Unmatched '{' in expression"
}

// ResolutionError reports an object name or index that does not resolve on the canvas.
type ResolutionError struct {
	Name  string
	Index int
}

func (e *ResolutionError) Error() string {
	if e.Name == "" {
		return "Object index out of bounds"
	}
	return "No object found for: " + e.Name
}

// ArgumentError reports malformed arguments to a shell command.
type ArgumentError struct {
	Command string
	Reason  string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Command, e.Reason)
}

// LineFromError converts any error into an error line.
func LineFromError(err error) Line {
	return Error(err.Error())
}
