package ports

import "github.com/aretw0/pdshell/pkg/domain"

// Host is the running patch engine as seen by the shell.
type Host interface {
	// CurrentCanvas returns the canvas that has focus, or false when none is open.
	CurrentCanvas() (Canvas, bool)

	// SendGlobal sends a message to a named receiver (e.g. "pd dsp 1").
	SendGlobal(receiver string, msg domain.Message) error
}

// Canvas is a single patch window.
type Canvas interface {
	// Objects returns every node in creation order.
	Objects() []domain.Object

	// Selection returns the selected nodes in creation order.
	Selection() []domain.Object

	// SetSelected changes the selection state of a node.
	SetSelected(id string, selected bool)

	// DeselectAll clears the selection.
	DeselectAll()

	// Send delivers a message directly to one node.
	Send(id string, msg domain.Message) error

	// SendToCanvas delivers a message to the canvas itself (e.g. "obj 10 10 metro 200").
	SendToCanvas(msg domain.Message) error
}
