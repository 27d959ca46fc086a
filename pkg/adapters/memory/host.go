package memory

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/pdshell/pkg/domain"
	"github.com/aretw0/pdshell/pkg/ports"
	"github.com/aretw0/pdshell/pkg/resolver"
)

// ErrObjectNotFound is returned when a message targets an object that is not on the canvas.
var ErrObjectNotFound = errors.New("object not found")

// Delivery records one message handed to the host.
type Delivery struct {
	// Target is an object ID, "canvas", or a global receiver name.
	Target  string         `json:"target"`
	Message domain.Message `json:"message"`
}

// Host implements ports.Host with a single optional canvas. It stands in for the
// patch engine when the shell runs standalone and in tests.
type Host struct {
	mu     sync.Mutex
	canvas *Canvas
	sent   []Delivery
	dsp    bool
}

// NewHost creates a host with no canvas open.
func NewHost() *Host {
	return &Host{}
}

// OpenCanvas opens a fresh canvas holding objects and gives it focus.
func (h *Host) OpenCanvas(objects ...domain.Object) *Canvas {
	c := NewCanvas(objects...)
	h.SetCanvas(c)
	return c
}

// SetCanvas gives focus to c. A nil canvas closes the current one.
func (h *Host) SetCanvas(c *Canvas) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.canvas = c
}

// CurrentCanvas returns the focused canvas.
func (h *Host) CurrentCanvas() (ports.Canvas, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.canvas == nil {
		return nil, false
	}
	return h.canvas, true
}

// Canvas returns the focused canvas as its concrete type, or nil.
func (h *Host) Canvas() *Canvas {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.canvas
}

// SendGlobal records a message to a named receiver. "pd dsp <n>" toggles DSP.
func (h *Host) SendGlobal(receiver string, msg domain.Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if receiver == "" {
		return fmt.Errorf("empty receiver")
	}
	if receiver == "pd" && msg.Selector == "dsp" && len(msg.Args) > 0 {
		h.dsp = msg.Args[0].Float != 0
	}
	h.sent = append(h.sent, Delivery{Target: receiver, Message: msg})
	return nil
}

// Sent returns the global messages received so far.
func (h *Host) Sent() []Delivery {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Delivery, len(h.sent))
	copy(out, h.sent)
	return out
}

// DSP reports whether audio processing was switched on.
func (h *Host) DSP() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dsp
}

// Canvas implements ports.Canvas over an ordered object list.
//
// Messages sent to the canvas itself are interpreted for dynamic patching:
// "obj x y <text>", "msg x y <text>", "floatatom x y", "symbolatom x y",
// "text x y <comment>" create objects and "clear" removes them all.
type Canvas struct {
	mu       sync.Mutex
	objects  []domain.Object
	selected map[string]bool
	inbox    []Delivery
	nextID   int
}

// NewCanvas creates a canvas holding objects. Objects without an ID get one.
func NewCanvas(objects ...domain.Object) *Canvas {
	c := &Canvas{selected: make(map[string]bool)}
	for _, obj := range objects {
		c.add(obj)
	}
	return c
}

// Add places an object on the canvas and returns it with its assigned ID.
func (c *Canvas) Add(obj domain.Object) domain.Object {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.add(obj)
}

func (c *Canvas) add(obj domain.Object) domain.Object {
	if obj.ID == "" {
		obj.ID = strconv.Itoa(c.nextID)
	}
	c.nextID++
	c.objects = append(c.objects, obj)
	return obj
}

func (c *Canvas) Objects() []domain.Object {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domain.Object, len(c.objects))
	copy(out, c.objects)
	return out
}

func (c *Canvas) Selection() []domain.Object {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []domain.Object
	for _, obj := range c.objects {
		if c.selected[obj.ID] {
			out = append(out, obj)
		}
	}
	return out
}

func (c *Canvas) SetSelected(id string, selected bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if selected {
		c.selected[id] = true
	} else {
		delete(c.selected, id)
	}
}

func (c *Canvas) DeselectAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = make(map[string]bool)
}

func (c *Canvas) Send(id string, msg domain.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, obj := range c.objects {
		if obj.ID == id {
			c.inbox = append(c.inbox, Delivery{Target: id, Message: msg})
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrObjectNotFound, id)
}

func (c *Canvas) SendToCanvas(msg domain.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.inbox = append(c.inbox, Delivery{Target: "canvas", Message: msg})

	args := make([]string, 0, len(msg.Args))
	for _, a := range msg.Args {
		args = append(args, a.String())
	}

	switch msg.Selector {
	case "obj":
		if len(args) < 3 {
			return fmt.Errorf("obj: missing object text")
		}
		text := strings.Join(args[2:], " ")
		kind := "text"
		if first := args[2]; resolver.IsGUIKind(first) {
			kind = first
		}
		c.add(domain.Object{Kind: kind, Text: text, HasGUI: true})
	case "msg":
		c.add(domain.Object{Kind: "message", Text: strings.Join(tail(args, 2), " "), HasGUI: true})
	case "text":
		c.add(domain.Object{Kind: "comment", Text: strings.Join(tail(args, 2), " "), HasGUI: true})
	case "floatatom":
		c.add(domain.Object{Kind: "floatbox", Text: "0", HasGUI: true})
	case "symbolatom":
		c.add(domain.Object{Kind: "symbolbox", Text: "symbol", HasGUI: true})
	case "clear":
		c.objects = nil
		c.selected = make(map[string]bool)
	}
	return nil
}

// Inbox returns every message delivered to objects or to the canvas, in order.
func (c *Canvas) Inbox() []Delivery {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Delivery, len(c.inbox))
	copy(out, c.inbox)
	return out
}

// Received returns the messages delivered to one object.
func (c *Canvas) Received(id string) []domain.Message {
	var out []domain.Message
	for _, d := range c.Inbox() {
		if d.Target == id {
			out = append(out, d.Message)
		}
	}
	return out
}

func tail(s []string, from int) []string {
	if from >= len(s) {
		return nil
	}
	return s[from:]
}
