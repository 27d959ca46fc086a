package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/pdshell/internal/logging"
	"github.com/aretw0/pdshell/pkg/domain"
	"github.com/aretw0/pdshell/pkg/expr"
	"github.com/aretw0/pdshell/pkg/history"
	"github.com/aretw0/pdshell/pkg/ports"
	"github.com/aretw0/pdshell/pkg/preprocess"
	"github.com/aretw0/pdshell/pkg/resolver"
)

// DefaultMaxDepth bounds re-entrant pd.eval nesting.
const DefaultMaxDepth = 32

// Engines hands out the expression engine of a session.
type Engines interface {
	Get(sessionID string) *expr.Engine
	Reset(sessionID string) *expr.Engine
}

// HelpHandler is invoked by "?" and "help". The returned lines are added to the output.
type HelpHandler func(ctx context.Context) []domain.Line

// TargetListener is notified with the new prompt label after every control command.
type TargetListener func(label string)

// Handler implements one control command.
type Handler func(ctx context.Context, req *Request)

// Request carries one command through dispatch and collects its output.
type Request struct {
	// Tokens is the tokenized command after expression substitution.
	Tokens []string

	// Canvas is the focused canvas, nil when none is open.
	Canvas ports.Canvas

	lines []domain.Line
}

// Arg returns token i, or "" when absent.
func (r *Request) Arg(i int) string {
	if i < 0 || i >= len(r.Tokens) {
		return ""
	}
	return r.Tokens[i]
}

// Info appends an informational line.
func (r *Request) Info(text string) {
	r.lines = append(r.lines, domain.Info(text))
}

// Fail appends err as an error line.
func (r *Request) Fail(err error) {
	r.lines = append(r.lines, domain.LineFromError(err))
}

// Lines returns the output collected so far.
func (r *Request) Lines() []domain.Line {
	return r.lines
}

func (r *Request) add(l domain.Line) {
	r.lines = append(r.lines, l)
}

// Dispatcher executes commands for one session against a host.
// It is not safe for concurrent use; session.Manager serializes access.
type Dispatcher struct {
	host      ports.Host
	engines   Engines
	sessionID string
	history   *history.Log
	console   ports.Console
	locator   ports.ScriptLocator
	logger    *slog.Logger
	hooks     domain.LifecycleHooks
	help      HelpHandler
	onTarget  TargetListener
	maxDepth  int

	commands map[string]Handler

	// out collects Lua console output into the top-level request.
	out          ports.Console
	depth        int
	luaBlock     bool
	resetPending bool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithSessionID sets the session whose expression engine is used.
func WithSessionID(id string) Option {
	return func(d *Dispatcher) {
		d.sessionID = id
	}
}

// WithHistory sets the history cleared by "clear".
func WithHistory(h *history.Log) Option {
	return func(d *Dispatcher) {
		d.history = h
	}
}

// WithConsole sets the session console cleared by "clear".
func WithConsole(c ports.Console) Option {
	return func(d *Dispatcher) {
		d.console = c
	}
}

// WithScriptLocator sets the search path used by "script".
func WithScriptLocator(l ports.ScriptLocator) Option {
	return func(d *Dispatcher) {
		d.locator = l
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(d *Dispatcher) {
		d.hooks = hooks
	}
}

// WithHelpHandler overrides what "?" and "help" do.
func WithHelpHandler(h HelpHandler) Option {
	return func(d *Dispatcher) {
		d.help = h
	}
}

// WithTargetListener registers the prompt label listener.
func WithTargetListener(l TargetListener) Option {
	return func(d *Dispatcher) {
		d.onTarget = l
	}
}

// WithMaxDepth bounds re-entrant nesting. Values below 1 keep the default.
func WithMaxDepth(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxDepth = n
		}
	}
}

// New creates a dispatcher bound to host, drawing expression engines from engines.
func New(host ports.Host, engines Engines, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		host:      host,
		engines:   engines,
		sessionID: "default",
		history:   history.New(),
		console:   nopConsole{},
		logger:    logging.NewNop(),
		maxDepth:  DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.help == nil {
		d.help = documentationLines
	}
	d.commands = d.commandTable()
	return d
}

// Register adds or replaces a control command.
func (d *Dispatcher) Register(name string, h Handler) {
	d.commands[name] = h
}

// Execute runs one command and returns its output. It never panics: failures in
// any stage, including panics of the host, become error lines.
func (d *Dispatcher) Execute(ctx context.Context, text string) (lines []domain.Line) {
	d.depth++
	defer func() { d.depth-- }()

	if d.depth > d.maxDepth {
		return []domain.Line{domain.LineFromError(domain.ErrDepthExceeded)}
	}

	start := time.Now()
	req := &Request{}
	kind := domain.CommandControl

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Command panicked", "command", text, "panic", r)
			req.Fail(fmt.Errorf("internal error: %v", r))
		}
		if d.depth == 1 && d.resetPending {
			d.resetPending = false
			d.engines.Reset(d.sessionID)
		}
		d.emitCommand(ctx, req, kind, time.Since(start))
		lines = req.lines
	}()

	text = strings.TrimSpace(text)
	if d.depth == 1 {
		d.luaBlock = strings.Contains(text, "\n")
	}

	// 1. Substitute embedded expressions
	if d.depth == 1 {
		d.out = requestConsole{req: req, session: d.console}
	}
	engine := d.engines.Get(d.sessionID)
	engine.Bind(d, d.out)
	pre := preprocess.New(&scriptHook{d: d, engine: engine}, req.add)
	expanded := pre.Substitute(ctx, text)

	// 2. Tokenize
	req.Tokens = Tokenize(expanded)
	if len(req.Tokens) == 0 {
		return req.lines
	}
	if canvas, ok := d.host.CurrentCanvas(); ok {
		req.Canvas = canvas
	}

	// 3. Dispatch
	if d.isControl(req) {
		d.dispatchControl(ctx, req)
		d.notifyTarget()
	} else {
		kind = domain.CommandObject
		d.sendToSelection(ctx, req)
	}

	d.logger.Debug("Command dispatched",
		"command", req.Tokens[0],
		"kind", kind,
		"depth", d.depth,
		"lines", len(req.lines))
	return req.lines
}

// requestConsole turns pd.post, print and nested pd.eval errors into lines of the
// running command, in the order they happen. Clear still reaches the session console.
type requestConsole struct {
	req     *Request
	session ports.Console
}

func (c requestConsole) Post(msg string)  { c.req.Info(msg) }
func (c requestConsole) Error(msg string) { c.req.add(domain.Error(msg)) }
func (c requestConsole) Clear()           { c.session.Clear() }

// Target returns the prompt label for the current selection.
func (d *Dispatcher) Target() string {
	canvas, ok := d.host.CurrentCanvas()
	if !ok {
		return ">"
	}
	return TargetLabel(canvas)
}

// TargetLabel renders the prompt label for a canvas selection:
// ">" for none, "<name> >" for one object and "(<n> selected) >" for several.
func TargetLabel(canvas ports.Canvas) string {
	sel := canvas.Selection()
	switch len(sel) {
	case 0:
		return ">"
	case 1:
		name, ok := resolver.Build(canvas).NameOf(sel[0].ID)
		if !ok {
			name = sel[0].Kind
		}
		return name + " >"
	default:
		return fmt.Sprintf("(%d selected) >", len(sel))
	}
}

// isControl decides between a control command and a message to the selection.
func (d *Dispatcher) isControl(req *Request) bool {
	first := req.Tokens[0]
	switch {
	case strings.HasPrefix(first, ";"):
		return true
	case first == ">" || first == "deselect" || first == "clear":
		return true
	case d.luaBlock:
		return true
	case req.Canvas == nil:
		return true
	}
	return len(req.Canvas.Selection()) == 0
}

func (d *Dispatcher) dispatchControl(ctx context.Context, req *Request) {
	if h, ok := d.commands[req.Tokens[0]]; ok {
		h(ctx, req)
		return
	}
	d.cmdFallback(ctx, req)
}

// sendToSelection sends the whole command as one message to every selected object.
func (d *Dispatcher) sendToSelection(ctx context.Context, req *Request) {
	msg, ok := domain.MessageFromTokens(req.Tokens)
	if !ok {
		return
	}
	table := resolver.Build(req.Canvas)
	for _, obj := range req.Canvas.Selection() {
		d.sendToObject(ctx, req, table, obj, msg)
	}
}

func (d *Dispatcher) sendToObject(ctx context.Context, req *Request, table *resolver.NameTable, obj domain.Object, msg domain.Message) {
	name, ok := table.NameOf(obj.ID)
	if !ok {
		name = obj.ID
	}
	err := req.Canvas.Send(obj.ID, msg)
	if err != nil {
		req.Fail(fmt.Errorf("send to %s: %w", name, err))
	}
	d.emitMessage(ctx, name, msg, err)
}

func (d *Dispatcher) notifyTarget() {
	if d.onTarget != nil {
		d.onTarget(d.Target())
	}
}

func (d *Dispatcher) emitCommand(ctx context.Context, req *Request, kind domain.CommandKind, elapsed time.Duration) {
	if d.hooks.OnCommand == nil {
		return
	}
	errs := 0
	for _, l := range req.lines {
		if l.Severity == domain.SeverityError {
			errs++
		}
	}
	d.hooks.OnCommand(ctx, &domain.CommandEvent{
		EventBase: d.eventBase(domain.EventCommand),
		Name:      req.Arg(0),
		Kind:      kind,
		Depth:     d.depth,
		Errors:    errs,
		Duration:  elapsed,
	})
}

func (d *Dispatcher) emitMessage(ctx context.Context, target string, msg domain.Message, err error) {
	if d.hooks.OnMessage == nil {
		return
	}
	d.hooks.OnMessage(ctx, &domain.MessageEvent{
		EventBase: d.eventBase(domain.EventMessage),
		Target:    target,
		Message:   msg,
		IsError:   err != nil,
	})
}

func (d *Dispatcher) emitScript(ctx context.Context, source string, err error) {
	if d.hooks.OnScript == nil {
		return
	}
	d.hooks.OnScript(ctx, &domain.ScriptEvent{
		EventBase: d.eventBase(domain.EventScript),
		Source:    source,
		IsError:   err != nil,
	})
}

func (d *Dispatcher) eventBase(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t, SessionID: d.sessionID}
}

// scriptHook reports every expression evaluation to the lifecycle hooks.
type scriptHook struct {
	d      *Dispatcher
	engine *expr.Engine
}

func (s *scriptHook) Evaluate(ctx context.Context, expression string, expectsValue bool) (expr.Result, error) {
	res, err := s.engine.Evaluate(ctx, expression, expectsValue)
	s.d.emitScript(ctx, "expression", err)
	return res, err
}

func documentationLines(context.Context) []domain.Line {
	var lines []domain.Line
	for _, l := range strings.Split(strings.TrimRight(Documentation, "\n"), "\n") {
		lines = append(lines, domain.Info(l))
	}
	return lines
}

type nopConsole struct{}

func (nopConsole) Post(string)  {}
func (nopConsole) Error(string) {}
func (nopConsole) Clear()       {}
