package expr

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/pdshell/internal/logging"
	"github.com/aretw0/pdshell/pkg/domain"
	"github.com/aretw0/pdshell/pkg/ports"
	lua "github.com/yuin/gopher-lua"
)

// CommandProcessor is the shell entry point that pd.eval re-enters.
type CommandProcessor interface {
	Execute(ctx context.Context, command string) []domain.Line
}

// hiddenGlobals are removed from the sandbox after the base library is opened.
var hiddenGlobals = []string{
	"dofile", "loadfile", "load", "loadstring", "require", "module", "collectgarbage",
}

// Engine evaluates Lua expressions for one host session.
type Engine struct {
	L         *lua.LState
	console   ports.Console
	processor CommandProcessor
	logger    *slog.Logger
	timeout   time.Duration

	// ctx is the context of the innermost running evaluation; pd.eval forwards it.
	ctx   context.Context
	depth int
}

// Option configures an Engine.
type Option func(*Engine)

// WithConsole sets the console used by pd.post and for bridge errors.
func WithConsole(c ports.Console) Option {
	return func(e *Engine) {
		e.console = c
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithTimeout bounds how long a top-level evaluation may run. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// New creates an engine with a fresh sandboxed Lua state.
func New(opts ...Option) *Engine {
	e := &Engine{
		console: discardConsole{},
		logger:  logging.NewNop(),
		ctx:     context.Background(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.L = newSandbox()
	e.installBridge()
	return e
}

func newSandbox() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	for _, name := range hiddenGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}

// Bind attaches the command processor used by pd.eval and, if non-nil, swaps the console.
// The dispatcher calls it before every evaluation.
func (e *Engine) Bind(processor CommandProcessor, console ports.Console) {
	e.processor = processor
	if console != nil {
		e.console = console
	}
}

// Evaluate runs a single expression.
//
// With expectsValue the expression is returned from an anonymous function and its value
// becomes the Result; otherwise the code runs for its side effects and the Result is
// empty text. Syntax and runtime faults are returned as *domain.ScriptError.
func (e *Engine) Evaluate(ctx context.Context, expression string, expectsValue bool) (Result, error) {
	release := e.enter(ctx)
	defer release()

	fn, err := e.L.LoadString(wrapExpression(expression, expectsValue))
	if err != nil {
		return Text(""), e.scriptError("eval", err)
	}

	e.L.Push(fn)
	if err := e.L.PCall(0, 1, nil); err != nil {
		return Text(""), e.scriptError("eval", err)
	}

	ret := e.L.Get(-1)
	e.L.Pop(1)

	if !expectsValue {
		return Text(""), nil
	}
	return resultFromValue(ret), nil
}

// RunFile executes a script file in the engine's global scope, so functions it defines
// become callable from later expressions.
func (e *Engine) RunFile(ctx context.Context, path string) error {
	release := e.enter(ctx)
	defer release()

	fn, err := e.L.LoadFile(path)
	if err != nil {
		return e.scriptError("load", err)
	}

	e.L.Push(fn)
	if err := e.L.PCall(0, 0, nil); err != nil {
		return e.scriptError("exec", err)
	}
	return nil
}

// Close releases the Lua state. The engine must not be used afterwards.
func (e *Engine) Close() {
	if e.L != nil {
		e.L.Close()
	}
}

func wrapExpression(expression string, expectsValue bool) string {
	var b strings.Builder
	b.WriteString("local __eval = function()\n")
	if expectsValue {
		b.WriteString("return ")
	}
	b.WriteString(strings.TrimSpace(expression))
	b.WriteString(`
end
local success, result = pcall(__eval)
if success then
	return result
else
	error(result, 0)
end
`)
	return b.String()
}

// enter installs ctx for the duration of one evaluation. The Lua state only carries a
// context at the outermost level; nested calls from pd.eval share it.
func (e *Engine) enter(ctx context.Context) func() {
	if ctx == nil {
		ctx = context.Background()
	}
	prev := e.ctx
	e.ctx = ctx
	e.depth++

	cancel := context.CancelFunc(func() {})
	if e.depth == 1 {
		luaCtx := ctx
		if e.timeout > 0 {
			luaCtx, cancel = context.WithTimeout(ctx, e.timeout)
		}
		e.L.SetContext(luaCtx)
	}

	return func() {
		e.depth--
		if e.depth == 0 {
			e.L.RemoveContext()
		}
		cancel()
		e.ctx = prev
	}
}

func (e *Engine) scriptError(stage string, err error) error {
	msg := err.Error()
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) && apiErr.Object != nil {
		msg = apiErr.Object.String()
	}
	e.logger.Debug("Lua evaluation failed", "stage", stage, "err", msg)
	return &domain.ScriptError{Stage: stage, Message: msg, Cause: err}
}

type discardConsole struct{}

func (discardConsole) Post(string)  {}
func (discardConsole) Error(string) {}
func (discardConsole) Clear()       {}
