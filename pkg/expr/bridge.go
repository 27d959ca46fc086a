package expr

import (
	"strings"

	"github.com/aretw0/pdshell/pkg/domain"
	lua "github.com/yuin/gopher-lua"
)

// installBridge exposes the "pd" table and reroutes print to the console.
func (e *Engine) installBridge() {
	pd := e.L.NewTable()
	e.L.SetField(pd, "post", e.L.NewFunction(e.luaPost))
	e.L.SetField(pd, "eval", e.L.NewFunction(e.luaEval))
	e.L.SetGlobal("pd", pd)
	e.L.SetGlobal("print", e.L.NewFunction(e.luaPrint))
}

func (e *Engine) luaPost(L *lua.LState) int {
	v := L.Get(1)
	if !lua.LVCanConvToString(v) {
		e.console.Error("pd.post requires a string argument")
		return 0
	}
	e.console.Post(lua.LVAsString(v))
	return 0
}

// luaEval runs a shell command and returns its informational lines as a Lua array.
// Error lines are forwarded to the console instead of being returned.
func (e *Engine) luaEval(L *lua.LState) int {
	v := L.Get(1)
	if !lua.LVCanConvToString(v) {
		e.console.Error("pd.eval requires a string argument")
		return 0
	}
	if e.processor == nil {
		e.console.Error("pd.eval is not bound to a shell")
		return 0
	}

	lines := e.processor.Execute(e.ctx, lua.LVAsString(v))

	out := L.NewTable()
	for _, line := range lines {
		if line.Severity == domain.SeverityInfo {
			out.Append(lua.LString(line.Text))
		} else {
			e.console.Error(line.Text)
		}
	}
	L.Push(out)
	return 1
}

func (e *Engine) luaPrint(L *lua.LState) int {
	parts := make([]string, 0, L.GetTop())
	for i := 1; i <= L.GetTop(); i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	e.console.Post(strings.Join(parts, "\t"))
	return 0
}
