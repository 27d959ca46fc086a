package dispatch

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/aretw0/pdshell/pkg/domain"
	"github.com/aretw0/pdshell/pkg/resolver"
)

var errScriptNotFound = errors.New("Script not found")

// commandTable maps every control command name, aliases included, to its handler.
func (d *Dispatcher) commandTable() map[string]Handler {
	return map[string]Handler{
		"sel":      d.cmdSelect,
		"select":   d.cmdSelect,
		">":        d.cmdDeselect,
		"deselect": d.cmdDeselect,
		"ls":       d.cmdList,
		"list":     d.cmdList,
		"find":     d.cmdFind,
		"search":   d.cmdFind,
		"reset":    d.cmdReset,
		"clear":    d.cmdClear,
		"cnv":      d.cmdCanvas,
		"canvas":   d.cmdCanvas,
		"script":   d.cmdScript,
		"man":      d.cmdManual,
		"?":        d.cmdHelp,
		"help":     d.cmdHelp,
	}
}

// Commands lists the registered control command names, aliases included, sorted.
func (d *Dispatcher) Commands() []string {
	return slices.Sorted(maps.Keys(d.commands))
}

func (d *Dispatcher) cmdSelect(_ context.Context, req *Request) {
	if req.Canvas == nil {
		req.Fail(domain.ErrNoCanvas)
		return
	}
	arg := req.Arg(1)
	if arg == "" {
		req.Fail(&domain.ArgumentError{Command: req.Arg(0), Reason: "usage: " + req.Arg(0) + " <id> or <index>"})
		return
	}

	if isIndex(arg) {
		objects := req.Canvas.Objects()
		index, err := strconv.Atoi(arg)
		if err != nil || index >= len(objects) {
			req.Fail(&domain.ResolutionError{Index: index})
			return
		}
		req.Canvas.DeselectAll()
		req.Canvas.SetSelected(objects[index].ID, true)
		return
	}

	objects := resolver.Resolve(req.Canvas, arg)
	if len(objects) == 0 {
		req.Fail(&domain.ResolutionError{Name: arg})
		return
	}
	for _, obj := range objects {
		req.Canvas.SetSelected(obj.ID, true)
	}
}

func (d *Dispatcher) cmdDeselect(_ context.Context, req *Request) {
	if req.Canvas != nil {
		req.Canvas.DeselectAll()
	}
}

func (d *Dispatcher) cmdList(_ context.Context, req *Request) {
	if req.Canvas == nil {
		req.Fail(domain.ErrNoCanvas)
		return
	}
	for _, e := range resolver.Build(req.Canvas).Entries() {
		req.Info(formatEntry(e))
	}
}

func (d *Dispatcher) cmdFind(_ context.Context, req *Request) {
	if req.Canvas == nil {
		req.Fail(domain.ErrNoCanvas)
		return
	}
	query := strings.TrimRight(req.Arg(1), "*")
	for _, e := range resolver.Build(req.Canvas).Entries() {
		if strings.Contains(e.Object.Text, query) || strings.Contains(e.Name, query) {
			req.Info(formatEntry(e))
		}
	}
}

// cmdReset replaces the session's Lua state. Called from inside Lua, the reset is
// deferred until the outermost command returns, since the running state is still in use.
func (d *Dispatcher) cmdReset(context.Context, *Request) {
	if d.depth > 1 {
		d.resetPending = true
		return
	}
	d.engines.Reset(d.sessionID)
}

func (d *Dispatcher) cmdClear(_ context.Context, req *Request) {
	d.history.Clear()
	d.console.Clear()
	if req.Canvas != nil {
		req.Canvas.DeselectAll()
	}
}

func (d *Dispatcher) cmdCanvas(ctx context.Context, req *Request) {
	if req.Canvas == nil {
		req.Fail(domain.ErrNoCanvas)
		return
	}
	msg, ok := domain.MessageFromTokens(req.Tokens[1:])
	if !ok {
		req.Fail(&domain.ArgumentError{Command: req.Arg(0), Reason: "usage: " + req.Arg(0) + " <message>"})
		return
	}

	err := req.Canvas.SendToCanvas(msg)
	if err != nil {
		req.Fail(fmt.Errorf("send to canvas: %w", err))
	}
	d.emitMessage(ctx, "canvas", msg, err)
	req.Canvas.DeselectAll()
}

func (d *Dispatcher) cmdScript(ctx context.Context, req *Request) {
	name := req.Arg(1)
	if name == "" {
		req.Fail(&domain.ArgumentError{Command: "script", Reason: "usage: script <filename>"})
		return
	}
	if d.locator == nil {
		req.Fail(errScriptNotFound)
		return
	}

	path, err := d.locator.Find(name + ".lua")
	if err != nil {
		d.logger.Debug("Script lookup failed", "name", name, "err", err)
		req.Fail(errScriptNotFound)
		return
	}

	engine := d.engines.Get(d.sessionID)
	err = engine.RunFile(ctx, path)
	d.emitScript(ctx, path, err)
	if err != nil {
		req.Fail(err)
	}
}

func (d *Dispatcher) cmdManual(_ context.Context, req *Request) {
	command := req.Arg(1)
	if command == "" {
		entry, _ := ManualEntry("man")
		req.Info(entry)
		return
	}
	entry, ok := ManualEntry(command)
	if !ok {
		req.Fail(fmt.Errorf("No manual entry for: %s", command))
		return
	}
	req.Info(entry)
}

func (d *Dispatcher) cmdHelp(ctx context.Context, req *Request) {
	req.lines = append(req.lines, d.help(ctx)...)
}

// cmdFallback handles "<name> > <message>" and otherwise sends the command literally
// to the receiver named by its first token.
func (d *Dispatcher) cmdFallback(ctx context.Context, req *Request) {
	if len(req.Tokens) >= 2 && req.Tokens[1] == ">" {
		d.sendToNamed(ctx, req)
		return
	}

	tokens := req.Tokens
	receiver := strings.TrimLeft(tokens[0], ";")
	if receiver == "" {
		tokens = tokens[1:]
		if len(tokens) == 0 {
			return
		}
		receiver = tokens[0]
	}

	selector := domain.SelectorBang
	var args []string
	if len(tokens) > 1 {
		selector = tokens[1]
		args = tokens[2:]
	}
	msg := domain.NewMessage(selector, args...)

	err := d.host.SendGlobal(receiver, msg)
	if err != nil {
		req.Fail(fmt.Errorf("send to %s: %w", receiver, err))
	}
	d.emitMessage(ctx, receiver, msg, err)
}

// sendToNamed implements "<name> > <message>". Without a message the matches are selected.
func (d *Dispatcher) sendToNamed(ctx context.Context, req *Request) {
	target := req.Tokens[0]
	if req.Canvas == nil {
		req.Fail(domain.ErrNoCanvas)
		return
	}

	table := resolver.Build(req.Canvas)
	objects := table.Resolve(target)
	if len(objects) == 0 {
		req.Fail(&domain.ResolutionError{Name: target})
		return
	}

	msg, ok := domain.MessageFromTokens(req.Tokens[2:])
	if !ok {
		for _, obj := range objects {
			req.Canvas.SetSelected(obj.ID, true)
		}
		return
	}
	for _, obj := range objects {
		d.sendToObject(ctx, req, table, obj, msg)
	}
}

func formatEntry(e resolver.Entry) string {
	if resolver.IsGUIKind(e.Object.Kind) {
		return e.Name
	}
	return e.Name + ": " + e.Object.Text
}

func isIndex(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
