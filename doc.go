/*
Package pdshell is a command shell for a running Pure Data style dataflow patch.

Users type short commands. The shell substitutes embedded Lua expressions written in
braces, resolves object names on the current canvas and sends structured messages to
the patch engine. Everything that goes wrong comes back as an error line; the shell
itself never fails.

# Concept

The patch engine, its canvases and the console are reached through the interfaces of
package ports. The shell owns the interpretation: tokenizing, name resolution, the
command table and the Lua bridge. This Hexagonal Architecture allows the shell to be
embedded in an editor, run as a terminal REPL, or served over HTTP and MCP.

# Commands

	sel 0                 select the first object on the canvas
	sel tgl*              add every toggle to the selection
	color {1+1}           with a selection: send "color 2" to every selected object
	tgl_1 > 1             send 1 to the first toggle
	canvas obj 20 50 tgl  create a toggle
	pd dsp 1              send "dsp 1" to the receiver "pd"
	ls / find / man / help

# Lua

Expressions run in a sandbox that only exposes the "pd" table:

	{ pd.post("hello") }
	{ for _, name in ipairs(pd.eval("ls")) do pd.post(name) end }

A line with an open brace continues on the next line (the prompt becomes "lua >").

# Usage

	host := memory.NewHost()
	host.OpenCanvas(domain.Object{Kind: "tgl", Text: "tgl", HasGUI: true})

	sh, err := pdshell.New(host, pdshell.WithConsole(console))
	if err != nil {
		log.Fatal(err)
	}
	defer sh.Close()

	lines := sh.Execute(ctx, "sel 0")
*/
package pdshell
