/*
Package expr implements the embedded expression engine of the shell.

Expressions are small Lua chunks (evaluated by gopher-lua) that the shell substitutes
inline into command text. Each engine runs in a narrow sandbox: only the base, table,
string and math libraries are available, and the only way to reach the host is the
global "pd" table:

	pd.post("hello")           -- print a line to the console
	local out = pd.eval("ls")  -- run a shell command, returns its output lines

An Engine is not safe for concurrent use. Re-entrant calls (pd.eval evaluating further
expressions) happen on the same goroutine and are supported.
*/
package expr
