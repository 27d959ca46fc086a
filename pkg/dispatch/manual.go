package dispatch

import "strings"

// manual holds the one-line description printed by "man <command>".
// Aliases share an entry; %s is replaced by the name the user typed.
var manual = map[string]string{
	"man":      "%s: Print the manual for a command. Usage: man <command>",
	"?":        "%s: Show help",
	"help":     "%s: Show help",
	"script":   "%s: Execute a Lua script from your search path. Usage: script <filename>",
	"cnv":      "%s: Send a message to the current canvas. Usage: %s <message>",
	"canvas":   "%s: Send a message to the current canvas. Usage: %s <message>",
	"clear":    "%s: Clear console and command history",
	"reset":    "%s: Reset Lua interpreter state",
	"sel":      "%s: Select an object by ID or index. After selecting objects, you can send messages to them. Usage: %s <id> or %s <index>",
	"select":   "%s: Select an object by ID or index. After selecting objects, you can send messages to them. Usage: %s <id> or %s <index>",
	">":        "%s: Deselect all on current canvas",
	"deselect": "%s: Deselect all on current canvas",
	"ls":       "%s: Print a list of all object IDs on current canvas",
	"list":     "%s: Print a list of all object IDs on current canvas",
	"find":     "%s: Search object IDs on current canvas. Usage: %s <id>",
	"search":   "%s: Search object IDs on current canvas. Usage: %s <id>",
}

// ManualEntry returns the manual line for a command name.
func ManualEntry(command string) (string, bool) {
	entry, ok := manual[command]
	if !ok {
		return "", false
	}
	return strings.ReplaceAll(entry, "%s", command), true
}

// Documentation is the markdown help shown by "?" and "help".
const Documentation = "Command input lets you send commands to objects, to pd or to the canvas.\n" +
	"The following commands are available:\n" +
	"\n" +
	"- `man <command>`: print the manual for a command\n" +
	"- `list`/`ls`: list all object IDs in the current canvas\n" +
	"- `search`/`find <id>`: search for an object ID in the current canvas\n" +
	"- `select`/`sel <id>`: select an object by ID or index\n" +
	"- `deselect`/`>`: deselect all objects\n" +
	"- `clear`: clear the console and the command history\n" +
	"- `reset`: clear the Lua state\n" +
	"- `canvas`/`cnv <message>`: send a message to the canvas\n" +
	"    - `canvas obj <x> <y> <name>`: create a text object\n" +
	"    - `canvas msg <x> <y> <name>`: create a message box\n" +
	"- `script <name>`: run a Lua script from the search path\n" +
	"- `pd <message>`: send a message to pd, for example:\n" +
	"    - `pd dsp <int>`: set the DSP state\n" +
	"    - `pd quit`: quit\n" +
	"- `<id> > <message>`: send a message to an object, for example `tgl_1 > 1` sends a 1 to the first toggle\n" +
	"\n" +
	"Once an object is selected, every message you send goes directly to it. To send a float to a toggle, " +
	"select it and enter `1`. Deselect with `deselect` or the shorthand `>`.\n" +
	"\n" +
	"The `canvas` command does dynamic patching:\n" +
	"\n" +
	"```\ncanvas obj 20 50 metro 200\n```\n" +
	"\n" +
	"creates a `metro 200` object at 20,50.\n" +
	"\n" +
	"Lua expressions inside braces generate values. To randomise the colour of a selected toggle:\n" +
	"\n" +
	"```\ncolor {math.random() * 200}\n```\n" +
	"\n" +
	"Lua can call back into the command input with `pd.eval(\"command\")`:\n" +
	"\n" +
	"```\n{ pd.eval(\"sel tgl_1\") }\n```\n" +
	"\n" +
	"selects the first toggle from Lua.\n" +
	"\n" +
	"For multi-line Lua, leave a brace open and press enter:\n" +
	"\n" +
	"```\n" +
	"{\n" +
	"for i = 1, 20 do\n" +
	"    for j = 1, 20 do\n" +
	"        pd.eval(\"canvas obj \" .. tostring(i * 28) .. \" \" .. tostring(j * 28) .. \" tgl\")\n" +
	"    end\n" +
	"end\n" +
	"}\n" +
	"```\n" +
	"\n" +
	"generates a 20x20 grid of toggles.\n"
