// Package resolver maps human-readable display names to objects on a canvas.
//
// Display names are derived from an object's kind or text and always carry a
// 1-based occurrence suffix:
//
//	floatbox     -> floatbox_1
//	tgl          -> tgl_1, tgl_2
//	metro 200    -> metro_200_1
//	osc~ 440 0.5 -> osc~_440_1
//
// The table is rebuilt from the live canvas on every call and never cached.
package resolver

import (
	"strconv"
	"strings"

	"github.com/aretw0/pdshell/pkg/domain"
	"github.com/aretw0/pdshell/pkg/ports"
)

var atomKinds = map[string]bool{
	"floatbox":  true,
	"symbolbox": true,
	"listbox":   true,
	"gatom":     true,
}

var guiKinds = map[string]bool{
	"bng": true, "hsl": true, "vsl": true, "slider": true, "tgl": true, "nbx": true,
	"vradio": true, "hradio": true, "vu": true, "cnv": true, "keyboard": true, "pic": true,
	"scope~": true, "function": true, "note": true, "knob": true, "message": true,
	"comment": true, "canvas": true, "bicoeff": true, "messbox": true, "pad": true,
	"button": true,
}

// IsGUIKind reports whether kind is a simple GUI object that is named by its kind alone.
func IsGUIKind(kind string) bool {
	return guiKinds[kind]
}

// IsAtomKind reports whether kind is a bare-value atom box.
func IsAtomKind(kind string) bool {
	return atomKinds[kind]
}

// Entry is one row of a NameTable.
type Entry struct {
	Name   string
	Object domain.Object
}

// NameTable is an ordered mapping from display name to object.
type NameTable struct {
	entries []Entry
	index   map[string]int
}

// Build derives the name table for the objects of a canvas, in canvas order.
// Objects without a GUI, and objects with empty text that are not atoms, are skipped.
func Build(canvas ports.Canvas) *NameTable {
	if canvas == nil {
		return BuildFrom(nil)
	}
	return BuildFrom(canvas.Objects())
}

// BuildFrom derives the name table for an explicit object list.
func BuildFrom(objects []domain.Object) *NameTable {
	t := &NameTable{index: make(map[string]int)}
	counts := make(map[string]int)

	for _, obj := range objects {
		if !obj.HasGUI {
			continue
		}
		base := BaseName(obj)
		if base == "" {
			continue
		}
		counts[base]++
		name := base + "_" + strconv.Itoa(counts[base])

		t.index[name] = len(t.entries)
		t.entries = append(t.entries, Entry{Name: name, Object: obj})
	}
	return t
}

// BaseName returns the unsuffixed display name of an object, or "" if it has none.
func BaseName(obj domain.Object) string {
	if IsAtomKind(obj.Kind) {
		return obj.Kind
	}

	tokens := strings.Fields(obj.Text)
	if len(tokens) == 0 {
		return ""
	}

	keep := 2
	if IsGUIKind(tokens[0]) {
		keep = 1
	}
	if keep > len(tokens) {
		keep = len(tokens)
	}
	return strings.Join(tokens[:keep], "_")
}

// Len returns the number of named objects.
func (t *NameTable) Len() int {
	return len(t.entries)
}

// Entries returns the table rows in traversal order.
func (t *NameTable) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Names returns the display names in traversal order.
func (t *NameTable) Names() []string {
	names := make([]string, len(t.entries))
	for i, e := range t.entries {
		names[i] = e.Name
	}
	return names
}

// Lookup finds an object by its exact display name.
func (t *NameTable) Lookup(name string) (domain.Object, bool) {
	i, ok := t.index[name]
	if !ok {
		return domain.Object{}, false
	}
	return t.entries[i].Object, true
}

// NameOf returns the display name of the object with the given ID.
func (t *NameTable) NameOf(id string) (string, bool) {
	for _, e := range t.entries {
		if e.Object.ID == id {
			return e.Name, true
		}
	}
	return "", false
}

// Resolve returns the objects matching name, in traversal order.
//
// A trailing '*' turns the name into an unanchored substring match against every key.
// The exact key is checked as well. An empty result is not an error.
func (t *NameTable) Resolve(name string) []domain.Object {
	var found []domain.Object
	seen := make(map[string]bool)

	if stem, ok := strings.CutSuffix(name, "*"); ok {
		for _, e := range t.entries {
			if strings.Contains(e.Name, stem) {
				found = append(found, e.Object)
				seen[e.Name] = true
			}
		}
	}

	if obj, ok := t.Lookup(name); ok && !seen[name] {
		found = append(found, obj)
	}
	return found
}

// Resolve builds a fresh table for canvas and resolves name against it.
func Resolve(canvas ports.Canvas, name string) []domain.Object {
	return Build(canvas).Resolve(name)
}
