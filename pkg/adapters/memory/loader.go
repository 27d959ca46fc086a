package memory

import (
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/pdshell/pkg/domain"
	"github.com/aretw0/pdshell/pkg/resolver"
	"gopkg.in/yaml.v3"
)

// PatchFile is the YAML fixture format for a canvas:
//
//	objects:
//	  - text: tgl 15 0 empty empty
//	  - text: metro 200
//	  - kind: floatbox
//	  - text: print hidden
//	    gui: false
//	selected: [1]
type PatchFile struct {
	Objects  []PatchObject `yaml:"objects"`
	Selected []int         `yaml:"selected"`
}

// PatchObject describes one object of a PatchFile.
type PatchObject struct {
	ID   string `yaml:"id"`
	Kind string `yaml:"kind"`
	Text string `yaml:"text"`
	GUI  *bool  `yaml:"gui"`
}

// Object converts the fixture entry into a domain object.
// Without an explicit kind, simple GUI objects take their first token as kind and
// everything else is a plain "text" object.
func (p PatchObject) Object() domain.Object {
	kind := p.Kind
	if kind == "" {
		kind = "text"
		if fields := strings.Fields(p.Text); len(fields) > 0 && resolver.IsGUIKind(fields[0]) {
			kind = fields[0]
		}
	}
	hasGUI := true
	if p.GUI != nil {
		hasGUI = *p.GUI
	}
	return domain.Object{ID: p.ID, Kind: kind, Text: p.Text, HasGUI: hasGUI}
}

// ParsePatch builds a canvas from YAML fixture data.
func ParsePatch(data []byte) (*Canvas, error) {
	var patch PatchFile
	if err := yaml.Unmarshal(data, &patch); err != nil {
		return nil, fmt.Errorf("failed to parse patch: %w", err)
	}

	c := NewCanvas()
	for _, obj := range patch.Objects {
		c.Add(obj.Object())
	}

	objects := c.Objects()
	for _, i := range patch.Selected {
		if i < 0 || i >= len(objects) {
			return nil, fmt.Errorf("selected index %d out of range", i)
		}
		c.SetSelected(objects[i].ID, true)
	}
	return c, nil
}

// LoadPatch reads a YAML fixture from disk and opens it on the host.
func (h *Host) LoadPatch(path string) (*Canvas, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read patch %s: %w", path, err)
	}
	c, err := ParsePatch(data)
	if err != nil {
		return nil, err
	}
	h.SetCanvas(c)
	return c, nil
}
