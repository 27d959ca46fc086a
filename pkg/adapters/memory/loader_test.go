package memory_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/pdshell/pkg/adapters/memory"
	"github.com/aretw0/pdshell/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const patchYAML = `
objects:
  - text: tgl 15 0 empty empty
  - text: metro 200
  - kind: floatbox
    text: "5"
  - id: hidden
    text: print hidden
    gui: false
selected: [1]
`

func TestParsePatch(t *testing.T) {
	c, err := memory.ParsePatch([]byte(patchYAML))
	require.NoError(t, err)

	objects := c.Objects()
	require.Len(t, objects, 4)

	assert.Equal(t, domain.Object{ID: "0", Kind: "tgl", Text: "tgl 15 0 empty empty", HasGUI: true}, objects[0])
	assert.Equal(t, "text", objects[1].Kind)
	assert.Equal(t, "floatbox", objects[2].Kind)
	assert.Equal(t, "hidden", objects[3].ID)
	assert.False(t, objects[3].HasGUI)

	sel := c.Selection()
	require.Len(t, sel, 1)
	assert.Equal(t, "metro 200", sel[0].Text)
}

func TestParsePatch_Errors(t *testing.T) {
	_, err := memory.ParsePatch([]byte("objects: [unclosed"))
	assert.Error(t, err)

	_, err = memory.ParsePatch([]byte("objects:\n  - text: tgl\nselected: [3]\n"))
	assert.ErrorContains(t, err, "out of range")
}

func TestHost_LoadPatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(patchYAML), 0644))

	h := memory.NewHost()
	_, ok := h.CurrentCanvas()
	assert.False(t, ok)

	c, err := h.LoadPatch(path)
	require.NoError(t, err)

	current, ok := h.CurrentCanvas()
	require.True(t, ok)
	assert.Equal(t, c.Objects(), current.Objects())

	_, err = h.LoadPatch(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
