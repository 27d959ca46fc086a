package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotFound is returned when no directory on the search path holds the file.
var ErrNotFound = errors.New("file not found on search path")

// SearchPath resolves file names against an ordered list of directories.
// The first match wins.
type SearchPath struct {
	dirs []string
}

// NewSearchPath creates a locator over dirs. Empty entries are skipped.
func NewSearchPath(dirs ...string) *SearchPath {
	sp := &SearchPath{}
	for _, d := range dirs {
		if d != "" {
			sp.dirs = append(sp.dirs, d)
		}
	}
	return sp
}

// Dirs returns the directories in lookup order.
func (sp *SearchPath) Dirs() []string {
	return append([]string(nil), sp.dirs...)
}

// Find returns the path of the first regular file called name.
// Names containing a path separator are rejected.
func (sp *SearchPath) Find(name string) (string, error) {
	if name == "" || filepath.Base(name) != name {
		return "", fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	for _, dir := range sp.dirs {
		candidate := filepath.Join(dir, name)
		info, err := os.Stat(candidate)
		if err == nil && info.Mode().IsRegular() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrNotFound, name)
}
