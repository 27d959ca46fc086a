package memory

import (
	"sync"

	"github.com/aretw0/pdshell/pkg/domain"
)

// Console implements ports.Console by recording every line.
type Console struct {
	mu    sync.Mutex
	lines []domain.Line
}

// NewConsole creates an empty console.
func NewConsole() *Console {
	return &Console{}
}

func (c *Console) Post(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, domain.Info(msg))
}

func (c *Console) Error(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, domain.Error(msg))
}

func (c *Console) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
}

// Lines returns a copy of the recorded lines.
func (c *Console) Lines() []domain.Line {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domain.Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Texts returns the text of every recorded line.
func (c *Console) Texts() []string {
	lines := c.Lines()
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}
