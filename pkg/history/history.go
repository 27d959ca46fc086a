// Package history keeps the list of previously submitted commands.
package history

import "sync"

// Log holds commands most recent first. It is safe for concurrent use, since one log
// is shared by every session of a process.
type Log struct {
	mu      sync.Mutex
	entries []string
	limit   int
}

// Option configures a Log.
type Option func(*Log)

// WithLimit caps the number of entries; the oldest are dropped first. Zero means no cap.
func WithLimit(n int) Option {
	return func(l *Log) {
		l.limit = n
	}
}

// New creates an empty log.
func New(opts ...Option) *Log {
	l := &Log{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Push records a command. Empty commands and repeats of the most recent entry are ignored.
// It reports whether the entry was added.
func (l *Log) Push(cmd string) bool {
	if cmd == "" {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) > 0 && l.entries[0] == cmd {
		return false
	}
	l.entries = append([]string{cmd}, l.entries...)
	l.trim()
	return true
}

// At returns the entry at index (0 is the most recent), or "" when out of range.
func (l *Log) At(index int) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	if index < 0 || index >= len(l.entries) {
		return ""
	}
	return l.entries[index]
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Entries returns a copy of the entries, most recent first.
func (l *Log) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

// Replace swaps the whole history, e.g. when restoring it from a store.
func (l *Log) Replace(entries []string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = l.entries[:0]
	for _, e := range entries {
		if e != "" {
			l.entries = append(l.entries, e)
		}
	}
	l.trim()
}

// Clear removes every entry.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

func (l *Log) trim() {
	if l.limit > 0 && len(l.entries) > l.limit {
		l.entries = l.entries[:l.limit]
	}
}
