package ports

import "context"

// HistoryStore persists the command history between runs.
// Entries are ordered most recent first.
type HistoryStore interface {
	// Load returns the persisted entries. A missing history is not an error.
	Load(ctx context.Context) ([]string, error)

	// Save replaces the persisted entries.
	Save(ctx context.Context, entries []string) error
}
