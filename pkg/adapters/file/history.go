package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultHistoryPath is used when no path is configured.
var DefaultHistoryPath = filepath.Join(".pdshell", "history.json")

// HistoryStore implements ports.HistoryStore using a single JSON file.
type HistoryStore struct {
	Path string
}

// NewHistoryStore creates a store writing to path.
// If path is empty, it defaults to DefaultHistoryPath.
func NewHistoryStore(path string) *HistoryStore {
	if path == "" {
		path = DefaultHistoryPath
	}
	return &HistoryStore{Path: path}
}

// Save writes the entries atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (s *HistoryStore) Save(ctx context.Context, entries []string) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to ensure history directory: %w", err)
	}

	if entries == nil {
		entries = []string{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	// 1. Create Temp File in the same directory so the rename stays on one filesystem
	tmpFile, err := os.CreateTemp(dir, "tmp-history-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	// 2. Write Data
	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}

	// 3. Fsync
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}

	// 4. Close File (cannot rename open file on Windows)
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// 5. Rename. On Windows os.Rename fails if dest exists.
	if _, err := os.Stat(s.Path); err == nil {
		if err := os.Remove(s.Path); err != nil {
			return fmt.Errorf("failed to remove existing history file for overwrite: %w", err)
		}
	}

	if err := os.Rename(tmpPath, s.Path); err != nil {
		return fmt.Errorf("failed to rename temp file to history: %w", err)
	}
	return nil
}

// Load reads the entries. A missing file is an empty history.
func (s *HistoryStore) Load(ctx context.Context) ([]string, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	var entries []string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}
	return entries, nil
}
