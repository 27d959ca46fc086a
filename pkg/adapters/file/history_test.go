package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/pdshell/pkg/adapters/file"
	"github.com/aretw0/pdshell/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryStore_Contract(t *testing.T) {
	store := file.NewHistoryStore(filepath.Join(t.TempDir(), "nested", "history.json"))
	ports.RunHistoryStoreContract(t, store)
}

func TestHistoryStore_DefaultPath(t *testing.T) {
	store := file.NewHistoryStore("")
	assert.Equal(t, file.DefaultHistoryPath, store.Path)
}

func TestHistoryStore_Atomicity(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.json")
	store := file.NewHistoryStore(path)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, []string{"one"}))
	require.NoError(t, store.Save(ctx, []string{"two", "one"}))

	// Only the destination remains; temp files are cleaned up
	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "history.json", files[0].Name())

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"two", "one"}, got)
}

func TestHistoryStore_Corrupted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := file.NewHistoryStore(path).Load(context.Background())
	assert.ErrorContains(t, err, "failed to unmarshal history")
}
