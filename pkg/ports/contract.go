package ports

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunHistoryStoreContract runs a suite of tests to verify that a HistoryStore implementation
// adheres to the defined interface contract. The store must start empty.
func RunHistoryStoreContract(t *testing.T, store HistoryStore) {
	ctx := context.Background()

	t.Run("Load Empty", func(t *testing.T) {
		entries, err := store.Load(ctx)
		require.NoError(t, err, "Load of a missing history should not fail")
		assert.Empty(t, entries)
	})

	t.Run("Save and Load", func(t *testing.T) {
		want := []string{"sel tgl_1", "color {1+1}", "ls"}

		err := store.Save(ctx, want)
		require.NoError(t, err, "Save should not return error")

		got, err := store.Load(ctx)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, want, got, "order must be preserved (most recent first)")
	})

	t.Run("Save Replaces", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, []string{"a", "b"}))
		require.NoError(t, store.Save(ctx, []string{"c"}))

		got, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"c"}, got)
	})

	t.Run("Multi-line Entries", func(t *testing.T) {
		entry := "{\nfor i = 1, 3 do\n  pd.post(tostring(i))\nend\n}"
		require.NoError(t, store.Save(ctx, []string{entry}))

		got, err := store.Load(ctx)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, entry, got[0])
	})

	t.Run("Save Empty", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, nil))

		got, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
