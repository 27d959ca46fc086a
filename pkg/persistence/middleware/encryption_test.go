package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/pdshell/pkg/adapters/memory"
	"github.com/aretw0/pdshell/pkg/persistence/middleware"
	"github.com/aretw0/pdshell/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func secure(t *testing.T, next ports.HistoryStore, config middleware.EncryptionConfig) ports.HistoryStore {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(config)
	require.NoError(t, err)
	return mw(next)
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	ports.RunHistoryStoreContract(t, secure(t, memory.NewHistoryStore(), middleware.EncryptionConfig{ActiveKey: generateKey(t)}))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewHistoryStore()
	store := secure(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, []string{"send secret-token", "pd dsp 1"}))

	// The underlying store only sees the envelope
	raw, err := underlying.Load(ctx)
	require.NoError(t, err)
	require.Len(t, raw, 1)
	assert.True(t, strings.HasPrefix(raw[0], middleware.EnvelopePrefix))
	assert.NotContains(t, raw[0], "secret-token")

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"send secret-token", "pd dsp 1"}, got)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewHistoryStore()
	oldKey, newKey := generateKey(t), generateKey(t)
	ctx := context.Background()

	// 1. Save with the old key
	oldStore := secure(t, underlying, middleware.EncryptionConfig{ActiveKey: oldKey})
	require.NoError(t, oldStore.Save(ctx, []string{"old"}))

	// 2. Load with the new key as active and the old one as fallback
	newStore := secure(t, underlying, middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})
	got, err := newStore.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"old"}, got)

	// 3. Saving re-encrypts with the new key; the old key alone no longer works
	require.NoError(t, newStore.Save(ctx, []string{"new"}))
	_, err = oldStore.Load(ctx)
	assert.Error(t, err)
}

func TestEncryptionMiddleware_RejectsPlainHistory(t *testing.T) {
	underlying := memory.NewHistoryStore()
	ctx := context.Background()
	require.NoError(t, underlying.Save(ctx, []string{"pd dsp 1"}))

	store := secure(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, middleware.ErrMissingEnvelope)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)

	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)
}

func TestParseKey(t *testing.T) {
	key := generateKey(t)

	got, err := middleware.ParseKey(hex.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	got, err = middleware.ParseKey(" " + base64.StdEncoding.EncodeToString(key) + "\n")
	require.NoError(t, err)
	assert.Equal(t, key, got)

	_, err = middleware.ParseKey("not-a-key")
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)
}
