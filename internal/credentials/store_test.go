package credentials_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-client/internal/credentials"
	"quiz-client/internal/domain"
	"quiz-client/internal/infra/memory"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newStore(t *testing.T) (*credentials.Store, *memory.CredentialBackend) {
	t.Helper()
	backend := memory.NewCredentialBackend()
	store, err := credentials.NewStore(backend, testSecret)
	require.NoError(t, err)
	return store, backend
}

func TestStoreSaveAndGet(t *testing.T) {
	ctx := context.Background()
	store, backend := newStore(t)

	require.False(t, store.IsLoggedIn(ctx))
	require.Equal(t, -1, store.UserID(ctx))

	require.NoError(t, store.Save(ctx, domain.Credentials{Token: "tok-123", Username: "bob", UserID: 7}))

	got, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Credentials{Token: "tok-123", Username: "bob", UserID: 7}, got)
	assert.True(t, store.IsLoggedIn(ctx))

	username, ok := store.Username(ctx)
	require.True(t, ok)
	assert.Equal(t, "bob", username)
	assert.Equal(t, 7, store.UserID(ctx))

	raw, ok := backend.Raw("auth_token")
	require.True(t, ok)
	assert.NotContains(t, raw, "tok-123", "token must be sealed at rest")
}

func TestStoreClearIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Save(ctx, domain.Credentials{Token: "tok", Username: "bob", UserID: 1}))
	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx))

	_, err := store.Get(ctx)
	assert.ErrorIs(t, err, domain.ErrNoCredentials)
	assert.False(t, store.IsLoggedIn(ctx))
}

func TestStoreRejectsForeignSeal(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewCredentialBackend()

	writer, err := credentials.NewStore(backend, testSecret)
	require.NoError(t, err)
	require.NoError(t, writer.Save(ctx, domain.Credentials{Token: "tok", Username: "bob", UserID: 1}))

	reader, err := credentials.NewStore(backend, []byte("a completely different secret!!"))
	require.NoError(t, err)

	_, err = reader.Get(ctx)
	assert.True(t, errors.Is(err, domain.ErrCorruptCredentials))
	assert.False(t, reader.IsLoggedIn(ctx))
}

func TestNewStoreRejectsShortSecret(t *testing.T) {
	_, err := credentials.NewStore(memory.NewCredentialBackend(), []byte("short"))
	assert.ErrorIs(t, err, credentials.ErrShortSecret)
}

func TestLoadOrCreateKeyFileIsStable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.key")

	first, err := credentials.LoadOrCreateKeyFile(path)
	require.NoError(t, err)
	require.Len(t, first, 32)

	second, err := credentials.LoadOrCreateKeyFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Date(2026, 11, 14, 10, 0, 0, 0, time.UTC)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "7",
		"exp": exp.Unix(),
	}).SignedString([]byte("server-secret"))
	require.NoError(t, err)

	got, ok := credentials.TokenExpiry(token)
	require.True(t, ok)
	assert.True(t, got.Equal(exp))

	_, ok = credentials.TokenExpiry("not-a-jwt")
	assert.False(t, ok)
}
