package file

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "profile", "credentials.json")
	backend := NewCredentialBackend(path)

	values, err := backend.Fetch(ctx)
	require.NoError(t, err)
	assert.Empty(t, values)

	require.NoError(t, backend.Put(ctx, map[string]string{"auth_token": "sealed", "username": "bob"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	values, err = NewCredentialBackend(path).Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"auth_token": "sealed", "username": "bob"}, values)

	require.NoError(t, backend.Clear(ctx))
	require.NoError(t, backend.Clear(ctx))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestCredentialBackendConcurrentFetch(t *testing.T) {
	ctx := context.Background()
	backend := NewCredentialBackend(filepath.Join(t.TempDir(), "credentials.json"))
	require.NoError(t, backend.Put(ctx, map[string]string{"username": "bob"}))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			values, err := backend.Fetch(ctx)
			assert.NoError(t, err)
			assert.Equal(t, "bob", values["username"])
			values["username"] = "mutated"
		}()
	}
	wg.Wait()
}

func TestCredentialBackendRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewCredentialBackend(path).Fetch(context.Background())
	assert.Error(t, err)
}

func TestFetchAfterClearNeverSeesClearedToken(t *testing.T) {
	ctx := context.Background()
	backend := NewCredentialBackend(filepath.Join(t.TempDir(), "credentials.json"))

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					_, _ = backend.Fetch(ctx)
				}
			}
		}()
	}

	for i := 0; i < 1000; i++ {
		require.NoError(t, backend.Put(ctx, map[string]string{"auth_token": "x"}))
		require.NoError(t, backend.Clear(ctx))
		values, err := backend.Fetch(ctx)
		require.NoError(t, err)
		require.Empty(t, values, "iteration %d", i)
	}
	close(stop)
	wg.Wait()
}
