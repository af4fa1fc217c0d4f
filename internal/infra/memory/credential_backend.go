package memory

import (
	"context"
	"sync"
)

// CredentialBackend is an in-memory implementation of credentials.Backend.
// Nothing survives the process; it backs tests and the "memory" backend setting.
type CredentialBackend struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewCredentialBackend() *CredentialBackend {
	return &CredentialBackend{values: make(map[string]string)}
}

func (b *CredentialBackend) Put(_ context.Context, values map[string]string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.values = make(map[string]string, len(values))
	for k, v := range values {
		b.values[k] = v
	}
	return nil
}

func (b *CredentialBackend) Fetch(_ context.Context) (map[string]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]string, len(b.values))
	for k, v := range b.values {
		out[k] = v
	}
	return out, nil
}

func (b *CredentialBackend) Clear(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.values = make(map[string]string)
	return nil
}

// Raw exposes a stored value as written, for asserting what reached storage.
func (b *CredentialBackend) Raw(key string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.values[key]
	return v, ok
}
