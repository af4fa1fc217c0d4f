// Package file keeps credentials and archived results in JSON files readable only by the owner.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sync/singleflight"
)

// CredentialBackend writes the whole credential map on every Put by replacing
// the file, so a crash never leaves a half-written file behind.
type CredentialBackend struct {
	path string
	// mu orders reads after writes: a coalesced read never spans a Put or Clear.
	mu sync.RWMutex
	sf singleflight.Group
}

func NewCredentialBackend(path string) *CredentialBackend {
	return &CredentialBackend{path: path}
}

func (b *CredentialBackend) Put(_ context.Context, values map[string]string) error {
	data, err := json.Marshal(values)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return writeFileAtomic(b.path, data)
}

// Fetch coalesces concurrent reads of the file.
func (b *CredentialBackend) Fetch(_ context.Context) (map[string]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	result, err, _ := b.sf.Do(b.path, func() (interface{}, error) {
		data, err := os.ReadFile(b.path)
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		if err != nil {
			return nil, err
		}
		values := map[string]string{}
		if err := json.Unmarshal(data, &values); err != nil {
			return nil, fmt.Errorf("parse %s: %w", b.path, err)
		}
		return values, nil
	})
	if err != nil {
		return nil, err
	}
	// Callers may share the map returned by a coalesced read.
	shared := result.(map[string]string)
	out := make(map[string]string, len(shared))
	for k, v := range shared {
		out[k] = v
	}
	return out, nil
}

func (b *CredentialBackend) Clear(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	err := os.Remove(b.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
