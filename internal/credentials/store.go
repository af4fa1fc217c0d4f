// Package credentials persists the bearer token and user identity of the
// signed-in user. The token is sealed before it reaches the backend.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"quiz-client/internal/domain"
)

const (
	keyToken    = "auth_token"
	keyUsername = "username"
	keyUserID   = "user_id"
)

// Backend is the durable key-value capability behind the store (file, redis, memory).
// Fetch returns an empty map when nothing is stored. Clear on an empty backend is a no-op.
type Backend interface {
	Put(ctx context.Context, values map[string]string) error
	Fetch(ctx context.Context) (map[string]string, error)
	Clear(ctx context.Context) error
}

// Store is the credential store shared by the API client and the controllers.
type Store struct {
	backend Backend
	sealer  *Sealer
}

func NewStore(backend Backend, secret []byte) (*Store, error) {
	sealer, err := NewSealer(secret)
	if err != nil {
		return nil, err
	}
	return &Store{backend: backend, sealer: sealer}, nil
}

// Save replaces whatever was stored with c.
func (s *Store) Save(ctx context.Context, c domain.Credentials) error {
	if c.Token == "" {
		return errors.New("save credentials: empty token")
	}
	sealed, err := s.sealer.Seal(c.Token)
	if err != nil {
		return fmt.Errorf("seal token: %w", err)
	}
	return s.backend.Put(ctx, map[string]string{
		keyToken:    sealed,
		keyUsername: c.Username,
		keyUserID:   strconv.Itoa(c.UserID),
	})
}

// Get returns the stored credentials, or domain.ErrNoCredentials.
func (s *Store) Get(ctx context.Context) (domain.Credentials, error) {
	values, err := s.backend.Fetch(ctx)
	if err != nil {
		return domain.Credentials{}, err
	}
	sealed, ok := values[keyToken]
	if !ok || sealed == "" {
		return domain.Credentials{}, domain.ErrNoCredentials
	}
	token, err := s.sealer.Open(sealed)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("%w: %v", domain.ErrCorruptCredentials, err)
	}
	userID := -1
	if raw, ok := values[keyUserID]; ok {
		if id, err := strconv.Atoi(raw); err == nil {
			userID = id
		}
	}
	return domain.Credentials{Token: token, Username: values[keyUsername], UserID: userID}, nil
}

// Token returns the stored bearer token. Unreadable storage counts as signed out.
func (s *Store) Token(ctx context.Context) (string, bool) {
	c, err := s.Get(ctx)
	if err != nil {
		return "", false
	}
	return c.Token, true
}

func (s *Store) Username(ctx context.Context) (string, bool) {
	c, err := s.Get(ctx)
	if err != nil || c.Username == "" {
		return "", false
	}
	return c.Username, true
}

// UserID returns -1 when nothing is stored.
func (s *Store) UserID(ctx context.Context) int {
	c, err := s.Get(ctx)
	if err != nil {
		return -1
	}
	return c.UserID
}

func (s *Store) IsLoggedIn(ctx context.Context) bool {
	_, ok := s.Token(ctx)
	return ok
}

// Clear removes everything. Safe to call when nothing is stored.
func (s *Store) Clear(ctx context.Context) error {
	return s.backend.Clear(ctx)
}
