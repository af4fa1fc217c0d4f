package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// CredentialBackend stores credentials as one Redis hash per profile:
//
//	HSET quiz:credentials:{profile} auth_token {sealed} username {name} user_id {id}
//
// A positive TTL expires the hash; zero keeps it until cleared.
type CredentialBackend struct {
	client  *redis.Client
	profile string
	ttl     time.Duration
}

func NewCredentialBackend(client *redis.Client, profile string, ttl time.Duration) *CredentialBackend {
	if profile == "" {
		profile = "default"
	}
	return &CredentialBackend{client: client, profile: profile, ttl: ttl}
}

// Put replaces the stored hash atomically.
func (b *CredentialBackend) Put(ctx context.Context, values map[string]string) error {
	key := b.key()
	args := make([]interface{}, 0, len(values)*2)
	for k, v := range values {
		args = append(args, k, v)
	}
	_, err := b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(args) > 0 {
			pipe.HSet(ctx, key, args...)
		}
		if b.ttl > 0 {
			pipe.Expire(ctx, key, b.ttl)
		}
		return nil
	})
	return err
}

func (b *CredentialBackend) Fetch(ctx context.Context) (map[string]string, error) {
	return b.client.HGetAll(ctx, b.key()).Result()
}

func (b *CredentialBackend) Clear(ctx context.Context) error {
	return b.client.Del(ctx, b.key()).Err()
}

func (b *CredentialBackend) key() string {
	return "quiz:credentials:" + b.profile
}
