package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares one session between every client pointed at the same
// Redis database and prefix.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed store. An empty prefix uses "plangate:".
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "plangate:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

// DialRedis parses a redis:// URL and verifies the server answers.
func DialRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("session.DialRedis: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close() //nolint:errcheck
		return nil, fmt.Errorf("session.DialRedis: ping: %w", err)
	}
	return client, nil
}

func (s *RedisStore) key() string {
	return s.prefix + TokenKey
}

func (s *RedisStore) Get(ctx context.Context) (string, bool, error) {
	tok, err := s.client.Get(ctx, s.key()).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("session.RedisStore.Get: %w", err)
	}
	return tok, tok != "", nil
}

// Set stores the token without expiry; the backend decides when it stops working.
func (s *RedisStore) Set(ctx context.Context, token string) error {
	if err := s.client.Set(ctx, s.key(), token, 0).Err(); err != nil {
		return fmt.Errorf("session.RedisStore.Set: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key()).Err(); err != nil {
		return fmt.Errorf("session.RedisStore.Clear: %w", err)
	}
	return nil
}
