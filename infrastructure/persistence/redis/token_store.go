package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/tourneyhub/tourney-client/application/port/outbound"
)

const defaultNamespace = "tourney"

// TokenStore keeps session keys under "<namespace>:session:<key>" so several
// profiles can share one Redis.
type TokenStore struct {
	client    *redis.Client
	namespace string
}

var _ outbound.TokenStore = (*TokenStore)(nil)

// NewTokenStore parses redisURL, pings the server and returns a ready store.
func NewTokenStore(ctx context.Context, redisURL, namespace string) (*TokenStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", outbound.ErrStoreUnavailable, err)
	}

	return NewTokenStoreWithClient(client, namespace), nil
}

// NewTokenStoreWithClient wraps an existing client.
func NewTokenStoreWithClient(client *redis.Client, namespace string) *TokenStore {
	if namespace == "" {
		namespace = defaultNamespace
	}
	return &TokenStore{client: client, namespace: namespace}
}

func (s *TokenStore) key(k string) string {
	return s.namespace + ":session:" + k
}

func (s *TokenStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", outbound.ErrTokenNotFound
		}
		return "", fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, nil
}

func (s *TokenStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Delete issues a single DEL so all keys vanish together.
func (s *TokenStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.key(k)
	}
	if err := s.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("failed to delete session keys: %w", err)
	}
	return nil
}

func (s *TokenStore) Close() error {
	return s.client.Close()
}
