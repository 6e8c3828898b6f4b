package memory

import (
	"context"
	"sync"

	"github.com/tourneyhub/tourney-client/application/port/outbound"
)

// TokenStore keeps session material for the lifetime of the process.
type TokenStore struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ outbound.TokenStore = (*TokenStore)(nil)

func NewTokenStore() *TokenStore {
	return &TokenStore{values: make(map[string]string)}
}

func (s *TokenStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	if !ok {
		return "", outbound.ErrTokenNotFound
	}
	return value, nil
}

func (s *TokenStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return nil
}

func (s *TokenStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

func (s *TokenStore) Close() error {
	return nil
}

// Len reports how many keys are held.
func (s *TokenStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
