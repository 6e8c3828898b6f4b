package outbound

import (
	"context"
	"errors"
)

// Keys under which a session is persisted.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyUserData     = "user_data"
)

// SessionKeys lists every persisted key; ClearAuth removes them as one set.
var SessionKeys = []string{KeyAccessToken, KeyRefreshToken, KeyUserData}

var (
	ErrTokenNotFound    = errors.New("token not found")
	ErrStoreUnavailable = errors.New("token store unavailable")
)

// TokenStore is durable key-value persistence for session material.
// Delete must remove all given keys atomically.
type TokenStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}
