package redis

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourneyhub/tourney-client/application/port/outbound"
)

func TestTokenStore_Integration(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	store, err := NewTokenStore(ctx, url, "test-"+uuid.NewString())
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Get(ctx, outbound.KeyAccessToken)
	assert.ErrorIs(t, err, outbound.ErrTokenNotFound)

	for _, k := range outbound.SessionKeys {
		require.NoError(t, store.Set(ctx, k, "v-"+k))
	}
	got, err := store.Get(ctx, outbound.KeyUserData)
	require.NoError(t, err)
	assert.Equal(t, "v-"+outbound.KeyUserData, got)

	require.NoError(t, store.Delete(ctx, outbound.SessionKeys...))
	for _, k := range outbound.SessionKeys {
		_, err := store.Get(ctx, k)
		assert.ErrorIs(t, err, outbound.ErrTokenNotFound)
	}
}

func TestNewTokenStore_BadURL(t *testing.T) {
	_, err := NewTokenStore(context.Background(), "not-a-url", "")
	assert.Error(t, err)
}

func TestTokenStore_KeyNamespacing(t *testing.T) {
	s := NewTokenStoreWithClient(nil, "")
	assert.Equal(t, "tourney:session:access_token", s.key(outbound.KeyAccessToken))

	s = NewTokenStoreWithClient(nil, "alice")
	assert.Equal(t, "alice:session:refresh_token", s.key(outbound.KeyRefreshToken))
}
