package postgres

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
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	namespace := "test-" + uuid.NewString()

	store, err := Open(ctx, dsn, namespace)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Get(ctx, outbound.KeyRefreshToken)
	assert.ErrorIs(t, err, outbound.ErrTokenNotFound)

	require.NoError(t, store.Set(ctx, outbound.KeyRefreshToken, "r1"))
	require.NoError(t, store.Set(ctx, outbound.KeyRefreshToken, "r2"))
	require.NoError(t, store.Set(ctx, outbound.KeyAccessToken, "a1"))

	got, err := store.Get(ctx, outbound.KeyRefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "r2", got)

	other, err := Open(ctx, dsn, namespace+"-other")
	require.NoError(t, err)
	defer other.Close()
	_, err = other.Get(ctx, outbound.KeyRefreshToken)
	assert.ErrorIs(t, err, outbound.ErrTokenNotFound)

	require.NoError(t, store.Delete(ctx, outbound.SessionKeys...))
	for _, k := range outbound.SessionKeys {
		_, err := store.Get(ctx, k)
		assert.ErrorIs(t, err, outbound.ErrTokenNotFound)
	}
}
