package fakebackend

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tourneyhub/tourney-client/infrastructure/http/handler"
	"github.com/tourneyhub/tourney-client/infrastructure/service/jwt"
)

func newBackend(t *testing.T) *Backend {
	t.Helper()
	b, err := New(Options{
		Tokens: jwt.SignerConfig{
			AccessSecret:    "access-secret",
			RefreshSecret:   "refresh-secret",
			AccessTokenTTL:  time.Minute,
			RefreshTokenTTL: time.Hour,
		},
		BcryptCost: bcrypt.MinCost,
	})
	require.NoError(t, err)
	return b
}

func TestLoginIssuesUsableTokens(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()
	id, err := b.SeedUser("ana@example.com", "password123", "player")
	require.NoError(t, err)

	tokens, err := b.Login(ctx, "ANA@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "bearer", tokens.TokenType)
	assert.Equal(t, 60, tokens.ExpiresIn)

	claims, err := b.Authenticate(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, id.ID, claims.UserID)
	assert.Equal(t, "player", claims.Role)

	_, err = b.Login(ctx, "ana@example.com", "wrong-password")
	assert.ErrorIs(t, err, handler.ErrInvalidCredentials)
	_, err = b.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, handler.ErrInvalidCredentials)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()

	nick := "ash"
	id, err := b.Register(ctx, handler.RegisterRequest{Email: "ash@example.com", Password: "password123", Role: "player", Nickname: &nick})
	require.NoError(t, err)
	assert.Equal(t, "player", id.Role)

	_, err = b.Register(ctx, handler.RegisterRequest{Email: "Ash@example.com", Password: "password123", Role: "coach"})
	assert.ErrorIs(t, err, handler.ErrEmailTaken)
}

func TestRefreshRotatesAndRevokes(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()
	_, err := b.SeedUser("ana@example.com", "password123", "player")
	require.NoError(t, err)
	first, err := b.Login(ctx, "ana@example.com", "password123")
	require.NoError(t, err)

	second, err := b.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = b.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, handler.ErrInvalidRefreshToken)

	_, err = b.Refresh(ctx, "garbage")
	assert.ErrorIs(t, err, handler.ErrInvalidRefreshToken)
	assert.EqualValues(t, 3, b.RefreshCalls())
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()
	_, err := b.SeedUser("ana@example.com", "password123", "player")
	require.NoError(t, err)
	tokens, err := b.Login(ctx, "ana@example.com", "password123")
	require.NoError(t, err)

	require.NoError(t, b.Logout(ctx, tokens.RefreshToken))
	_, err = b.Refresh(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, handler.ErrInvalidRefreshToken)

	assert.ErrorIs(t, b.Logout(ctx, tokens.AccessToken), handler.ErrInvalidRefreshToken)
}

func TestTestHooks(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()
	_, err := b.SeedUser("ana@example.com", "password123", "admin")
	require.NoError(t, err)
	tokens, err := b.Login(ctx, "ana@example.com", "password123")
	require.NoError(t, err)

	b.ExpireAccessTokens()
	_, err = b.Authenticate(tokens.AccessToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	b.FailRefresh(true)
	_, err = b.Refresh(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, handler.ErrInvalidRefreshToken)

	b.FailRefresh(false)
	_, err = b.Refresh(ctx, tokens.RefreshToken)
	assert.NoError(t, err)
}

func TestTournamentImagesStoredAsString(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()

	created, err := b.CreateTournament(ctx, handler.Record{"name": "Spring Cup", "images": []interface{}{"a.png", "b.png"}})
	require.NoError(t, err)
	assert.Equal(t, `["a.png","b.png"]`, created["images"])
	assert.Equal(t, "open", created["status"])

	id := created["id"].(string)
	require.NoError(t, b.EndTournament(ctx, id))
	got, err := b.GetTournament(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "finished", got["status"])

	require.NoError(t, b.DeleteTournament(ctx, id))
	_, err = b.GetTournament(ctx, id)
	assert.ErrorIs(t, err, handler.ErrNotFound)
}

func TestPlayersAndAdmins(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()
	admin, err := b.SeedUser("root@example.com", "password123", "admin")
	require.NoError(t, err)
	player, err := b.SeedUser("ana@example.com", "password123", "player")
	require.NoError(t, err)

	assert.True(t, b.IsAdmin(admin.ID))
	assert.False(t, b.IsAdmin(player.ID))
	assert.False(t, b.IsAdmin("missing"))

	players, err := b.ListPlayers(ctx)
	require.NoError(t, err)
	require.Len(t, players, 1)
	assert.Equal(t, player.ID, players[0]["id"])

	_, err = b.GetPlayer(ctx, admin.ID)
	assert.ErrorIs(t, err, handler.ErrNotFound)
}
