package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tourneyhub/tourney-client/application/port/inbound"
	"github.com/tourneyhub/tourney-client/application/port/outbound"
	"github.com/tourneyhub/tourney-client/domain/entity"
	domainerror "github.com/tourneyhub/tourney-client/domain/error"
	"github.com/tourneyhub/tourney-client/domain/valueobject"
	"github.com/tourneyhub/tourney-client/infrastructure/persistence/memory"
	"github.com/tourneyhub/tourney-client/infrastructure/service/credential"
	jwtservice "github.com/tourneyhub/tourney-client/infrastructure/service/jwt"
	"github.com/tourneyhub/tourney-client/pkg/apierror"
)

type MockAuthGateway struct {
	mock.Mock
}

func (m *MockAuthGateway) Login(ctx context.Context, email, password string) (*outbound.LoginResult, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outbound.LoginResult), args.Error(1)
}

func (m *MockAuthGateway) Register(ctx context.Context, reg valueobject.Registration) (json.RawMessage, error) {
	args := m.Called(ctx, reg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockAuthGateway) Logout(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

func (m *MockAuthGateway) Me(ctx context.Context) (*entity.Identity, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Identity), args.Error(1)
}

type fixture struct {
	gateway *MockAuthGateway
	store   *memory.TokenStore
	creds   *credential.Manager
	uc      *SessionUseCase
}

func newFixture() *fixture {
	store := memory.NewTokenStore()
	creds := credential.NewManager(store, jwtservice.NewClaimsDecoder(), nil)
	gateway := new(MockAuthGateway)
	return &fixture{
		gateway: gateway,
		store:   store,
		creds:   creds,
		uc:      NewSessionUseCase(gateway, creds, nil),
	}
}

func accessToken(t *testing.T, sub, email, role string) string {
	t.Helper()
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.MapClaims{
		"sub": sub, "email": email, "role": role, "type": "access",
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	return token
}

func TestSessionUseCase_LoginSuccess(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	token := accessToken(t, "u-1", "player@example.com", "player")

	f.gateway.On("Login", ctx, "player@example.com", "password123").
		Return(&outbound.LoginResult{AccessToken: token, RefreshToken: "r-1", TokenType: "bearer"}, nil)

	identity, err := f.uc.Login(ctx, inbound.LoginRequest{Email: " player@example.com ", Password: "password123"})
	require.NoError(t, err)

	assert.Equal(t, &entity.Identity{ID: "u-1", Email: "player@example.com", Role: "player"}, identity)
	assert.Equal(t, token, f.creds.AccessToken())
	assert.Equal(t, "r-1", f.creds.RefreshToken())
	assert.True(t, f.uc.IsAuthenticated())

	for _, key := range outbound.SessionKeys {
		_, err := f.store.Get(ctx, key)
		assert.NoError(t, err, key)
	}
	f.gateway.AssertExpectations(t)
}

func TestSessionUseCase_LoginFailures(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		gwErr    error
		wantKind domainerror.Kind
		wantMsg  string
	}{
		{
			name:     "rejected credentials",
			gwErr:    apierror.FromResponse("POST", "/auth/login", 401, []byte(`{"detail":"Invalid credentials"}`)),
			wantKind: domainerror.KindInvalidCredentials,
			wantMsg:  "Invalid credentials",
		},
		{
			name:     "rate limited",
			gwErr:    apierror.FromResponse("POST", "/auth/login", 429, []byte(`{"detail":"Too many requests"}`)),
			wantKind: domainerror.KindDomain,
			wantMsg:  "Too many requests",
		},
		{
			name:     "network down",
			gwErr:    apierror.Transport("POST", "/auth/login", errors.New("connection refused")),
			wantKind: domainerror.KindTransport,
			wantMsg:  "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.gateway.On("Login", ctx, "a@b.io", "secret-pw").Return(nil, tt.gwErr)

			_, err := f.uc.Login(ctx, inbound.LoginRequest{Email: "a@b.io", Password: "secret-pw"})
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, domainerror.KindOf(err))
			assert.Equal(t, tt.wantMsg, domainerror.UserMessage(err))
			assert.Empty(t, f.creds.AccessToken())
		})
	}
}

func TestSessionUseCase_LoginValidation(t *testing.T) {
	f := newFixture()

	_, err := f.uc.Login(context.Background(), inbound.LoginRequest{Email: "nope", Password: "x"})
	assert.Equal(t, domainerror.KindValidation, domainerror.KindOf(err))

	_, err = f.uc.Login(context.Background(), inbound.LoginRequest{Email: "a@b.io"})
	assert.Equal(t, domainerror.KindValidation, domainerror.KindOf(err))

	f.gateway.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
}

func TestSessionUseCase_LoginFallsBackToMe(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.gateway.On("Login", ctx, "a@b.io", "secret-pw").Return(&outbound.LoginResult{AccessToken: "opaque"}, nil)
	f.gateway.On("Me", ctx).Return(&entity.Identity{ID: "u-2", Email: "a@b.io", Role: "coach"}, nil)

	identity, err := f.uc.Login(ctx, inbound.LoginRequest{Email: "a@b.io", Password: "secret-pw"})
	require.NoError(t, err)
	assert.Equal(t, "u-2", identity.ID)
	assert.Equal(t, identity, f.uc.CurrentIdentity())
}

func TestSessionUseCase_LoginReplacesPreviousRefreshToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.creds.SetRefreshToken(ctx, "previous-user-refresh")

	token := accessToken(t, "u-3", "c@d.io", "admin")
	f.gateway.On("Login", ctx, "c@d.io", "secret-pw").Return(&outbound.LoginResult{AccessToken: token}, nil)

	_, err := f.uc.Login(ctx, inbound.LoginRequest{Email: "c@d.io", Password: "secret-pw"})
	require.NoError(t, err)
	assert.Empty(t, f.creds.RefreshToken())
}

func TestSessionUseCase_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("validation", func(t *testing.T) {
		f := newFixture()
		_, err := f.uc.Register(ctx, inbound.RegisterRequest{Email: "a@b.io", Password: "short", Role: "player"})
		assert.ErrorIs(t, err, valueobject.ErrPasswordTooShort)
		assert.Equal(t, domainerror.KindValidation, domainerror.KindOf(err))

		_, err = f.uc.Register(ctx, inbound.RegisterRequest{Email: "a@b.io", Password: "long-enough", Role: "referee"})
		assert.ErrorIs(t, err, valueobject.ErrInvalidRole)
		f.gateway.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
	})

	t.Run("success does not authenticate", func(t *testing.T) {
		f := newFixture()
		created := json.RawMessage(`{"id":"u-9","email":"a@b.io","role":"player","avatar_url":null}`)
		f.gateway.On("Register", ctx, valueobject.Registration{
			Email: "a@b.io", Password: "long-enough", Role: "player", Nickname: "Ash",
		}).Return(created, nil)

		out, err := f.uc.Register(ctx, inbound.RegisterRequest{Email: "a@b.io", Password: "long-enough", Role: "Player", Nickname: " Ash "})
		require.NoError(t, err)
		assert.JSONEq(t, string(created), string(out))
		assert.False(t, f.uc.IsAuthenticated())
		assert.Empty(t, f.creds.AccessToken())
	})

	t.Run("backend rejection keeps detail", func(t *testing.T) {
		f := newFixture()
		f.gateway.On("Register", ctx, mock.Anything).
			Return(nil, apierror.FromResponse("POST", "/auth/register", 400, []byte(`{"detail":"email already registered"}`)))

		_, err := f.uc.Register(ctx, inbound.RegisterRequest{Email: "a@b.io", Password: "long-enough", Role: "coach"})
		require.Error(t, err)
		assert.Equal(t, "email already registered", domainerror.UserMessage(err))
	})
}

func TestSessionUseCase_RegisterAndLoginReportsLoginSeparately(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.gateway.On("Register", ctx, mock.Anything).Return(json.RawMessage(`{"id":"u-1"}`), nil)
	f.gateway.On("Login", ctx, "a@b.io", "long-enough").
		Return(nil, apierror.Transport("POST", "/auth/login", errors.New("timeout")))

	result, err := f.uc.RegisterAndLogin(ctx, inbound.RegisterRequest{Email: "a@b.io", Password: "long-enough", Role: "player"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"u-1"}`, string(result.Registered))
	assert.Nil(t, result.Identity)
	assert.Error(t, result.LoginErr)
}

func TestSessionUseCase_Logout(t *testing.T) {
	ctx := context.Background()

	t.Run("revokes and clears even when backend fails", func(t *testing.T) {
		f := newFixture()
		f.creds.SetAccessToken(ctx, "a-1")
		f.creds.SetRefreshToken(ctx, "r-1")
		f.gateway.On("Logout", ctx, "r-1").Return(errors.New("backend down")).Once()

		f.uc.Logout(ctx)

		f.gateway.AssertExpectations(t)
		assert.Empty(t, f.creds.AccessToken())
		assert.Empty(t, f.creds.RefreshToken())
		assert.Equal(t, 0, f.store.Len())
	})

	t.Run("no refresh token skips the backend", func(t *testing.T) {
		f := newFixture()
		f.creds.SetAccessToken(ctx, "a-1")

		f.uc.Logout(ctx)

		f.gateway.AssertNotCalled(t, "Logout", mock.Anything, mock.Anything)
		assert.Empty(t, f.creds.AccessToken())
	})
}

func TestSessionUseCase_Bootstrap(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing stored", func(t *testing.T) {
		f := newFixture()
		assert.Nil(t, f.uc.Bootstrap(ctx))
		f.gateway.AssertNotCalled(t, "Me", mock.Anything)
	})

	t.Run("stored snapshot wins", func(t *testing.T) {
		f := newFixture()
		require.NoError(t, f.store.Set(ctx, outbound.KeyAccessToken, "a-1"))
		require.NoError(t, f.store.Set(ctx, outbound.KeyUserData, `{"id":"u-1","email":"a@b.io","role":"player"}`))

		identity := f.uc.Bootstrap(ctx)
		require.NotNil(t, identity)
		assert.Equal(t, "u-1", identity.ID)
		assert.True(t, f.uc.IsAuthenticated())
		f.gateway.AssertNotCalled(t, "Me", mock.Anything)
	})

	t.Run("fetches and caches me", func(t *testing.T) {
		f := newFixture()
		require.NoError(t, f.store.Set(ctx, outbound.KeyRefreshToken, "r-1"))
		f.gateway.On("Me", ctx).Return(&entity.Identity{ID: "u-5", Email: "x@y.io", Role: "coach", AvatarURL: "https://cdn/x.png"}, nil).Once()

		identity := f.uc.Bootstrap(ctx)
		require.NotNil(t, identity)
		assert.Equal(t, "https://cdn/x.png", identity.AvatarURL)

		raw, err := f.store.Get(ctx, outbound.KeyUserData)
		require.NoError(t, err)
		assert.Contains(t, raw, `"u-5"`)
	})

	t.Run("failure clears session", func(t *testing.T) {
		f := newFixture()
		require.NoError(t, f.store.Set(ctx, outbound.KeyAccessToken, "a-1"))
		require.NoError(t, f.store.Set(ctx, outbound.KeyRefreshToken, "r-1"))
		f.gateway.On("Me", ctx).Return(nil, domainerror.ErrRefreshExhausted(
			apierror.FromResponse("GET", "/auth/me", 401, nil)))

		assert.Nil(t, f.uc.Bootstrap(ctx))
		assert.Empty(t, f.creds.AccessToken())
		assert.Equal(t, 0, f.store.Len())
		assert.False(t, f.uc.IsAuthenticated())
	})
}
