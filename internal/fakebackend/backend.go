// Package fakebackend is an in-memory implementation of the tournament
// backend's auth contract, used for local development and end-to-end tests
// of the session client.
package fakebackend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tourneyhub/tourney-client/application/port/outbound"
	"github.com/tourneyhub/tourney-client/domain/entity"
	"github.com/tourneyhub/tourney-client/infrastructure/http/handler"
	"github.com/tourneyhub/tourney-client/infrastructure/service/jwt"
	"github.com/tourneyhub/tourney-client/infrastructure/service/logger"
	"github.com/tourneyhub/tourney-client/infrastructure/service/password"
)

var ErrTokenRevoked = errors.New("access token revoked")

type Options struct {
	Tokens     jwt.SignerConfig
	BcryptCost int
	Logger     logger.Logger
}

type user struct {
	id           string
	email        string
	passwordHash string
	role         string
	nickname     string
	avatarURL    string
	active       bool
}

func (u *user) identity() *entity.Identity {
	return &entity.Identity{
		ID:        u.id,
		Email:     u.email,
		Role:      u.role,
		AvatarURL: u.avatarURL,
	}
}

type refreshRecord struct {
	userID     string
	revoked    bool
	replacedBy string
}

// Backend holds users, refresh-token records, issued access tokens and
// tournaments. All state is lost on restart.
type Backend struct {
	mu          sync.RWMutex
	users       map[string]*user
	emails      map[string]string
	refresh     map[string]*refreshRecord
	issued      map[string]struct{}
	tournaments map[string]handler.Record

	tokens    *jwt.JWTService
	passwords *password.BcryptPasswordService
	log       logger.Logger
	accessTTL time.Duration

	refreshCalls atomic.Int64
	failRefresh  atomic.Bool
	refreshDelay atomic.Int64
}

func New(opts Options) (*Backend, error) {
	tokens, err := jwt.NewJWTService(opts.Tokens)
	if err != nil {
		return nil, fmt.Errorf("token service: %w", err)
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}
	accessTTL := opts.Tokens.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}

	return &Backend{
		users:       make(map[string]*user),
		emails:      make(map[string]string),
		refresh:     make(map[string]*refreshRecord),
		issued:      make(map[string]struct{}),
		tournaments: make(map[string]handler.Record),
		tokens:      tokens,
		passwords:   password.NewBcryptPasswordService(opts.BcryptCost),
		log:         log,
		accessTTL:   accessTTL,
	}, nil
}

func (b *Backend) Login(ctx context.Context, email, pass string) (*outbound.LoginResult, error) {
	b.mu.RLock()
	u := b.userByEmail(email)
	b.mu.RUnlock()

	if u == nil || !u.active {
		logger.LogSessionEvent(ctx, b.log, "backend_login", "", false, map[string]interface{}{"email": email})
		return nil, handler.ErrInvalidCredentials
	}
	ok, err := b.passwords.VerifyPassword(pass, u.passwordHash)
	if err != nil || !ok {
		logger.LogSessionEvent(ctx, b.log, "backend_login", u.id, false, nil)
		return nil, handler.ErrInvalidCredentials
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	tokens, err := b.issueTokens(u)
	if err != nil {
		return nil, err
	}
	logger.LogSessionEvent(ctx, b.log, "backend_login", u.id, true, nil)
	return tokens, nil
}

func (b *Backend) Register(ctx context.Context, req handler.RegisterRequest) (*entity.Identity, error) {
	nickname := ""
	if req.Nickname != nil {
		nickname = *req.Nickname
	}
	u, err := b.addUser(req.Email, req.Password, req.Role, nickname)
	if err != nil {
		return nil, err
	}
	logger.LogSessionEvent(ctx, b.log, "backend_register", u.id, true, map[string]interface{}{"role": u.role})
	return u.identity(), nil
}

// Refresh validates the refresh token against its stored jti, revokes it and
// issues a new pair.
func (b *Backend) Refresh(ctx context.Context, refreshToken string) (*outbound.LoginResult, error) {
	b.refreshCalls.Add(1)
	if d := time.Duration(b.refreshDelay.Load()); d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if b.failRefresh.Load() {
		return nil, handler.ErrInvalidRefreshToken
	}

	sub, jti, err := b.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, handler.ErrRefreshExpired
		}
		return nil, handler.ErrInvalidRefreshToken
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.refresh[jti]
	if !ok || rec.revoked || rec.userID != sub {
		logger.LogSecurityEvent(ctx, b.log, "refresh_token_rejected", "MEDIUM", map[string]interface{}{
			"user_id": sub,
			"known":   ok,
		})
		return nil, handler.ErrInvalidRefreshToken
	}
	u, ok := b.users[sub]
	if !ok || !u.active {
		return nil, handler.ErrInvalidRefreshToken
	}

	tokens, newJTI, err := b.issueTokensWithJTI(u)
	if err != nil {
		return nil, err
	}
	rec.revoked = true
	rec.replacedBy = newJTI
	logger.LogSessionEvent(ctx, b.log, "backend_refresh", u.id, true, nil)
	return tokens, nil
}

func (b *Backend) Logout(ctx context.Context, refreshToken string) error {
	_, jti, err := b.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return handler.ErrInvalidRefreshToken
	}

	b.mu.Lock()
	if rec, ok := b.refresh[jti]; ok {
		rec.revoked = true
	}
	b.mu.Unlock()

	logger.LogSessionEvent(ctx, b.log, "backend_logout", "", true, nil)
	return nil
}

func (b *Backend) Me(_ context.Context, userID string) (*entity.Identity, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	u, ok := b.users[userID]
	if !ok || !u.active {
		return nil, handler.ErrUserNotFound
	}
	return u.identity(), nil
}

// Authenticate accepts access tokens this backend issued and has not expired
// through ExpireAccessTokens.
func (b *Backend) Authenticate(token string) (*outbound.TokenClaims, error) {
	claims, err := b.tokens.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}

	b.mu.RLock()
	_, ok := b.issued[token]
	b.mu.RUnlock()
	if !ok {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

func (b *Backend) IsAdmin(userID string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	u, ok := b.users[userID]
	return ok && u.active && u.role == "admin"
}

// SeedUser registers a user directly, bypassing HTTP validation.
func (b *Backend) SeedUser(email, pass, role string) (*entity.Identity, error) {
	u, err := b.addUser(email, pass, role, "")
	if err != nil {
		return nil, err
	}
	return u.identity(), nil
}

// RefreshCalls counts /auth/refresh hits, including rejected ones.
func (b *Backend) RefreshCalls() int64 {
	return b.refreshCalls.Load()
}

// ExpireAccessTokens invalidates every access token issued so far.
func (b *Backend) ExpireAccessTokens() {
	b.mu.Lock()
	b.issued = make(map[string]struct{})
	b.mu.Unlock()
}

// FailRefresh makes every refresh attempt answer 401 while set.
func (b *Backend) FailRefresh(fail bool) {
	b.failRefresh.Store(fail)
}

// SetRefreshDelay holds each refresh for d before answering.
func (b *Backend) SetRefreshDelay(d time.Duration) {
	b.refreshDelay.Store(int64(d))
}

func (b *Backend) ListTournaments(_ context.Context) ([]handler.Record, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]handler.Record, 0, len(b.tournaments))
	for _, t := range b.tournaments {
		out = append(out, copyRecord(t))
	}
	sort.Slice(out, func(i, j int) bool {
		ci, _ := out[i]["created_at"].(string)
		cj, _ := out[j]["created_at"].(string)
		if ci == cj {
			ii, _ := out[i]["id"].(string)
			ij, _ := out[j]["id"].(string)
			return ii < ij
		}
		return ci < cj
	})
	return out, nil
}

func (b *Backend) GetTournament(_ context.Context, id string) (handler.Record, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	t, ok := b.tournaments[id]
	if !ok {
		return nil, handler.ErrNotFound
	}
	return copyRecord(t), nil
}

// CreateTournament stores images the way the backend's text column does:
// a JSON-encoded string.
func (b *Backend) CreateTournament(_ context.Context, data handler.Record) (handler.Record, error) {
	t := copyRecord(data)
	t["id"] = uuid.NewString()
	t["created_at"] = time.Now().UTC().Format(time.RFC3339Nano)
	if _, ok := t["status"]; !ok {
		t["status"] = "open"
	}
	if err := encodeImages(t); err != nil {
		return nil, err
	}

	b.mu.Lock()
	b.tournaments[t["id"].(string)] = t
	b.mu.Unlock()
	return copyRecord(t), nil
}

func (b *Backend) UpdateTournament(_ context.Context, id string, data handler.Record) (handler.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.tournaments[id]
	if !ok {
		return nil, handler.ErrNotFound
	}
	for k, v := range data {
		if k == "id" || k == "created_at" {
			continue
		}
		t[k] = v
	}
	if err := encodeImages(t); err != nil {
		return nil, err
	}
	return copyRecord(t), nil
}

func (b *Backend) DeleteTournament(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.tournaments[id]; !ok {
		return handler.ErrNotFound
	}
	delete(b.tournaments, id)
	return nil
}

func (b *Backend) EndTournament(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.tournaments[id]
	if !ok {
		return handler.ErrNotFound
	}
	t["status"] = "finished"
	return nil
}

func (b *Backend) ListPlayers(_ context.Context) ([]handler.Record, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]handler.Record, 0)
	for _, u := range b.users {
		if u.role == "player" {
			out = append(out, playerRecord(u))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i]["email"].(string) < out[j]["email"].(string)
	})
	return out, nil
}

func (b *Backend) GetPlayer(_ context.Context, id string) (handler.Record, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	u, ok := b.users[id]
	if !ok || u.role != "player" {
		return nil, handler.ErrNotFound
	}
	return playerRecord(u), nil
}

func (b *Backend) addUser(email, pass, role, nickname string) (*user, error) {
	hash, err := b.passwords.HashPassword(pass)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.userByEmail(email) != nil {
		return nil, handler.ErrEmailTaken
	}
	u := &user{
		id:           uuid.NewString(),
		email:        email,
		passwordHash: hash,
		role:         role,
		nickname:     nickname,
		active:       true,
	}
	b.users[u.id] = u
	b.emails[strings.ToLower(email)] = u.id
	return u, nil
}

// userByEmail expects b.mu to be held.
func (b *Backend) userByEmail(email string) *user {
	id, ok := b.emails[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil
	}
	return b.users[id]
}

// issueTokens expects b.mu to be held for writing.
func (b *Backend) issueTokens(u *user) (*outbound.LoginResult, error) {
	tokens, _, err := b.issueTokensWithJTI(u)
	return tokens, err
}

func (b *Backend) issueTokensWithJTI(u *user) (*outbound.LoginResult, string, error) {
	access, err := b.tokens.GenerateAccessToken(outbound.TokenClaims{
		UserID: u.id,
		Email:  u.email,
		Role:   u.role,
	})
	if err != nil {
		return nil, "", err
	}
	refresh, jti, err := b.tokens.GenerateRefreshToken(u.id)
	if err != nil {
		return nil, "", err
	}

	b.issued[access] = struct{}{}
	b.refresh[jti] = &refreshRecord{userID: u.id}
	return &outbound.LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int(b.accessTTL.Seconds()),
	}, jti, nil
}

func playerRecord(u *user) handler.Record {
	return handler.Record{
		"id":         u.id,
		"email":      u.email,
		"nickname":   u.nickname,
		"avatar_url": u.avatarURL,
		"is_active":  u.active,
	}
}

func encodeImages(t handler.Record) error {
	images, ok := t["images"]
	if !ok || images == nil {
		return nil
	}
	if _, isString := images.(string); isString {
		return nil
	}
	b, err := json.Marshal(images)
	if err != nil {
		return fmt.Errorf("encode images: %w", err)
	}
	t["images"] = string(b)
	return nil
}

func copyRecord(r handler.Record) handler.Record {
	out := make(handler.Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
