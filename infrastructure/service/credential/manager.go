// Package credential owns the session's access token, refresh token and
// identity snapshot, mirroring them into a TokenStore.
package credential

import (
	"context"
	"errors"
	"sync"

	"github.com/tourneyhub/tourney-client/application/port/outbound"
	"github.com/tourneyhub/tourney-client/domain/entity"
	"github.com/tourneyhub/tourney-client/domain/valueobject"
	"github.com/tourneyhub/tourney-client/infrastructure/service/logger"
)

// Manager is the single source of truth for the in-memory credential. The
// store is a mirror: when it fails, the in-memory value stays authoritative
// for the lifetime of the process.
//
// generation changes whenever the session is replaced or purged (login,
// restore, clear). Results computed for an older generation are dropped.
type Manager struct {
	store   outbound.TokenStore
	decoder outbound.ClaimsDecoder
	logger  logger.Logger

	// sessionMu serializes whole-session transitions, store I/O included,
	// so a purge cannot interleave with an install.
	sessionMu sync.Mutex

	mu         sync.RWMutex
	credential valueobject.Credential
	identity   *entity.Identity
	generation uint64
}

var _ outbound.CredentialManager = (*Manager)(nil)

func NewManager(store outbound.TokenStore, decoder outbound.ClaimsDecoder, log logger.Logger) *Manager {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Manager{
		store:   store,
		decoder: decoder,
		logger:  log.WithFields(map[string]interface{}{"component": "credential_manager"}),
	}
}

// Restore loads a previous session from the store. Missing keys are fine.
func (m *Manager) Restore(ctx context.Context) {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	access, _ := m.read(ctx, outbound.KeyAccessToken)
	refresh, _ := m.read(ctx, outbound.KeyRefreshToken)

	var identity *entity.Identity
	if raw, ok := m.read(ctx, outbound.KeyUserData); ok {
		id, err := entity.UnmarshalIdentity(raw)
		if err != nil {
			m.logger.Warn(ctx, "Ignoring unreadable user_data", map[string]interface{}{"error": err.Error()})
		} else {
			identity = id
		}
	}

	m.mu.Lock()
	m.credential = *valueobject.NewCredential(access, refresh)
	m.identity = identity
	m.generation++
	m.mu.Unlock()

	m.logger.Debug(ctx, "Session restored from store", map[string]interface{}{
		"has_access_token":  access != "",
		"has_refresh_token": refresh != "",
		"has_identity":      identity != nil,
	})
}

// AccessToken is a pure read of the in-memory credential.
func (m *Manager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.credential.AccessToken
}

// SetAccessToken installs token in memory first, then mirrors it. An empty
// token removes the persisted value.
func (m *Manager) SetAccessToken(ctx context.Context, token string) {
	m.mu.Lock()
	m.credential.AccessToken = token
	m.mu.Unlock()

	if token == "" {
		m.delete(ctx, outbound.KeyAccessToken)
		return
	}
	m.write(ctx, outbound.KeyAccessToken, token)
}

// RefreshToken returns the refresh token mirrored from the store at Restore
// or installed since.
func (m *Manager) RefreshToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.credential.RefreshToken
}

func (m *Manager) SetRefreshToken(ctx context.Context, token string) {
	m.mu.Lock()
	m.credential.RefreshToken = token
	m.mu.Unlock()

	if token == "" {
		m.delete(ctx, outbound.KeyRefreshToken)
		return
	}
	m.write(ctx, outbound.KeyRefreshToken, token)
}

// Identity returns a copy of the current snapshot, or nil.
func (m *Manager) Identity() *entity.Identity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.identity == nil {
		return nil
	}
	cp := *m.identity
	return &cp
}

func (m *Manager) SetIdentity(ctx context.Context, identity *entity.Identity) {
	if identity == nil {
		return
	}
	cp := *identity

	m.mu.Lock()
	m.identity = &cp
	m.mu.Unlock()

	raw, err := cp.Marshal()
	if err != nil {
		m.logger.Warn(ctx, "Identity snapshot not persisted", map[string]interface{}{"error": err.Error()})
		return
	}
	m.write(ctx, outbound.KeyUserData, raw)
}

// DeriveIdentity decodes the claim segment of accessToken without verifying
// its signature and caches the result. This is a display convenience, not an
// authorization check. A malformed token leaves the previous snapshot alone.
func (m *Manager) DeriveIdentity(ctx context.Context, accessToken string) (*entity.Identity, bool) {
	claims, err := m.decoder.DecodeClaims(accessToken)
	if err != nil {
		m.logger.Debug(ctx, "Could not derive identity from access token", map[string]interface{}{"error": err.Error()})
		return nil, false
	}

	identity := entity.NewIdentity(claims.UserID, claims.Email, claims.Role)
	m.SetIdentity(ctx, identity)
	return identity, true
}

// Session returns the current credential and its generation as one
// consistent read.
func (m *Manager) Session() (valueobject.Credential, uint64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.credential, m.generation
}

// InstallSession replaces the whole credential, as after a login. The
// previous identity snapshot is dropped and a new generation starts.
func (m *Manager) InstallSession(ctx context.Context, cred valueobject.Credential) uint64 {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	m.mu.Lock()
	m.credential = cred
	m.identity = nil
	m.generation++
	gen := m.generation
	m.mu.Unlock()

	if cred.HasAccessToken() {
		m.write(ctx, outbound.KeyAccessToken, cred.AccessToken)
	}
	if cred.HasRefreshToken() {
		m.write(ctx, outbound.KeyRefreshToken, cred.RefreshToken)
	}
	var stale []string
	if !cred.HasAccessToken() {
		stale = append(stale, outbound.KeyAccessToken)
	}
	if !cred.HasRefreshToken() {
		stale = append(stale, outbound.KeyRefreshToken)
	}
	m.delete(ctx, append(stale, outbound.KeyUserData)...)
	return gen
}

// InstallRefreshed installs the result of a refresh started at generation
// gen. It reports false and changes nothing when the session has been
// replaced or purged since. An empty refresh token keeps the current one.
func (m *Manager) InstallRefreshed(ctx context.Context, gen uint64, cred valueobject.Credential) (*entity.Identity, bool) {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	var identity *entity.Identity
	if claims, err := m.decoder.DecodeClaims(cred.AccessToken); err == nil {
		identity = entity.NewIdentity(claims.UserID, claims.Email, claims.Role)
	}

	m.mu.Lock()
	if m.generation != gen {
		m.mu.Unlock()
		m.logger.Info(ctx, "Dropping refresh result for a replaced session", nil)
		return nil, false
	}
	m.credential.AccessToken = cred.AccessToken
	if cred.HasRefreshToken() {
		m.credential.RefreshToken = cred.RefreshToken
	}
	if identity != nil {
		cp := *identity
		m.identity = &cp
	}
	m.mu.Unlock()

	m.write(ctx, outbound.KeyAccessToken, cred.AccessToken)
	if cred.HasRefreshToken() {
		m.write(ctx, outbound.KeyRefreshToken, cred.RefreshToken)
	}
	if identity != nil {
		if raw, err := identity.Marshal(); err == nil {
			m.write(ctx, outbound.KeyUserData, raw)
		}
	}
	return identity, true
}

// ClearAuth forgets the session in memory and removes every persisted key in
// a single store call. Safe to call repeatedly.
func (m *Manager) ClearAuth(ctx context.Context) {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()
	m.clear(ctx)
}

// ExpireSession clears the session only if it is still at generation gen.
func (m *Manager) ExpireSession(ctx context.Context, gen uint64) bool {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	m.mu.RLock()
	current := m.generation
	m.mu.RUnlock()
	if current != gen {
		return false
	}
	m.clear(ctx)
	return true
}

func (m *Manager) clear(ctx context.Context) {
	m.mu.Lock()
	userID := ""
	if m.identity != nil {
		userID = m.identity.ID
	}
	m.credential = valueobject.Credential{}
	m.identity = nil
	m.generation++
	m.mu.Unlock()

	m.delete(ctx, outbound.SessionKeys...)
	logger.LogSessionEvent(ctx, m.logger, "clear_auth", userID, true, nil)
}

func (m *Manager) read(ctx context.Context, key string) (string, bool) {
	value, err := m.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, outbound.ErrTokenNotFound) {
			m.logger.Warn(ctx, "Token store read failed", map[string]interface{}{"key": key, "error": err.Error()})
		}
		return "", false
	}
	return value, value != ""
}

func (m *Manager) write(ctx context.Context, key, value string) {
	if err := m.store.Set(ctx, key, value); err != nil {
		m.logger.Warn(ctx, "Token store write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

func (m *Manager) delete(ctx context.Context, keys ...string) {
	if err := m.store.Delete(ctx, keys...); err != nil {
		m.logger.Warn(ctx, "Token store delete failed", map[string]interface{}{"keys": keys, "error": err.Error()})
	}
}
