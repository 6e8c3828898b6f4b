package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tourneyhub/tourney-client/application/port/outbound"
	"github.com/tourneyhub/tourney-client/infrastructure/service/logger"
)

type stubAuthenticator map[string]*outbound.TokenClaims

func (s stubAuthenticator) Authenticate(token string) (*outbound.TokenClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

type stubAdmins map[string]bool

func (s stubAdmins) IsAdmin(userID string) bool {
	return s[userID]
}

func claimsEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetUserClaims(r.Context())
		if claims == nil {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		_, _ = w.Write([]byte(claims.UserID))
	})
}

func TestRequireAuth(t *testing.T) {
	auth := NewAuthMiddleware(stubAuthenticator{
		"h.good.sig": {UserID: "u-1", Role: "player"},
		"opaque":     {UserID: "u-2", Role: "player"},
	}, nil)
	h := auth.RequireAuth(claimsEcho())

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic h.good.sig", http.StatusUnauthorized},
		{"invalid", "Bearer h.bad.sig", http.StatusUnauthorized},
		{"not a jwt", "Bearer opaque", http.StatusUnauthorized},
		{"too many segments", "Bearer h.good.sig.x", http.StatusUnauthorized},
		{"valid", "Bearer h.good.sig", http.StatusOK},
		{"scheme is case insensitive", "bearer h.good.sig", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	authenticator := stubAuthenticator{
		"h.admin.sig":  {UserID: "a-1", Role: "admin"},
		"h.player.sig": {UserID: "p-1", Role: "player"},
		"opaque-admin": {UserID: "a-2", Role: "admin"},
	}

	tests := []struct {
		name   string
		admins AdminDirectory
		bearer string
		userID string
		status int
		body   string
	}{
		{name: "admin token", bearer: "h.admin.sig", status: http.StatusOK, body: "a-1"},
		{name: "player token", bearer: "h.player.sig", status: http.StatusForbidden},
		{name: "bad token", bearer: "h.bad.sig", status: http.StatusUnauthorized},
		{name: "malformed token is rejected before lookup", bearer: "opaque-admin", status: http.StatusUnauthorized},
		{name: "header ignored without directory", userID: "a-1", status: http.StatusUnauthorized},
		{name: "header naming admin", admins: stubAdmins{"a-1": true}, userID: "a-1", status: http.StatusOK, body: "a-1"},
		{name: "header naming non-admin", admins: stubAdmins{"a-1": true}, userID: "p-1", status: http.StatusForbidden},
		{name: "token wins over header", admins: stubAdmins{"a-1": true}, bearer: "h.player.sig", userID: "a-1", status: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAuthMiddleware(authenticator, tt.admins).RequireAdmin(claimsEcho())
			req := httptest.NewRequest(http.MethodGet, "/admin/players/", nil)
			if tt.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tt.bearer)
			}
			if tt.userID != "" {
				req.Header.Set(UserIDHeader, tt.userID)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestCorrelationIDMiddleware(t *testing.T) {
	var seen string
	h := CorrelationIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.CorrelationID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(CorrelationIDHeader, "cid-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "cid-1", seen)
	assert.Equal(t, "cid-1", rec.Header().Get(CorrelationIDHeader))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.NotEqual(t, "cid-1", seen)
	assert.Equal(t, seen, rec.Header().Get(CorrelationIDHeader))
}
