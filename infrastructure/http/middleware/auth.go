package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/tourneyhub/tourney-client/application/port/outbound"
	"github.com/tourneyhub/tourney-client/infrastructure/http/response"
	"github.com/tourneyhub/tourney-client/infrastructure/http/validator"
)

type ctxKey string

const authUserKey ctxKey = "auth_user"

const UserIDHeader = "X-User-Id"

// TokenAuthenticator validates an access token and returns its claims.
type TokenAuthenticator interface {
	Authenticate(token string) (*outbound.TokenClaims, error)
}

// AdminDirectory resolves the legacy X-User-Id header to an admin.
type AdminDirectory interface {
	IsAdmin(userID string) bool
}

type AuthMiddleware struct {
	authenticator TokenAuthenticator
	admins        AdminDirectory
}

// NewAuthMiddleware builds the middleware. A nil admins disables the
// X-User-Id fallback on admin routes.
func NewAuthMiddleware(authenticator TokenAuthenticator, admins AdminDirectory) *AuthMiddleware {
	return &AuthMiddleware{
		authenticator: authenticator,
		admins:        admins,
	}
}

func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok || !validator.ValidateJWT(token) {
			response.Unauthorized(w, "Missing or invalid token")
			return
		}

		claims, err := m.authenticator.Authenticate(token)
		if err != nil {
			response.Unauthorized(w, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), authUserKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin accepts a bearer token with role=admin, or, when an admin
// directory is configured, an X-User-Id naming an admin.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token, ok := bearerToken(r); ok {
			if !validator.ValidateJWT(token) {
				response.Unauthorized(w, "Invalid token")
				return
			}
			claims, err := m.authenticator.Authenticate(token)
			if err != nil {
				response.Unauthorized(w, "Invalid token")
				return
			}
			if claims.Role != "admin" {
				response.Forbidden(w, "User is not admin")
				return
			}
			ctx := context.WithValue(r.Context(), authUserKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		userID := r.Header.Get(UserIDHeader)
		if userID == "" || m.admins == nil {
			response.Unauthorized(w, "Missing credentials")
			return
		}
		if !m.admins.IsAdmin(userID) {
			response.Forbidden(w, "User is not admin")
			return
		}
		ctx := context.WithValue(r.Context(), authUserKey, &outbound.TokenClaims{UserID: userID, Role: "admin"})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserClaims retrieves user claims from context
func GetUserClaims(ctx context.Context) *outbound.TokenClaims {
	if claims, ok := ctx.Value(authUserKey).(*outbound.TokenClaims); ok {
		return claims
	}
	return nil
}

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
