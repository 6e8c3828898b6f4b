package error

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tourneyhub/tourney-client/pkg/apierror"
)

func TestKindOf(t *testing.T) {
	unauthorized := apierror.FromResponse(http.MethodGet, "/coach/teams", http.StatusUnauthorized, []byte(`{"detail":"Token expired"}`))
	notFound := apierror.FromResponse(http.MethodGet, "/tournaments/1", http.StatusNotFound, nil)
	transport := apierror.Transport(http.MethodGet, "/tournaments", errors.New("connection reset"))

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "nil", err: nil, want: KindNone},
		{name: "unauthenticated", err: ErrUnauthenticated(unauthorized), want: KindUnauthenticated},
		{name: "expired session", err: ErrSessionExpired(unauthorized), want: KindExpiredSession},
		{name: "refresh exhausted", err: ErrRefreshExhausted(unauthorized), want: KindRefreshExhausted},
		{name: "invalid credentials", err: ErrInvalidCredentials(unauthorized), want: KindInvalidCredentials},
		{name: "validation", err: ErrValidation(errors.New("invalid email format")), want: KindValidation},
		{name: "login over transport", err: ErrLoginFailed(transport), want: KindTransport},
		{name: "domain", err: notFound, want: KindDomain},
		{name: "transport", err: transport, want: KindTransport},
		{name: "wrapped transport", err: fmt.Errorf("list: %w", transport), want: KindTransport},
		{name: "context", err: context.DeadlineExceeded, want: KindTransport},
		{name: "storage", err: ErrStorage("set", errors.New("disk full")), want: KindStorage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err), tt.want.String())
		})
	}
}

func TestSessionErrorsKeepOriginal(t *testing.T) {
	original := apierror.FromResponse(http.MethodGet, "/players/me", http.StatusUnauthorized, []byte(`{"detail":"Invalid token"}`))
	err := ErrRefreshExhausted(original)

	var apiErr *apierror.Error
	assert.True(t, errors.As(err, &apiErr))
	assert.Same(t, original, apiErr)
	assert.Equal(t, "Invalid token", UserMessage(err))
	assert.True(t, RequiresLogin(err))
	assert.False(t, RequiresLogin(original))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, "plain", UserMessage(errors.New("plain")))
	assert.Equal(t, "Not authenticated", UserMessage(ErrUnauthenticated(nil)))
	assert.Equal(t, "Configuration error", UserMessage(ErrConfiguration("TOKEN_STORE")))
}
