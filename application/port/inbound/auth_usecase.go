package inbound

import (
	"context"
	"encoding/json"

	"github.com/tourneyhub/tourney-client/domain/entity"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Nickname string `json:"nickname,omitempty"`
}

// RegisterAndLoginResult separates the two steps: a failed convenience login
// after a successful registration is not a registration failure.
type RegisterAndLoginResult struct {
	Registered json.RawMessage
	Identity   *entity.Identity
	LoginErr   error
}

type SessionUseCase interface {
	Login(ctx context.Context, req LoginRequest) (*entity.Identity, error)
	Register(ctx context.Context, req RegisterRequest) (json.RawMessage, error)
	RegisterAndLogin(ctx context.Context, req RegisterRequest) (*RegisterAndLoginResult, error)
	Logout(ctx context.Context)
	Bootstrap(ctx context.Context) *entity.Identity
	Me(ctx context.Context) (*entity.Identity, error)
	CurrentIdentity() *entity.Identity
	IsAuthenticated() bool
}
