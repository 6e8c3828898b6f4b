package outbound

import (
	"context"
	"encoding/json"

	"github.com/tourneyhub/tourney-client/domain/entity"
	"github.com/tourneyhub/tourney-client/domain/valueobject"
)

type LoginResult struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
}

func (r *LoginResult) Credential() valueobject.Credential {
	return *valueobject.NewCredential(r.AccessToken, r.RefreshToken)
}

// AuthGateway is the backend /auth surface as seen through the session client.
type AuthGateway interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Register(ctx context.Context, reg valueobject.Registration) (json.RawMessage, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context) (*entity.Identity, error)
}
