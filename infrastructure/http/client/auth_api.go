package client

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/tourneyhub/tourney-client/application/port/outbound"
	"github.com/tourneyhub/tourney-client/domain/entity"
	"github.com/tourneyhub/tourney-client/domain/valueobject"
)

// AuthAPI is the /auth surface of the backend.
type AuthAPI struct {
	client *Client
}

var _ outbound.AuthGateway = (*AuthAPI)(nil)

func NewAuthAPI(c *Client) *AuthAPI {
	return &AuthAPI{client: c}
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerPayload struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Role     string  `json:"role"`
	Nickname *string `json:"nickname,omitempty"`
}

type refreshPayload struct {
	RefreshToken string `json:"refresh_token"`
}

func (a *AuthAPI) Login(ctx context.Context, email, password string) (*outbound.LoginResult, error) {
	resp, err := a.client.Do(ctx, &Request{
		Method: http.MethodPost,
		Path:   PathLogin,
		Body:   loginPayload{Email: email, Password: password},
	})
	if err != nil {
		return nil, err
	}

	var out outbound.LoginResult
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *AuthAPI) Register(ctx context.Context, reg valueobject.Registration) (json.RawMessage, error) {
	payload := registerPayload{
		Email:    reg.Email,
		Password: reg.Password,
		Role:     reg.Role,
	}
	if reg.Nickname != "" {
		nickname := reg.Nickname
		payload.Nickname = &nickname
	}

	resp, err := a.client.Do(ctx, &Request{
		Method: http.MethodPost,
		Path:   PathRegister,
		Body:   payload,
	})
	if err != nil {
		return nil, err
	}
	return resp.Raw(), nil
}

// Logout revokes refreshToken. It never takes part in a refresh cycle.
func (a *AuthAPI) Logout(ctx context.Context, refreshToken string) error {
	_, err := a.client.Do(ctx, &Request{
		Method:  http.MethodPost,
		Path:    PathLogout,
		Body:    refreshPayload{RefreshToken: refreshToken},
		NoRetry: true,
	})
	return err
}

func (a *AuthAPI) Me(ctx context.Context) (*entity.Identity, error) {
	resp, err := a.client.Get(ctx, PathMe, nil)
	if err != nil {
		return nil, err
	}

	var identity entity.Identity
	if err := resp.Decode(&identity); err != nil {
		return nil, err
	}
	return &identity, nil
}
