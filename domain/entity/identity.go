package entity

import (
	"encoding/json"
	"errors"
)

var ErrEmptyIdentity = errors.New("identity has no id")

// Identity is the locally cached snapshot of who is logged in. It is derived
// from unverified token claims or fetched from /auth/me and is meant for
// display only; authorization is enforced by the backend.
type Identity struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

func NewIdentity(id, email, role string) *Identity {
	return &Identity{
		ID:    id,
		Email: email,
		Role:  role,
	}
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == "admin"
}

func (i *Identity) IsCoach() bool {
	return i != nil && i.Role == "coach"
}

func (i *Identity) IsPlayer() bool {
	return i != nil && i.Role == "player"
}

// Marshal encodes the snapshot in the user_data storage format.
func (i *Identity) Marshal() (string, error) {
	if i == nil || i.ID == "" {
		return "", ErrEmptyIdentity
	}
	b, err := json.Marshal(i)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// UnmarshalIdentity decodes a stored user_data value.
func UnmarshalIdentity(raw string) (*Identity, error) {
	var id Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		return nil, err
	}
	if id.ID == "" {
		return nil, ErrEmptyIdentity
	}
	return &id, nil
}
