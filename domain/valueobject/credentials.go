package valueobject

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrInvalidEmail     = errors.New("invalid email format")
	ErrPasswordRequired = errors.New("password is required")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrInvalidRole      = errors.New("role must be one of player, coach, admin")
)

const MinPasswordLength = 8

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Roles accepted by the backend register endpoint.
const (
	RolePlayer = "player"
	RoleCoach  = "coach"
	RoleAdmin  = "admin"
)

type Credentials struct {
	email    string
	password string
}

// NewCredentials validates the shape of a login attempt. Password strength is
// the server's business at login time, so only presence is checked.
func NewCredentials(email, password string) (*Credentials, error) {
	email = strings.TrimSpace(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}
	return &Credentials{
		email:    email,
		password: password,
	}, nil
}

func (c *Credentials) Email() string {
	return c.email
}

func (c *Credentials) Password() string {
	return c.password
}

// Registration is a validated sign-up payload.
type Registration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Nickname string `json:"nickname,omitempty"`
}

func NewRegistration(email, password, role, nickname string) (*Registration, error) {
	email = strings.TrimSpace(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	role = strings.ToLower(strings.TrimSpace(role))
	if !IsKnownRole(role) {
		return nil, ErrInvalidRole
	}
	return &Registration{
		Email:    email,
		Password: password,
		Role:     role,
		Nickname: strings.TrimSpace(nickname),
	}, nil
}

func IsKnownRole(role string) bool {
	switch role {
	case RolePlayer, RoleCoach, RoleAdmin:
		return true
	}
	return false
}

func validateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return ErrPasswordRequired
	}
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}
