package validator

import (
	"net/mail"
	"regexp"
	"strings"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

func ValidateEmail(email string) bool {
	if email == "" {
		return false
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return false
	}

	return emailRegex.MatchString(strings.ToLower(email))
}

// ValidatePassword applies the register endpoint's minimum length.
func ValidatePassword(password string) bool {
	return len(password) >= 8
}

func ValidateRequired(value string) bool {
	return strings.TrimSpace(value) != ""
}

func ValidateRole(role string) bool {
	switch role {
	case "player", "coach", "admin":
		return true
	}
	return false
}

// ValidateJWT checks the three-segment shape only.
func ValidateJWT(token string) bool {
	if token == "" {
		return false
	}
	return len(strings.Split(token, ".")) == 3
}
