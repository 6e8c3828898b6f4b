package error

import (
	"context"
	"errors"
	"fmt"

	"github.com/tourneyhub/tourney-client/pkg/apierror"
)

// ErrorCode represents a unique error code
type ErrorCode string

const (
	// Session errors (1xxx)
	ErrCodeUnauthenticated  ErrorCode = "SESSION_1001"
	ErrCodeSessionExpired   ErrorCode = "SESSION_1002"
	ErrCodeRefreshExhausted ErrorCode = "SESSION_1003"

	// Authentication errors (2xxx)
	ErrCodeInvalidCredentials ErrorCode = "AUTH_2001"
	ErrCodeLoginFailed        ErrorCode = "AUTH_2002"
	ErrCodeRegisterFailed     ErrorCode = "AUTH_2003"

	// Validation errors (3xxx)
	ErrCodeValidation ErrorCode = "VALID_3001"

	// Backend errors (4xxx)
	ErrCodeDomain ErrorCode = "API_4001"

	// Transport errors (5xxx)
	ErrCodeTransport ErrorCode = "NET_5001"

	// Local errors (6xxx)
	ErrCodeStorage       ErrorCode = "STORE_6001"
	ErrCodeConfiguration ErrorCode = "CONFIG_6002"
)

// Kind is the caller-facing classification of a failed operation.
type Kind int

const (
	KindNone Kind = iota
	KindUnauthenticated
	KindExpiredSession
	KindRefreshExhausted
	KindInvalidCredentials
	KindValidation
	KindDomain
	KindTransport
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindExpiredSession:
		return "expired_session"
	case KindRefreshExhausted:
		return "refresh_exhausted"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindValidation:
		return "validation"
	case KindDomain:
		return "domain"
	case KindTransport:
		return "transport"
	case KindStorage:
		return "storage"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// AppError represents a structured application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string, details string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}

// Session errors keep the message of the response that caused them, so the
// UI explains the original failure rather than the refresh attempt.

func ErrUnauthenticated(cause error) *AppError {
	return NewAppError(ErrCodeUnauthenticated, messageOr(cause, "Not authenticated"), "", cause)
}

func ErrSessionExpired(cause error) *AppError {
	return NewAppError(ErrCodeSessionExpired, messageOr(cause, "Session expired"), "", cause)
}

func ErrRefreshExhausted(cause error) *AppError {
	return NewAppError(ErrCodeRefreshExhausted, messageOr(cause, "Session expired, please log in again"), "", cause)
}

// Authentication errors

func ErrInvalidCredentials(cause error) *AppError {
	return NewAppError(ErrCodeInvalidCredentials, messageOr(cause, "Invalid credentials"), "", cause)
}

func ErrLoginFailed(cause error) *AppError {
	return NewAppError(ErrCodeLoginFailed, messageOr(cause, "Login failed"), "", cause)
}

func ErrRegisterFailed(cause error) *AppError {
	return NewAppError(ErrCodeRegisterFailed, messageOr(cause, "Registration failed"), "", cause)
}

// Validation errors

func ErrValidation(cause error) *AppError {
	return NewAppError(ErrCodeValidation, messageOr(cause, "Invalid input"), "", cause)
}

// Local errors

func ErrStorage(operation string, cause error) *AppError {
	return NewAppError(ErrCodeStorage, "Token storage failed", fmt.Sprintf("Operation: %s", operation), cause)
}

func ErrConfiguration(config string) *AppError {
	return NewAppError(ErrCodeConfiguration, "Configuration error", fmt.Sprintf("Config: %s", config), nil)
}

// KindOf classifies err for the consumer layer.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case ErrCodeUnauthenticated:
			return KindUnauthenticated
		case ErrCodeSessionExpired:
			return KindExpiredSession
		case ErrCodeRefreshExhausted:
			return KindRefreshExhausted
		case ErrCodeInvalidCredentials:
			return KindInvalidCredentials
		case ErrCodeValidation:
			return KindValidation
		case ErrCodeStorage, ErrCodeConfiguration:
			return KindStorage
		}
		// Login/register wrappers classify by what they wrap.
		if appErr.Cause != nil {
			return KindOf(appErr.Cause)
		}
		return KindDomain
	}

	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		if apiErr.IsTransport() {
			return KindTransport
		}
		return KindDomain
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindTransport
	}
	return KindDomain
}

// RequiresLogin reports whether the consumer should send the user back to
// the login view.
func RequiresLogin(err error) bool {
	switch KindOf(err) {
	case KindUnauthenticated, KindExpiredSession, KindRefreshExhausted:
		return true
	}
	return false
}

// UserMessage returns the best human-readable message carried by err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return err.Error()
}

func messageOr(cause error, fallback string) string {
	if cause == nil {
		return fallback
	}
	var apiErr *apierror.Error
	if errors.As(cause, &apiErr) {
		return apiErr.Error()
	}
	var appErr *AppError
	if errors.As(cause, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	if msg := cause.Error(); msg != "" {
		return msg
	}
	return fallback
}
