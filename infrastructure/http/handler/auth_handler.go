package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/tourneyhub/tourney-client/application/port/outbound"
	"github.com/tourneyhub/tourney-client/domain/entity"
	"github.com/tourneyhub/tourney-client/infrastructure/http/middleware"
	"github.com/tourneyhub/tourney-client/infrastructure/http/response"
	"github.com/tourneyhub/tourney-client/infrastructure/http/validator"
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshExpired      = errors.New("refresh token expired")
	ErrUserNotFound        = errors.New("user not found")
	ErrNotFound            = errors.New("not found")
)

// AuthBackend is the account and token store behind the /auth routes.
type AuthBackend interface {
	Login(ctx context.Context, email, password string) (*outbound.LoginResult, error)
	Register(ctx context.Context, req RegisterRequest) (*entity.Identity, error)
	Refresh(ctx context.Context, refreshToken string) (*outbound.LoginResult, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, userID string) (*entity.Identity, error)
}

type AuthHandler struct {
	backend AuthBackend
}

func NewAuthHandler(backend AuthBackend) *AuthHandler {
	return &AuthHandler{
		backend: backend,
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Role     string  `json:"role"`
	Nickname *string `json:"nickname,omitempty"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) RegisterRoutes(r *mux.Router, auth *middleware.AuthMiddleware) {
	r.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/auth/register", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/auth/refresh", h.Refresh).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", h.Logout).Methods(http.MethodPost)
	r.Handle("/auth/me", auth.RequireAuth(http.HandlerFunc(h.Me))).Methods(http.MethodGet)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if !validator.ValidateEmail(req.Email) {
		response.UnprocessableEntity(w, "value is not a valid email address")
		return
	}
	if !validator.ValidateRequired(req.Password) {
		response.UnprocessableEntity(w, "Password is required")
		return
	}

	tokens, err := h.backend.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			response.Unauthorized(w, "Invalid credentials")
			return
		}
		response.InternalServerError(w, "Internal server error")
		return
	}

	response.Success(w, http.StatusOK, tokens)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	req.Role = strings.ToLower(strings.TrimSpace(req.Role))
	switch {
	case !validator.ValidateEmail(req.Email):
		response.UnprocessableEntity(w, "value is not a valid email address")
		return
	case !validator.ValidatePassword(req.Password):
		response.UnprocessableEntity(w, "String should have at least 8 characters")
		return
	case !validator.ValidateRole(req.Role):
		response.UnprocessableEntity(w, "Input should be 'player', 'coach' or 'admin'")
		return
	}

	identity, err := h.backend.Register(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			response.BadRequest(w, "Email already registered")
			return
		}
		response.InternalServerError(w, "Internal server error")
		return
	}

	response.Success(w, http.StatusCreated, identity)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		response.BadRequest(w, "Missing refresh_token")
		return
	}

	tokens, err := h.backend.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, ErrRefreshExpired):
			response.Unauthorized(w, "Refresh token expired")
		case errors.Is(err, ErrInvalidRefreshToken):
			response.Unauthorized(w, "Refresh token invalid or revoked")
		default:
			response.InternalServerError(w, "Internal server error")
		}
		return
	}

	response.Success(w, http.StatusOK, tokens)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.RefreshToken == "" {
		response.BadRequest(w, "Missing refresh token")
		return
	}

	if err := h.backend.Logout(r.Context(), req.RefreshToken); err != nil {
		if errors.Is(err, ErrInvalidRefreshToken) || errors.Is(err, ErrRefreshExpired) {
			response.Unauthorized(w, "Invalid token")
			return
		}
		response.InternalServerError(w, "Internal server error")
		return
	}

	response.Success(w, http.StatusOK, response.ErrorBody{Detail: "Logged out (refresh token revoked)"})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserClaims(r.Context())
	if claims == nil || claims.UserID == "" {
		response.Unauthorized(w, "Invalid token payload")
		return
	}

	identity, err := h.backend.Me(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			response.NotFound(w, "User not found")
			return
		}
		response.InternalServerError(w, "Internal server error")
		return
	}

	response.Success(w, http.StatusOK, identity)
}
