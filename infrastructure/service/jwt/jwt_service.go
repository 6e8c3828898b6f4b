package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tourneyhub/tourney-client/application/port/outbound"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// ClaimsDecoder reads claims without verifying the signature. The result is
// for display; the backend remains the authorization boundary.
type ClaimsDecoder struct {
	parser *jwt.Parser
}

func NewClaimsDecoder() *ClaimsDecoder {
	return &ClaimsDecoder{parser: jwt.NewParser()}
}

func (d *ClaimsDecoder) DecodeClaims(tokenString string) (*outbound.TokenClaims, error) {
	if strings.Count(tokenString, ".") != 2 {
		return nil, outbound.ErrMalformedToken
	}

	token, _, err := d.parser.ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", outbound.ErrMalformedToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, outbound.ErrMalformedToken
	}
	return mapClaims(claims)
}

func mapClaims(claims jwt.MapClaims) (*outbound.TokenClaims, error) {
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, outbound.ErrMalformedToken
	}

	out := &outbound.TokenClaims{UserID: sub}
	out.Email, _ = claims["email"].(string)
	out.Role, _ = claims["role"].(string)
	out.TokenType, _ = claims["type"].(string)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Unix()
	}
	return out, nil
}

// SignerConfig configures the HS256 token issuer used by the development backend.
type SignerConfig struct {
	AccessSecret    string
	RefreshSecret   string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// JWTService issues and validates access and refresh tokens the way the
// tournament backend does: separate secrets, a "type" claim and a jti on
// refresh tokens.
type JWTService struct {
	config        SignerConfig
	accessSecret  []byte
	refreshSecret []byte
	now           func() time.Time
}

func NewJWTService(cfg SignerConfig) (*JWTService, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, fmt.Errorf("jwt secrets are required")
	}
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = 15 * time.Minute
	}
	if cfg.RefreshTokenTTL <= 0 {
		cfg.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	return &JWTService{
		config:        cfg,
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		now:           time.Now,
	}, nil
}

func (s *JWTService) GenerateAccessToken(claims outbound.TokenClaims) (string, error) {
	return s.GenerateAccessTokenWithTTL(claims, s.config.AccessTokenTTL)
}

func (s *JWTService) GenerateAccessTokenWithTTL(claims outbound.TokenClaims, ttl time.Duration) (string, error) {
	now := s.now()
	tokenClaims := jwt.MapClaims{
		"sub":   claims.UserID,
		"email": claims.Email,
		"role":  claims.Role,
		"exp":   now.Add(ttl).Unix(),
		"iat":   now.Unix(),
		"type":  TokenTypeAccess,
		"jti":   uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims)
	tokenString, err := token.SignedString(s.accessSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return tokenString, nil
}

// GenerateRefreshToken returns the signed token and its jti.
func (s *JWTService) GenerateRefreshToken(userID string) (string, string, error) {
	now := s.now()
	jti := uuid.NewString()
	tokenClaims := jwt.MapClaims{
		"sub":  userID,
		"exp":  now.Add(s.config.RefreshTokenTTL).Unix(),
		"iat":  now.Unix(),
		"type": TokenTypeRefresh,
		"jti":  jti,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims)
	tokenString, err := token.SignedString(s.refreshSecret)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return tokenString, jti, nil
}

func (s *JWTService) ValidateAccessToken(tokenString string) (*outbound.TokenClaims, error) {
	claims, err := s.parse(tokenString, s.accessSecret)
	if err != nil {
		return nil, err
	}
	out, err := mapClaims(claims)
	if err != nil || out.TokenType != TokenTypeAccess {
		return nil, ErrInvalidToken
	}
	return out, nil
}

// ValidateRefreshToken returns the subject and jti of a refresh token.
func (s *JWTService) ValidateRefreshToken(tokenString string) (string, string, error) {
	claims, err := s.parse(tokenString, s.refreshSecret)
	if err != nil {
		return "", "", err
	}
	if t, _ := claims["type"].(string); t != TokenTypeRefresh {
		return "", "", ErrInvalidToken
	}
	sub, _ := claims.GetSubject()
	jti, _ := claims["jti"].(string)
	if sub == "" || jti == "" {
		return "", "", ErrInvalidToken
	}
	return sub, jti, nil
}

func (s *JWTService) parse(tokenString string, secret []byte) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, s.handleValidationError(err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *JWTService) handleValidationError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return ErrTokenExpired
	}
	return ErrInvalidToken
}
