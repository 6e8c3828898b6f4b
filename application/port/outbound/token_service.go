package outbound

import "errors"

var ErrMalformedToken = errors.New("malformed token")

type TokenClaims struct {
	UserID    string `json:"sub"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TokenType string `json:"type"`
	ExpiresAt int64  `json:"exp"`
}

// ClaimsDecoder reads the claim segment of an access token without verifying
// its signature.
type ClaimsDecoder interface {
	DecodeClaims(token string) (*TokenClaims, error)
}
