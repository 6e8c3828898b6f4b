package client

import (
	"net/http"

	"github.com/tourneyhub/tourney-client/application/port/outbound"
)

// decorator attaches credentials and ambient headers to each transmission.
// The credential is read at send time, so a replay picks up the token
// installed by the refresh it waited on.
type decorator struct {
	creds       outbound.CredentialManager
	userAgent   string
	adminUserID string
}

// apply decorates r and returns the bearer token it attached ("" if none).
func (d *decorator) apply(r *http.Request, path string, hasBody bool, correlationID string) string {
	r.Header.Set("Accept", "application/json")
	if hasBody {
		r.Header.Set("Content-Type", "application/json")
	}
	if d.userAgent != "" {
		r.Header.Set("User-Agent", d.userAgent)
	}
	if correlationID != "" {
		r.Header.Set(HeaderCorrelationID, correlationID)
	}

	if IsPublic(path) {
		r.Header.Del("Authorization")
		return ""
	}

	if d.adminUserID != "" && IsAdmin(path) {
		r.Header.Set(HeaderUserID, d.adminUserID)
	}

	token := d.creds.AccessToken()
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return token
}
