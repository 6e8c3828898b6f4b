package valueobject

// Credential is the access/refresh token pair held by a session.
// An empty string means the token is absent. A present access token may be expired.
type Credential struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

func NewCredential(accessToken, refreshToken string) *Credential {
	return &Credential{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}
}

func (c *Credential) HasAccessToken() bool {
	return c != nil && c.AccessToken != ""
}

func (c *Credential) HasRefreshToken() bool {
	return c != nil && c.RefreshToken != ""
}
