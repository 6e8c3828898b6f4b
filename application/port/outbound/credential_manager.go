package outbound

import (
	"context"

	"github.com/tourneyhub/tourney-client/domain/entity"
	"github.com/tourneyhub/tourney-client/domain/valueobject"
)

// CredentialManager is the single owner of the in-memory credential and
// identity snapshot. Store failures never surface from these methods.
type CredentialManager interface {
	AccessToken() string
	SetAccessToken(ctx context.Context, token string)
	RefreshToken() string
	SetRefreshToken(ctx context.Context, token string)
	Identity() *entity.Identity
	SetIdentity(ctx context.Context, identity *entity.Identity)
	DeriveIdentity(ctx context.Context, accessToken string) (*entity.Identity, bool)
	Restore(ctx context.Context)
	ClearAuth(ctx context.Context)

	// Session, InstallSession, InstallRefreshed and ExpireSession work on
	// whole-session generations. A login or clear starts a new generation,
	// and a refresh result or refresh failure only applies to the generation
	// it was started from.
	Session() (valueobject.Credential, uint64)
	InstallSession(ctx context.Context, cred valueobject.Credential) uint64
	InstallRefreshed(ctx context.Context, gen uint64, cred valueobject.Credential) (*entity.Identity, bool)
	ExpireSession(ctx context.Context, gen uint64) bool
}
