package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tourneyhub/tourney-client/application/port/inbound"
	"github.com/tourneyhub/tourney-client/application/port/outbound"
	"github.com/tourneyhub/tourney-client/domain/entity"
	domainerror "github.com/tourneyhub/tourney-client/domain/error"
	"github.com/tourneyhub/tourney-client/domain/valueobject"
	"github.com/tourneyhub/tourney-client/infrastructure/service/logger"
	"github.com/tourneyhub/tourney-client/pkg/apierror"
)

var ErrMissingAccessToken = errors.New("login response has no access_token")

type SessionUseCase struct {
	gateway outbound.AuthGateway
	creds   outbound.CredentialManager
	logger  logger.Logger
}

var _ inbound.SessionUseCase = (*SessionUseCase)(nil)

func NewSessionUseCase(
	gateway outbound.AuthGateway,
	creds outbound.CredentialManager,
	log logger.Logger,
) *SessionUseCase {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &SessionUseCase{
		gateway: gateway,
		creds:   creds,
		logger:  log.WithFields(map[string]interface{}{"component": "session_usecase"}),
	}
}

// Login exchanges credentials for a session and returns the identity it
// belongs to. It is never retried.
func (uc *SessionUseCase) Login(ctx context.Context, req inbound.LoginRequest) (*entity.Identity, error) {
	credentials, err := valueobject.NewCredentials(req.Email, req.Password)
	if err != nil {
		return nil, domainerror.ErrValidation(err)
	}

	result, err := uc.gateway.Login(ctx, credentials.Email(), credentials.Password())
	if err != nil {
		logger.LogSessionEvent(ctx, uc.logger, "login", "", false, map[string]interface{}{
			"email":  credentials.Email(),
			"status": apierror.StatusCode(err),
		})
		if apierror.StatusCode(err) == http.StatusUnauthorized {
			return nil, domainerror.ErrInvalidCredentials(err)
		}
		return nil, domainerror.ErrLoginFailed(err)
	}
	if result.AccessToken == "" {
		return nil, domainerror.ErrLoginFailed(ErrMissingAccessToken)
	}

	// A login without a refresh token must not keep a previous user's.
	gen := uc.creds.InstallSession(ctx, result.Credential())

	identity, ok := uc.creds.DeriveIdentity(ctx, result.AccessToken)
	if !ok {
		identity, err = uc.gateway.Me(ctx)
		if err != nil {
			uc.creds.ExpireSession(ctx, gen)
			return nil, domainerror.ErrLoginFailed(err)
		}
		uc.creds.SetIdentity(ctx, identity)
	}

	logger.LogSessionEvent(ctx, uc.logger, "login", identity.ID, true, map[string]interface{}{
		"role":              identity.Role,
		"has_refresh_token": result.RefreshToken != "",
	})
	return identity, nil
}

// Register creates an account and returns the backend's representation of
// it. It does not log in.
func (uc *SessionUseCase) Register(ctx context.Context, req inbound.RegisterRequest) (json.RawMessage, error) {
	reg, err := valueobject.NewRegistration(req.Email, req.Password, req.Role, req.Nickname)
	if err != nil {
		return nil, domainerror.ErrValidation(err)
	}

	created, err := uc.gateway.Register(ctx, *reg)
	if err != nil {
		logger.LogSessionEvent(ctx, uc.logger, "register", "", false, map[string]interface{}{
			"email":  reg.Email,
			"status": apierror.StatusCode(err),
		})
		return nil, domainerror.ErrRegisterFailed(err)
	}

	logger.LogSessionEvent(ctx, uc.logger, "register", "", true, map[string]interface{}{
		"email": reg.Email,
		"role":  reg.Role,
	})
	return created, nil
}

// RegisterAndLogin registers and then logs in with the same credentials. A
// failed login is reported in the result, not as the returned error.
func (uc *SessionUseCase) RegisterAndLogin(ctx context.Context, req inbound.RegisterRequest) (*inbound.RegisterAndLoginResult, error) {
	created, err := uc.Register(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &inbound.RegisterAndLoginResult{Registered: created}
	identity, err := uc.Login(ctx, inbound.LoginRequest{Email: req.Email, Password: req.Password})
	if err != nil {
		result.LoginErr = err
		return result, nil
	}
	result.Identity = identity
	return result, nil
}

// Logout revokes the refresh token when there is one and always clears the
// local session, whatever the backend says.
func (uc *SessionUseCase) Logout(ctx context.Context) {
	userID := ""
	if identity := uc.creds.Identity(); identity != nil {
		userID = identity.ID
	}

	if refreshToken := uc.creds.RefreshToken(); refreshToken != "" {
		if err := uc.gateway.Logout(ctx, refreshToken); err != nil {
			uc.logger.Warn(ctx, "Logout request failed, clearing session anyway", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	uc.creds.ClearAuth(ctx)
	logger.LogSessionEvent(ctx, uc.logger, "logout", userID, true, nil)
}

// Bootstrap resumes a persisted session. It returns nil when there is no
// usable session and never fails.
func (uc *SessionUseCase) Bootstrap(ctx context.Context) *entity.Identity {
	uc.creds.Restore(ctx)

	if uc.creds.AccessToken() == "" && uc.creds.RefreshToken() == "" {
		return nil
	}
	if identity := uc.creds.Identity(); identity != nil {
		return identity
	}

	identity, err := uc.gateway.Me(ctx)
	if err != nil || identity == nil || identity.ID == "" {
		fields := map[string]interface{}{}
		if err != nil {
			fields["error"] = err.Error()
		}
		uc.logger.Warn(ctx, "Could not resume session", fields)
		uc.creds.ClearAuth(ctx)
		return nil
	}

	uc.creds.SetIdentity(ctx, identity)
	logger.LogSessionEvent(ctx, uc.logger, "bootstrap", identity.ID, true, nil)
	return identity
}

// Me fetches the identity from the backend and refreshes the cached snapshot.
func (uc *SessionUseCase) Me(ctx context.Context) (*entity.Identity, error) {
	identity, err := uc.gateway.Me(ctx)
	if err != nil {
		return nil, err
	}
	uc.creds.SetIdentity(ctx, identity)
	return identity, nil
}

func (uc *SessionUseCase) CurrentIdentity() *entity.Identity {
	return uc.creds.Identity()
}

func (uc *SessionUseCase) IsAuthenticated() bool {
	if uc.creds.Identity() == nil {
		return false
	}
	return uc.creds.AccessToken() != "" || uc.creds.RefreshToken() != ""
}
