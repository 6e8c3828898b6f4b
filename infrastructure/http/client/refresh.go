package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tourneyhub/tourney-client/application/port/outbound"
	"github.com/tourneyhub/tourney-client/domain/valueobject"
	"github.com/tourneyhub/tourney-client/infrastructure/service/logger"
)

var (
	errNoRefreshToken     = errors.New("no refresh token")
	errTokenReplaced      = errors.New("access token already replaced")
	errMissingAccessToken = errors.New("refresh response has no access_token")
	errSessionReplaced    = errors.New("session replaced during refresh")
)

type refreshState int

const (
	stateIdle refreshState = iota
	stateRefreshing
	stateFailed
)

func (s refreshState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateRefreshing:
		return "refreshing"
	case stateFailed:
		return "failed"
	}
	return "unknown"
}

// refreshCycle is one call to the refresh endpoint for session generation
// gen. done is closed after the outcome has been applied to the credential
// manager.
type refreshCycle struct {
	done  chan struct{}
	gen   uint64
	token string
	err   error
}

type exchangeFunc func(ctx context.Context, refreshToken string) (*valueobject.Credential, error)

// refresher serializes refresh calls: at most one cycle exists at a time and
// every 401 that arrives while it runs waits on it.
type refresher struct {
	creds    outbound.CredentialManager
	exchange exchangeFunc
	timeout  time.Duration
	logger   logger.Logger
	metrics  *metrics

	mu    sync.Mutex
	state refreshState
	cycle *refreshCycle
}

func newRefresher(creds outbound.CredentialManager, exchange exchangeFunc, timeout time.Duration, log logger.Logger, m *metrics) *refresher {
	return &refresher{
		creds:    creds,
		exchange: exchange,
		timeout:  timeout,
		logger:   log,
		metrics:  m,
	}
}

func (r *refresher) currentState() refreshState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// join returns the cycle in flight or starts a new one. When no cycle is
// running it fails with errTokenReplaced if the credential has changed since
// sentToken was attached, or errNoRefreshToken if there is nothing to
// refresh with. In the latter case the session is expired.
func (r *refresher) join(ctx context.Context, sentToken string) (*refreshCycle, error) {
	r.mu.Lock()
	if r.cycle != nil {
		c := r.cycle
		r.mu.Unlock()
		return c, nil
	}

	// A finished cycle installs its token before releasing the cycle, so
	// this read sees it.
	cred, gen := r.creds.Session()
	if cred.HasAccessToken() && cred.AccessToken != sentToken {
		r.mu.Unlock()
		return nil, errTokenReplaced
	}
	if !cred.HasRefreshToken() {
		r.mu.Unlock()
		r.creds.ExpireSession(ctx, gen)
		return nil, errNoRefreshToken
	}

	c := &refreshCycle{done: make(chan struct{}), gen: gen}
	r.cycle = c
	r.state = stateRefreshing
	r.mu.Unlock()

	// The refresh outlives the caller that triggered it; other waiters
	// depend on its result.
	go r.run(context.WithoutCancel(ctx), c, cred.RefreshToken)
	return c, nil
}

func (r *refresher) run(ctx context.Context, c *refreshCycle, refreshToken string) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	result, err := r.exchange(ctx, refreshToken)
	if err == nil && (result == nil || !result.HasAccessToken()) {
		err = errMissingAccessToken
	}
	r.metrics.observeRefresh(err)
	logger.LogPerformance(ctx, r.logger, "token_refresh", time.Since(start), map[string]interface{}{
		"success": err == nil,
	})

	if err != nil {
		r.mu.Lock()
		r.state = stateFailed
		r.mu.Unlock()

		// A login or logout since the cycle started owns the session now.
		cleared := r.creds.ExpireSession(ctx, c.gen)
		r.logger.Warn(ctx, "Token refresh failed", map[string]interface{}{
			"error":           err.Error(),
			"session_cleared": cleared,
		})
	} else if identity, ok := r.creds.InstallRefreshed(ctx, c.gen, *result); !ok {
		err = errSessionReplaced
	} else {
		userID := ""
		if identity != nil {
			userID = identity.ID
		}
		logger.LogSessionEvent(ctx, r.logger, "token_refreshed", userID, true, map[string]interface{}{
			"rotated": result.HasRefreshToken(),
		})
		c.token = result.AccessToken
	}
	c.err = err

	r.mu.Lock()
	r.cycle = nil
	r.state = stateIdle
	r.mu.Unlock()

	close(c.done)
}

// wait blocks until c settles or ctx is done. A cancelled waiter does not
// affect the cycle or the other waiters.
func (r *refresher) wait(ctx context.Context, c *refreshCycle) error {
	select {
	case <-c.done:
		return c.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
