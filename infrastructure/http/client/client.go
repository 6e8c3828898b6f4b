// Package client is the session-aware HTTP client for the tournament backend.
// It attaches the current credential to every call, turns an expired-session
// 401 into a single shared refresh, and replays the failed call once.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tourneyhub/tourney-client/application/port/outbound"
	domainerror "github.com/tourneyhub/tourney-client/domain/error"
	"github.com/tourneyhub/tourney-client/domain/valueobject"
	"github.com/tourneyhub/tourney-client/infrastructure/service/logger"
	"github.com/tourneyhub/tourney-client/pkg/apierror"
)

const (
	PathLogin    = "/auth/login"
	PathRegister = "/auth/register"
	PathRefresh  = "/auth/refresh"
	PathLogout   = "/auth/logout"
	PathMe       = "/auth/me"

	adminPrefix = "/admin"

	HeaderCorrelationID = "X-Correlation-ID"
	HeaderUserID        = "X-User-Id"

	defaultTimeout        = 30 * time.Second
	defaultRefreshTimeout = 10 * time.Second
	defaultUserAgent      = "tourney-client/1.0"
	maxResponseBody       = 10 << 20
)

var (
	ErrNoCredentialManager = errors.New("credential manager is required")
	ErrInvalidBaseURL      = errors.New("base URL must be an absolute http(s) URL")
)

type Options struct {
	BaseURL string

	// HTTPClient defaults to a client with Timeout.
	HTTPClient *http.Client
	Timeout    time.Duration

	// RefreshTimeout bounds a refresh call independently of the caller
	// that triggered it.
	RefreshTimeout time.Duration

	UserAgent string

	// AdminUserID is sent as X-User-Id on /admin requests. Only set it in
	// development.
	AdminUserID string

	Logger     logger.Logger
	Registerer prometheus.Registerer
}

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	creds      outbound.CredentialManager
	decorator  *decorator
	refresher  *refresher
	metrics    *metrics
	logger     logger.Logger
}

func New(creds outbound.CredentialManager, opts Options) (*Client, error) {
	if creds == nil {
		return nil, ErrNoCredentialManager
	}

	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, opts.BaseURL)
	}

	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RefreshTimeout <= 0 {
		opts.RefreshTimeout = defaultRefreshTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}
	log = log.WithFields(map[string]interface{}{"component": "api_client"})

	c := &Client{
		baseURL:    base,
		httpClient: httpClient,
		creds:      creds,
		metrics:    newMetrics(opts.Registerer),
		logger:     log,
		decorator: &decorator{
			creds:       creds,
			userAgent:   opts.UserAgent,
			adminUserID: opts.AdminUserID,
		},
	}
	c.refresher = newRefresher(creds, c.exchangeRefreshToken, opts.RefreshTimeout, log, c.metrics)

	if opts.AdminUserID != "" {
		logger.LogSecurityEvent(context.Background(), log, "admin_header_override_enabled", "MEDIUM", map[string]interface{}{
			"admin_user_id": opts.AdminUserID,
		})
	}
	return c, nil
}

// Credentials exposes the manager the client decorates requests from.
func (c *Client) Credentials() outbound.CredentialManager {
	return c.creds
}

// Do sends req and, on an expired-session 401, refreshes once and replays.
// Non-2xx responses are returned as *apierror.Error, possibly wrapped in a
// session error from the domain error catalog.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	resp, err := c.do(ctx, req)
	c.metrics.observeRequest(err)
	return resp, err
}

func (c *Client) do(ctx context.Context, req *Request) (*Response, error) {
	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	correlationID := logger.CorrelationID(ctx)
	if correlationID == "" {
		correlationID = uuid.NewString()
		ctx = logger.WithCorrelationID(ctx, correlationID)
	}

	d := dispatch{
		req:           req,
		body:          body,
		correlationID: correlationID,
		attempt:       1,
	}

	resp, sentToken, err := c.send(ctx, d)
	if err == nil {
		return resp, nil
	}
	return c.handleFailure(ctx, d, sentToken, err)
}

// handleFailure decides what a failed first attempt turns into.
func (c *Client) handleFailure(ctx context.Context, d dispatch, sentToken string, err error) (*Response, error) {
	var apiErr *apierror.Error
	if !errors.As(err, &apiErr) || !apiErr.IsUnauthorized() {
		return nil, err
	}
	if d.attempt > 1 || d.req.NoRetry || IsPublic(d.req.Path) {
		return nil, err
	}

	cycle, joinErr := c.refresher.join(ctx, sentToken)
	switch {
	case errors.Is(joinErr, errTokenReplaced):
		c.logger.Debug(ctx, "Replaying with newer access token", map[string]interface{}{"path": d.req.Path})
		return c.replay(ctx, d)
	case errors.Is(joinErr, errNoRefreshToken):
		return nil, domainerror.ErrUnauthenticated(err)
	}

	if waitErr := c.refresher.wait(ctx, cycle); waitErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, apierror.Transport(d.req.Method, d.req.Path, ctxErr)
		}
		return nil, domainerror.ErrRefreshExhausted(err)
	}
	return c.replay(ctx, d)
}

func (c *Client) replay(ctx context.Context, d dispatch) (*Response, error) {
	c.metrics.observeReplay()

	resp, _, err := c.send(ctx, d.replay())
	if err == nil {
		return resp, nil
	}
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) && apiErr.IsUnauthorized() {
		return nil, domainerror.ErrSessionExpired(err)
	}
	return nil, err
}

// send performs one transmission and returns the bearer token it carried.
func (c *Client) send(ctx context.Context, d dispatch) (*Response, string, error) {
	method := d.req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if d.body != nil {
		body = bytes.NewReader(d.body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.resolve(d.req), body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build request: %w", err)
	}
	for k, vs := range d.req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	token := c.decorator.apply(httpReq, d.req.Path, d.body != nil, d.correlationID)

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn(ctx, "Request failed without response", map[string]interface{}{
			"method":  method,
			"path":    d.req.Path,
			"attempt": d.attempt,
			"error":   err.Error(),
		})
		return nil, token, apierror.Transport(method, d.req.Path, err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
	if err != nil {
		return nil, token, apierror.Transport(method, d.req.Path, err)
	}

	logger.LogPerformance(ctx, c.logger, "http_request", time.Since(start), map[string]interface{}{
		"method":  method,
		"path":    d.req.Path,
		"status":  httpResp.StatusCode,
		"attempt": d.attempt,
	})

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, token, apierror.FromResponse(method, d.req.Path, httpResp.StatusCode, raw)
	}
	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       raw,
	}, token, nil
}

// resolve joins the base URL and req.Path. Path segments are expected to be
// escaped by the caller already.
func (c *Client) resolve(req *Request) string {
	path := req.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	target := strings.TrimRight(c.baseURL.String(), "/") + path
	if len(req.Query) > 0 {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		target += sep + req.Query.Encode()
	}
	return target
}

// exchangeRefreshToken calls the refresh endpoint. It bypasses handleFailure so a
// 401 from the refresh endpoint can never start another refresh.
func (c *Client) exchangeRefreshToken(ctx context.Context, refreshToken string) (*valueobject.Credential, error) {
	body, err := encodeBody(refreshPayload{RefreshToken: refreshToken})
	if err != nil {
		return nil, err
	}
	correlationID := logger.CorrelationID(ctx)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}

	resp, _, err := c.send(ctx, dispatch{
		req:           &Request{Method: http.MethodPost, Path: PathRefresh, NoRetry: true},
		body:          body,
		correlationID: correlationID,
		attempt:       1,
	})
	if err != nil {
		return nil, err
	}

	var out outbound.LoginResult
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return valueobject.NewCredential(out.AccessToken, out.RefreshToken), nil
}

func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
}

func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body})
}

func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body})
}

func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPatch, Path: path, Body: body})
}

func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path})
}
