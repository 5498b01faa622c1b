// Package gateway wraps all outbound calls to the backend. It injects tenant
// and identity headers before every request and runs the refresh-and-retry
// protocol when an access token is rejected, so callers never see a 401 that
// a refresh could have recovered.
package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/jrsteele09/taskboard-client/credentials"
	"github.com/jrsteele09/taskboard-client/internal/apierrors"
	"github.com/jrsteele09/taskboard-client/tenants"
)

// Headers set by the gateway on outbound requests.
const (
	HeaderAuthorization   = "Authorization"
	HeaderTenantSubdomain = "X-Tenant-Subdomain"
	HeaderContentType     = "Content-Type"
	HeaderRequestID       = "X-Request-ID"

	contentTypeJSON = "application/json"
	refreshPath     = "/auth/refresh"
)

// refreshKey is the singleflight key shared by all concurrent refresh
// attempts, so simultaneous 401s coalesce into one backend call.
const refreshKey = "token-refresh"

// Gateway sends requests to the backend with tenant and identity headers
// attached, refreshing the access token once per failed request.
type Gateway struct {
	baseURL    string
	originHost string
	httpClient *http.Client
	store      credentials.Store
	resolver   *tenants.Resolver
	logger     zerolog.Logger
	metrics    *Metrics

	refreshGroup singleflight.Group
	onTerminated func()
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(g *Gateway) {
		g.httpClient = client
	}
}

// WithLogger sets the gateway logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// WithRegisterer registers the gateway metrics with reg instead of a private
// registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(g *Gateway) {
		g.metrics = NewMetrics(reg)
	}
}

// WithSessionTerminatedHandler sets the callback invoked when a refresh
// fails terminally. The credential store has already been cleared when the
// callback runs; the embedding application routes the user back to login.
func WithSessionTerminatedHandler(handler func()) Option {
	return func(g *Gateway) {
		g.onTerminated = handler
	}
}

// New creates a gateway for the backend at baseURL.
func New(baseURL string, store credentials.Store, resolver *tenants.Resolver, options ...Option) (*Gateway, error) {
	if store == nil {
		return nil, errors.New("[gateway.New] credential store is required")
	}
	if resolver == nil {
		return nil, errors.New("[gateway.New] tenant resolver is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "[gateway.New] parse base URL")
	}
	if u.Host == "" {
		return nil, errors.Errorf("[gateway.New] base URL missing host: %q", baseURL)
	}

	g := &Gateway{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		originHost: u.Hostname(),
		httpClient: http.DefaultClient,
		store:      store,
		resolver:   resolver,
		logger:     zerolog.Nop(),
	}
	for _, opt := range options {
		opt(g)
	}
	if g.metrics == nil {
		g.metrics = NewMetrics(prometheus.NewRegistry())
	}
	return g, nil
}

// Metrics exposes the gateway counters.
func (g *Gateway) Metrics() *Metrics {
	return g.metrics
}

// Send transmits the request with tenant and identity headers attached.
// On a 401 it attempts exactly one token refresh and replay; the replay's
// outcome is returned as-is. All other failures propagate unchanged.
func (g *Gateway) Send(ctx context.Context, req Request) (*Response, error) {
	resp, err := g.transmit(ctx, req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	if resp.StatusCode == http.StatusUnauthorized && req.Attempt == 0 {
		return g.refreshAndRetry(ctx, req, resp)
	}

	return nil, apiError(resp)
}

// transmit performs a single HTTP exchange, running the pre-send
// interception (tenant header, bearer token) against current stored state.
func (g *Gateway) transmit(ctx context.Context, req Request) (*Response, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, g.baseURL+req.Path, body)
	if err != nil {
		return nil, errors.Wrapf(err, "[Gateway.Send] build %s %s", req.Method, req.Path)
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	httpReq.Header.Set(HeaderContentType, contentTypeJSON)

	requestID := uuid.New().String()
	httpReq.Header.Set(HeaderRequestID, requestID)

	if subdomain, ok := g.resolver.Resolve(g.originHost); ok {
		httpReq.Header.Set(HeaderTenantSubdomain, subdomain)
	}
	if token, ok := g.store.Get(credentials.KeyAccessToken); ok && token != "" {
		httpReq.Header.Set(HeaderAuthorization, "Bearer "+token)
	}

	g.metrics.RequestsTotal.Inc()
	httpResp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrapf(err, "[Gateway.Send] %s %s", req.Method, req.Path)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "[Gateway.Send] read response body for %s %s", req.Method, req.Path)
	}

	g.logger.Debug().
		Str("method", req.Method).
		Str("path", req.Path).
		Str("request_id", requestID).
		Int("attempt", req.Attempt).
		Int("status", httpResp.StatusCode).
		Msg("backend request")

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       respBody,
	}, nil
}

// refreshAndRetry runs the 401 recovery protocol: refresh the access token
// (coalescing concurrent attempts), then replay the request exactly once with
// the new token. A terminal refresh failure clears the credential store and
// notifies the session-terminated handler.
func (g *Gateway) refreshAndRetry(ctx context.Context, req Request, original *Response) (*Response, error) {
	refreshToken, ok := g.store.Get(credentials.KeyRefreshToken)
	if !ok || refreshToken == "" {
		// A 401 on a request that carried no access token is a plain
		// authentication failure (e.g. a rejected login), not a dead
		// session. Only an established session with no way to refresh is
		// terminal.
		if accessToken, hadToken := g.store.Get(credentials.KeyAccessToken); !hadToken || accessToken == "" {
			return nil, apiError(original)
		}
		return nil, g.terminate(req, apiError(original))
	}

	_, err, shared := g.refreshGroup.Do(refreshKey, func() (any, error) {
		return nil, g.refresh(ctx, refreshToken)
	})
	if err != nil {
		g.metrics.RefreshFailuresTotal.Inc()
		return nil, g.terminate(req, err)
	}

	g.logger.Debug().
		Str("method", req.Method).
		Str("path", req.Path).
		Bool("shared_refresh", shared).
		Msg("access token refreshed, retrying request")

	g.metrics.RetriesTotal.Inc()
	return g.Send(ctx, req.retried())
}

// terminate clears the credential store, notifies the session-terminated
// handler, and wraps cause as a SessionTerminated error.
func (g *Gateway) terminate(req Request, cause error) error {
	if clearErr := g.store.ClearAll(); clearErr != nil {
		g.logger.Error().Err(clearErr).Msg("failed to clear credentials after refresh failure")
	}
	if g.onTerminated != nil {
		g.onTerminated()
	}
	g.logger.Warn().
		Str("method", req.Method).
		Str("path", req.Path).
		Err(cause).
		Msg("token refresh failed, session terminated")
	return fmt.Errorf("%w: %w", apierrors.ErrSessionTerminated, cause)
}

// refresh obtains a new access token, authorized by the refresh token rather
// than the rejected access token, and stores it.
func (g *Gateway) refresh(ctx context.Context, refreshToken string) error {
	g.metrics.RefreshesTotal.Inc()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+refreshPath, nil)
	if err != nil {
		return errors.Wrap(err, "[Gateway.refresh] build request")
	}
	httpReq.Header.Set(HeaderContentType, contentTypeJSON)
	httpReq.Header.Set(HeaderAuthorization, "Bearer "+refreshToken)
	if subdomain, ok := g.resolver.Resolve(g.originHost); ok {
		httpReq.Header.Set(HeaderTenantSubdomain, subdomain)
	}

	httpResp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return errors.Wrap(err, "[Gateway.refresh] refresh call")
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return errors.Wrap(err, "[Gateway.refresh] read response body")
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return apiError(&Response{StatusCode: httpResp.StatusCode, Body: respBody})
	}

	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := (&Response{Body: respBody}).DecodeJSON(&result); err != nil {
		return errors.Wrap(err, "[Gateway.refresh] decode response")
	}
	if result.AccessToken == "" {
		return errors.New("[Gateway.refresh] backend returned empty access token")
	}

	if err := g.store.Set(credentials.KeyAccessToken, result.AccessToken); err != nil {
		return errors.Wrap(err, "[Gateway.refresh] store access token")
	}
	return nil
}

// apiError converts a non-2xx response into an APIError, surfacing the
// backend's error message when present.
func apiError(resp *Response) error {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	message := ""
	if err := resp.DecodeJSON(&payload); err == nil {
		message = payload.Error
		if message == "" {
			message = payload.Message
		}
	}
	return apierrors.NewAPIError(resp.StatusCode, message)
}
