// Package session orchestrates login, registration, logout and startup
// rehydration, and exposes the current-user state and role checks consumed
// by the presentation layer.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/taskboard-client/api"
	"github.com/jrsteele09/taskboard-client/credentials"
	"github.com/jrsteele09/taskboard-client/internal/apierrors"
	"github.com/jrsteele09/taskboard-client/users"
)

// State is the controller's position in the session lifecycle.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticating  State = "authenticating"
	StateRehydrating     State = "rehydrating"
	StateAuthenticated   State = "authenticated"
)

// AuthService is the slice of the backend auth API the controller drives.
// *api.AuthAPI satisfies it.
type AuthService interface {
	Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error)
	Login(ctx context.Context, email, password string) (*api.LoginResponse, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*users.User, error)
}

// Snapshot is the observable session state pushed to subscribers.
type Snapshot struct {
	State State
	User  *users.User
}

// Controller owns the Session as a single source of truth. All state
// transitions go through it; other components read snapshots only.
type Controller struct {
	store  credentials.Store
	auth   AuthService
	logger zerolog.Logger

	mu          sync.RWMutex
	state       State
	user        *users.User
	subscribers []func(Snapshot)
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// New creates a controller in the Unauthenticated state.
func New(store credentials.Store, auth AuthService, options ...Option) (*Controller, error) {
	if store == nil {
		return nil, errors.New("[session.New] credential store is required")
	}
	if auth == nil {
		return nil, errors.New("[session.New] auth service is required")
	}
	c := &Controller{
		store:  store,
		auth:   auth,
		logger: zerolog.Nop(),
		state:  StateUnauthenticated,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Subscribe registers fn for state-change notifications and invokes it
// immediately with the current snapshot.
func (c *Controller) Subscribe(fn func(Snapshot)) {
	c.mu.Lock()
	c.subscribers = append(c.subscribers, fn)
	snapshot := c.snapshotLocked()
	c.mu.Unlock()
	fn(snapshot)
}

// Rehydrate reconstructs the session from a persisted access token at
// startup. The stored token is trusted only after the backend confirms it by
// returning the current profile; any failure clears the store and leaves the
// controller Unauthenticated.
func (c *Controller) Rehydrate(ctx context.Context) {
	token, ok := c.store.Get(credentials.KeyAccessToken)
	if !ok || token == "" {
		c.setState(StateUnauthenticated, nil)
		return
	}

	c.setState(StateRehydrating, nil)
	user, err := c.auth.Me(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("stored session could not be rehydrated")
		if clearErr := c.store.ClearAll(); clearErr != nil {
			c.logger.Error().Err(clearErr).Msg("failed to clear credentials")
		}
		c.setState(StateUnauthenticated, nil)
		return
	}
	c.setState(StateAuthenticated, user)
}

// Login authenticates against the given tenant. The tenant key is persisted
// before the call so the login request itself, and everything after it,
// carries the tenant header on development hosts.
func (c *Controller) Login(ctx context.Context, email, password, tenantKey string) error {
	if tenantKey != "" {
		if err := c.store.Set(credentials.KeyTenantSubdomain, tenantKey); err != nil {
			return errors.Wrap(err, "[Controller.Login] persist tenant key")
		}
	}

	c.setState(StateAuthenticating, nil)
	resp, err := c.auth.Login(ctx, email, password)
	if err != nil {
		c.setState(StateUnauthenticated, nil)
		if code := apierrors.StatusCode(err); code >= 400 && code < 500 {
			return fmt.Errorf("%w: %w", apierrors.ErrAuthentication, err)
		}
		return err
	}

	if err := credentials.SaveTokens(c.store, credentials.TokenPair{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}); err != nil {
		c.setState(StateUnauthenticated, nil)
		return errors.Wrap(err, "[Controller.Login] persist tokens")
	}

	user := resp.User
	c.setState(StateAuthenticated, &user)
	return nil
}

// Register creates a tenant with its admin user. It persists the tenant key
// but does not authenticate; the caller routes to Login afterwards.
func (c *Controller) Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error) {
	if err := c.store.Set(credentials.KeyTenantSubdomain, req.Subdomain); err != nil {
		return nil, errors.Wrap(err, "[Controller.Register] persist tenant key")
	}

	resp, err := c.auth.Register(ctx, req)
	if err != nil {
		if code := apierrors.StatusCode(err); code >= 400 && code < 500 {
			return nil, fmt.Errorf("%w: %w", apierrors.ErrAuthentication, err)
		}
		return nil, err
	}
	return resp, nil
}

// Logout ends the session. The server-side call is best effort; local state
// is always cleared.
func (c *Controller) Logout(ctx context.Context) error {
	if err := c.auth.Logout(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("server-side logout failed")
	}
	if err := c.store.ClearAll(); err != nil {
		c.setState(StateUnauthenticated, nil)
		return errors.Wrap(err, "[Controller.Logout] clear credentials")
	}
	c.setState(StateUnauthenticated, nil)
	return nil
}

// Terminate forces the controller to Unauthenticated. The gateway invokes it
// after a terminal refresh failure, once the credential store is cleared.
func (c *Controller) Terminate() {
	c.setState(StateUnauthenticated, nil)
}

// Authorize reports whether the current session's role ranks at or above
// required. Unauthenticated sessions satisfy nothing.
func (c *Controller) Authorize(required users.Role) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state == StateAuthenticated && c.user != nil && c.user.Role.AtLeast(required)
}

// CurrentUser returns the authenticated profile, or nil.
func (c *Controller) CurrentUser() *users.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return nil
	}
	user := *c.user
	return &user
}

// State returns the controller's lifecycle state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// IsAuthenticated reports whether a session is established.
func (c *Controller) IsAuthenticated() bool {
	return c.State() == StateAuthenticated
}

// IsLoading reports whether an authentication or rehydration call is in
// flight.
func (c *Controller) IsLoading() bool {
	state := c.State()
	return state == StateAuthenticating || state == StateRehydrating
}

func (c *Controller) setState(state State, user *users.User) {
	c.mu.Lock()
	c.state = state
	c.user = user
	snapshot := c.snapshotLocked()
	subscribers := make([]func(Snapshot), len(c.subscribers))
	copy(subscribers, c.subscribers)
	c.mu.Unlock()

	for _, fn := range subscribers {
		fn(snapshot)
	}
}

// snapshotLocked builds a snapshot; callers hold the mutex.
func (c *Controller) snapshotLocked() Snapshot {
	snapshot := Snapshot{State: c.state}
	if c.user != nil {
		user := *c.user
		snapshot.User = &user
	}
	return snapshot
}
