package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/taskboard-client/api"
	"github.com/jrsteele09/taskboard-client/credentials"
	credentialsfake "github.com/jrsteele09/taskboard-client/credentials/repofake"
	"github.com/jrsteele09/taskboard-client/gateway"
	"github.com/jrsteele09/taskboard-client/internal/apierrors"
	"github.com/jrsteele09/taskboard-client/internal/authtest"
	"github.com/jrsteele09/taskboard-client/session"
	"github.com/jrsteele09/taskboard-client/tenants"
	"github.com/jrsteele09/taskboard-client/users"
)

// testFixture wires the whole client stack against the fake backend: store,
// resolver, gateway, API clients and the controller, connected the way the
// CLI connects them.
type testFixture struct {
	backend    *authtest.Server
	store      *credentialsfake.FakeStore
	client     *api.Client
	controller *session.Controller
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{
		backend: authtest.New(t),
		store:   credentialsfake.NewFakeStore(),
	}

	var controller *session.Controller
	gw, err := gateway.New(
		f.backend.BaseURL(),
		f.store,
		tenants.NewResolver(f.store),
		gateway.WithSessionTerminatedHandler(func() {
			if controller != nil {
				controller.Terminate()
			}
		}),
	)
	require.NoError(t, err)

	f.client = api.New(gw)
	controller, err = session.New(f.store, f.client.Auth)
	require.NoError(t, err)
	f.controller = controller
	return f
}

func (f *testFixture) login(t *testing.T, email, password, tenantKey string) {
	t.Helper()
	require.NoError(t, f.controller.Login(context.Background(), email, password, tenantKey))
}

func TestLoginEstablishesSession(t *testing.T) {
	f := setupTestFixture(t)
	f.backend.AddUser(t, "a@x.com", "secret123", users.RoleAdmin)

	f.login(t, "a@x.com", "secret123", "acme")

	require.Equal(t, session.StateAuthenticated, f.controller.State())
	require.True(t, f.controller.IsAuthenticated())
	user := f.controller.CurrentUser()
	require.NotNil(t, user)
	require.Equal(t, users.RoleAdmin, user.Role)

	// The login request itself already carried the tenant header.
	loginReq := f.backend.LastRequest("/auth/login")
	require.NotNil(t, loginReq)
	require.Equal(t, "acme", loginReq.Header.Get(gateway.HeaderTenantSubdomain))

	// Both tokens were persisted.
	access, ok := f.store.Get(credentials.KeyAccessToken)
	require.True(t, ok)
	require.NotEmpty(t, access)
	_, ok = f.store.Get(credentials.KeyRefreshToken)
	require.True(t, ok)

	// Subsequent domain calls carry the bearer token and tenant header.
	_, err := f.client.Projects.List(context.Background())
	require.NoError(t, err)
	projectsReq := f.backend.LastRequest("/projects")
	require.NotNil(t, projectsReq)
	require.Equal(t, "Bearer "+access, projectsReq.Header.Get(gateway.HeaderAuthorization))
	require.Equal(t, "acme", projectsReq.Header.Get(gateway.HeaderTenantSubdomain))
	require.Zero(t, f.backend.RefreshCalls())
}

func TestLoginRejectionLeavesStateUntouched(t *testing.T) {
	f := setupTestFixture(t)
	f.backend.AddUser(t, "a@x.com", "secret123", users.RoleMember)

	err := f.controller.Login(context.Background(), "a@x.com", "wrong", "acme")

	require.ErrorIs(t, err, apierrors.ErrAuthentication)
	require.Equal(t, session.StateUnauthenticated, f.controller.State())
	_, ok := f.store.Get(credentials.KeyAccessToken)
	require.False(t, ok)
}

func TestRehydrateRestoresSession(t *testing.T) {
	f := setupTestFixture(t)
	f.backend.AddUser(t, "a@x.com", "secret123", users.RoleManager)
	f.login(t, "a@x.com", "secret123", "acme")

	// A fresh controller over the same store, as after a process restart.
	restarted, err := session.New(f.store, f.client.Auth)
	require.NoError(t, err)

	restarted.Rehydrate(context.Background())

	require.Equal(t, session.StateAuthenticated, restarted.State())
	user := restarted.CurrentUser()
	require.NotNil(t, user)
	require.Equal(t, "a@x.com", user.Email)
}

func TestRehydrateWithoutTokenStaysUnauthenticated(t *testing.T) {
	f := setupTestFixture(t)

	f.controller.Rehydrate(context.Background())

	require.Equal(t, session.StateUnauthenticated, f.controller.State())
	require.Nil(t, f.backend.LastRequest("/auth/me"), "no backend call without a stored token")
}

func TestRehydrateWithBadTokenClearsStore(t *testing.T) {
	f := setupTestFixture(t)
	require.NoError(t, f.store.Set(credentials.KeyAccessToken, "garbage"))
	require.NoError(t, f.store.Set(credentials.KeyTenantSubdomain, "acme"))

	f.controller.Rehydrate(context.Background())

	require.Equal(t, session.StateUnauthenticated, f.controller.State())
	require.Zero(t, f.store.Len())
}

func TestExpiredTokenIsRefreshedInvisibly(t *testing.T) {
	f := setupTestFixture(t)
	f.backend.AddUser(t, "a@x.com", "secret123", users.RoleMember)
	f.login(t, "a@x.com", "secret123", "acme")

	f.backend.RevokeAccessTokens()

	// The caller sees a plain success; only the refresh counter betrays the
	// recovery.
	_, err := f.client.Projects.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, f.backend.RefreshCalls())
	require.Equal(t, session.StateAuthenticated, f.controller.State())
}

func TestRefreshFailureForcesLogout(t *testing.T) {
	f := setupTestFixture(t)
	f.backend.AddUser(t, "a@x.com", "secret123", users.RoleMember)
	f.login(t, "a@x.com", "secret123", "acme")

	f.backend.RevokeAccessTokens()
	f.backend.FailRefresh()

	_, err := f.client.Projects.List(context.Background())

	require.ErrorIs(t, err, apierrors.ErrSessionTerminated)
	require.Zero(t, f.store.Len())
	require.Equal(t, session.StateUnauthenticated, f.controller.State())
}

func TestLogoutClearsStateEvenWhenServerFails(t *testing.T) {
	f := setupTestFixture(t)
	f.backend.AddUser(t, "a@x.com", "secret123", users.RoleMember)
	f.login(t, "a@x.com", "secret123", "acme")

	f.backend.FailLogout()

	require.NoError(t, f.controller.Logout(context.Background()))
	require.Equal(t, session.StateUnauthenticated, f.controller.State())
	require.Nil(t, f.controller.CurrentUser())
	require.Zero(t, f.store.Len())
}

func TestAuthorizeFollowsRoleHierarchy(t *testing.T) {
	f := setupTestFixture(t)
	f.backend.AddUser(t, "admin@x.com", "secret123", users.RoleAdmin)
	f.login(t, "admin@x.com", "secret123", "acme")

	require.True(t, f.controller.Authorize(users.RoleMember))
	require.True(t, f.controller.Authorize(users.RoleManager))
	require.True(t, f.controller.Authorize(users.RoleAdmin))

	require.NoError(t, f.controller.Logout(context.Background()))
	require.False(t, f.controller.Authorize(users.RoleMember))
}

func TestAuthorizeMemberSatisfiesOnlyMember(t *testing.T) {
	f := setupTestFixture(t)
	f.backend.AddUser(t, "m@x.com", "secret123", users.RoleMember)
	f.login(t, "m@x.com", "secret123", "acme")

	require.True(t, f.controller.Authorize(users.RoleMember))
	require.False(t, f.controller.Authorize(users.RoleManager))
	require.False(t, f.controller.Authorize(users.RoleAdmin))
}

func TestRegisterPersistsTenantKeyWithoutAuthenticating(t *testing.T) {
	f := setupTestFixture(t)

	resp, err := f.controller.Register(context.Background(), api.RegisterRequest{
		Name:           "Globex Corp",
		Subdomain:      "globex",
		AdminEmail:     "admin@globex.com",
		AdminPassword:  "Secret123",
		AdminFirstName: "Hank",
		AdminLastName:  "Scorpio",
	})
	require.NoError(t, err)
	require.Equal(t, "globex", resp.Tenant.Subdomain)

	// Registration stores the tenant key but does not log in.
	require.Equal(t, session.StateUnauthenticated, f.controller.State())
	subdomain, ok := f.store.Get(credentials.KeyTenantSubdomain)
	require.True(t, ok)
	require.Equal(t, "globex", subdomain)

	// The admin can log in to the new tenant straight away.
	f.login(t, "admin@globex.com", "Secret123", "globex")
	require.True(t, f.controller.Authorize(users.RoleAdmin))
}

func TestSubscribeObservesTransitions(t *testing.T) {
	f := setupTestFixture(t)
	f.backend.AddUser(t, "a@x.com", "secret123", users.RoleMember)

	var seen []session.State
	f.controller.Subscribe(func(s session.Snapshot) {
		seen = append(seen, s.State)
	})

	f.login(t, "a@x.com", "secret123", "acme")
	require.NoError(t, f.controller.Logout(context.Background()))

	require.Equal(t, []session.State{
		session.StateUnauthenticated, // initial snapshot on subscribe
		session.StateAuthenticating,
		session.StateAuthenticated,
		session.StateUnauthenticated,
	}, seen)
}
