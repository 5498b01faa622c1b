package gateway_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/taskboard-client/credentials"
	credentialsfake "github.com/jrsteele09/taskboard-client/credentials/repofake"
	"github.com/jrsteele09/taskboard-client/gateway"
	"github.com/jrsteele09/taskboard-client/internal/apierrors"
	"github.com/jrsteele09/taskboard-client/tenants"
)

// testFixture wires a gateway against a scripted backend. The httptest
// server listens on 127.0.0.1, so tenant resolution goes through the stored
// override, same as a development host.
type testFixture struct {
	store      *credentialsfake.FakeStore
	gw         *gateway.Gateway
	terminated atomic.Int32
}

func setupTestFixture(t *testing.T, handler http.Handler) *testFixture {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	f := &testFixture{store: credentialsfake.NewFakeStore()}
	require.NoError(t, f.store.Set(credentials.KeyTenantSubdomain, "acme"))

	gw, err := gateway.New(
		server.URL+"/api",
		f.store,
		tenants.NewResolver(f.store),
		gateway.WithSessionTerminatedHandler(func() { f.terminated.Add(1) }),
	)
	require.NoError(t, err)
	f.gw = gw
	return f
}

func (f *testFixture) loginAs(t *testing.T, access, refresh string) {
	t.Helper()
	require.NoError(t, credentials.SaveTokens(f.store, credentials.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
	}))
}

func refreshCount(f *testFixture) float64 {
	return testutil.ToFloat64(f.gw.Metrics().RefreshesTotal)
}

func TestSendAttachesHeaders(t *testing.T) {
	var got http.Header
	f := setupTestFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte(`{"projects":[]}`))
	}))
	f.loginAs(t, "T1", "R1")

	_, err := f.gw.Send(context.Background(), gateway.NewRequest(http.MethodGet, "/projects"))
	require.NoError(t, err)

	require.Equal(t, "Bearer T1", got.Get(gateway.HeaderAuthorization))
	require.Equal(t, "acme", got.Get(gateway.HeaderTenantSubdomain))
	require.Equal(t, "application/json", got.Get(gateway.HeaderContentType))
	require.NotEmpty(t, got.Get(gateway.HeaderRequestID))

	// A valid access token never triggers the refresh protocol.
	require.Zero(t, refreshCount(f))
}

func TestSendOmitsUnresolvableHeaders(t *testing.T) {
	var got http.Header
	f := setupTestFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte(`{}`))
	}))
	require.NoError(t, f.store.ClearAll()) // no tokens, no tenant override

	_, err := f.gw.Send(context.Background(), gateway.NewRequest(http.MethodGet, "/health"))
	require.NoError(t, err)

	_, hasTenant := got[gateway.HeaderTenantSubdomain]
	require.False(t, hasTenant)
	_, hasAuth := got[gateway.HeaderAuthorization]
	require.False(t, hasAuth)
}

// scriptedBackend accepts "T2" and rejects everything else on /api/projects,
// and exchanges refresh token "R1" for access token "T2".
func scriptedBackend(refreshCalls *atomic.Int32, retryAuth *string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/projects", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer T2" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"token expired"}`))
			return
		}
		if retryAuth != nil {
			*retryAuth = r.Header.Get("Authorization")
		}
		w.Write([]byte(`{"projects":[]}`))
	})
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer R1" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"invalid refresh token"}`))
			return
		}
		w.Write([]byte(`{"access_token":"T2"}`))
	})
	return mux
}

func TestRefreshAndRetryOn401(t *testing.T) {
	var refreshCalls atomic.Int32
	var retryAuth string
	f := setupTestFixture(t, scriptedBackend(&refreshCalls, &retryAuth))
	f.loginAs(t, "T1", "R1")

	resp, err := f.gw.Send(context.Background(), gateway.NewRequest(http.MethodGet, "/projects"))

	// The caller sees the retried request's success, unaware of the refresh.
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Bearer T2", retryAuth)
	require.Equal(t, int32(1), refreshCalls.Load())
	require.Equal(t, float64(1), refreshCount(f))
	require.Equal(t, float64(1), testutil.ToFloat64(f.gw.Metrics().RetriesTotal))

	access, ok := f.store.Get(credentials.KeyAccessToken)
	require.True(t, ok)
	require.Equal(t, "T2", access)
}

func TestSecond401IsNotRefreshedAgain(t *testing.T) {
	var refreshCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/projects", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"token expired"}`))
	})
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		w.Write([]byte(`{"access_token":"T2"}`))
	})
	f := setupTestFixture(t, mux)
	f.loginAs(t, "T1", "R1")

	_, err := f.gw.Send(context.Background(), gateway.NewRequest(http.MethodGet, "/projects"))

	// The retried request's 401 is propagated without a second refresh.
	require.Error(t, err)
	require.True(t, apierrors.IsStatus(err, http.StatusUnauthorized))
	require.NotErrorIs(t, err, apierrors.ErrSessionTerminated)
	require.Equal(t, int32(1), refreshCalls.Load())
}

func TestRefreshFailureTerminatesSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/projects", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"token expired"}`))
	})
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid refresh token"}`))
	})
	f := setupTestFixture(t, mux)
	f.loginAs(t, "T1", "R-bad")

	_, err := f.gw.Send(context.Background(), gateway.NewRequest(http.MethodGet, "/projects"))

	require.ErrorIs(t, err, apierrors.ErrSessionTerminated)
	require.Zero(t, f.store.Len())
	require.Equal(t, int32(1), f.terminated.Load())
	require.Equal(t, float64(1), testutil.ToFloat64(f.gw.Metrics().RefreshFailuresTotal))
}

func TestMissingRefreshTokenTerminatesSession(t *testing.T) {
	var refreshCalls atomic.Int32
	f := setupTestFixture(t, scriptedBackend(&refreshCalls, nil))
	require.NoError(t, f.store.Set(credentials.KeyAccessToken, "T1")) // no refresh token stored

	_, err := f.gw.Send(context.Background(), gateway.NewRequest(http.MethodGet, "/projects"))

	require.ErrorIs(t, err, apierrors.ErrSessionTerminated)
	require.True(t, apierrors.IsStatus(err, http.StatusUnauthorized))
	require.Zero(t, f.store.Len())
	require.Equal(t, int32(1), f.terminated.Load())
	require.Zero(t, refreshCalls.Load())
}

func TestUnauthenticated401Propagates(t *testing.T) {
	f := setupTestFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid credentials"}`))
	}))
	// Only the tenant override is stored: the failed call is a login, not a
	// dead session.

	req := gateway.NewRequest(http.MethodPost, "/auth/login")
	_, err := f.gw.Send(context.Background(), req)

	require.Error(t, err)
	require.True(t, apierrors.IsStatus(err, http.StatusUnauthorized))
	require.NotErrorIs(t, err, apierrors.ErrSessionTerminated)
	require.Zero(t, f.terminated.Load())

	// The tenant override survives a rejected login.
	subdomain, ok := f.store.Get(credentials.KeyTenantSubdomain)
	require.True(t, ok)
	require.Equal(t, "acme", subdomain)
}

func TestNon401ErrorsPropagateUnchanged(t *testing.T) {
	f := setupTestFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"boom"}`))
	}))
	f.loginAs(t, "T1", "R1")

	_, err := f.gw.Send(context.Background(), gateway.NewRequest(http.MethodGet, "/projects"))

	require.Error(t, err)
	require.True(t, apierrors.IsStatus(err, http.StatusInternalServerError))
	require.Contains(t, err.Error(), "boom")
	require.Zero(t, refreshCount(f))
	require.Equal(t, 3, f.store.Len())
}

func TestTransportErrorPropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	store := credentialsfake.NewFakeStore()
	gw, err := gateway.New(server.URL+"/api", store, tenants.NewResolver(store))
	require.NoError(t, err)

	_, err = gw.Send(context.Background(), gateway.NewRequest(http.MethodGet, "/projects"))
	require.Error(t, err)
	require.Zero(t, apierrors.StatusCode(err))
}

func TestConcurrentRefreshIsCoalesced(t *testing.T) {
	var refreshCalls atomic.Int32
	var gate sync.WaitGroup
	gate.Add(2)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/projects", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer T2" {
			// Hold the 401s until both requests have arrived so both
			// enter the refresh path together.
			gate.Done()
			gate.Wait()
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"token expired"}`))
			return
		}
		w.Write([]byte(`{"projects":[]}`))
	})
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		// Keep the refresh in flight long enough for the second waiter to
		// attach to it.
		time.Sleep(100 * time.Millisecond)
		w.Write([]byte(`{"access_token":"T2"}`))
	})

	f := setupTestFixture(t, mux)
	f.loginAs(t, "T1", "R1")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.gw.Send(context.Background(), gateway.NewRequest(http.MethodGet, "/projects"))
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	require.Equal(t, int32(1), refreshCalls.Load(), "concurrent 401s must share one refresh")
}

func TestJSONHelpers(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/projects", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":7,"name":"Website"}`))
			return
		}
		w.Write([]byte(`{"projects":[{"id":7,"name":"Website"}]}`))
	})
	f := setupTestFixture(t, mux)
	f.loginAs(t, "T1", "R1")

	var created struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}
	err := f.gw.PostJSON(context.Background(), "/projects", map[string]string{"name": "Website"}, &created)
	require.NoError(t, err)
	require.Equal(t, 7, created.ID)

	var listed struct {
		Projects []struct {
			ID int `json:"id"`
		} `json:"projects"`
	}
	require.NoError(t, f.gw.GetJSON(context.Background(), "/projects", &listed))
	require.Len(t, listed.Projects, 1)
}
