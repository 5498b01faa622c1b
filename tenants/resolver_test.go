package tenants_test

import (
	"testing"

	"github.com/jrsteele09/taskboard-client/credentials"
	credentialsfake "github.com/jrsteele09/taskboard-client/credentials/repofake"
	"github.com/jrsteele09/taskboard-client/tenants"
	"github.com/stretchr/testify/require"
)

func TestResolveProductionHost(t *testing.T) {
	resolver := tenants.NewResolver(credentialsfake.NewFakeStore())

	subdomain, ok := resolver.Resolve("acme.taskboard.io")
	require.True(t, ok)
	require.Equal(t, "acme", subdomain)
}

func TestResolveBareDomainHasNoTenant(t *testing.T) {
	resolver := tenants.NewResolver(credentialsfake.NewFakeStore())

	_, ok := resolver.Resolve("taskboard.io")
	require.False(t, ok)
}

func TestResolveLocalHostUsesOverride(t *testing.T) {
	store := credentialsfake.NewFakeStore()
	require.NoError(t, store.Set(credentials.KeyTenantSubdomain, "acme"))
	resolver := tenants.NewResolver(store)

	for _, host := range []string{"localhost", "127.0.0.1", "192.168.1.20", "devbox"} {
		subdomain, ok := resolver.Resolve(host)
		require.True(t, ok, host)
		require.Equal(t, "acme", subdomain, host)
	}
}

func TestResolveLocalHostWithoutOverride(t *testing.T) {
	resolver := tenants.NewResolver(credentialsfake.NewFakeStore())

	_, ok := resolver.Resolve("localhost")
	require.False(t, ok)
}

func TestResolveIgnoresEmptyOverride(t *testing.T) {
	store := credentialsfake.NewFakeStore()
	require.NoError(t, store.Set(credentials.KeyTenantSubdomain, ""))
	resolver := tenants.NewResolver(store)

	_, ok := resolver.Resolve("localhost")
	require.False(t, ok)
}
