package tenants

import (
	"strings"

	"github.com/jrsteele09/taskboard-client/credentials"
)

// OverrideStore is the slice of the credential store the resolver reads: the
// tenant subdomain persisted at login/registration time for development hosts.
type OverrideStore interface {
	Get(key string) (string, bool)
}

// Resolver derives the tenant subdomain for outbound requests from the
// backend origin host. Production deployments map a subdomain to the tenant
// (acme.taskboard.io -> "acme"); local development hosts carry no subdomain,
// so the stored override from the last login is used instead.
//
// When neither yields a tenant, resolution reports ok=false and the caller
// omits the tenant header; the backend rejects requests it cannot scope.
type Resolver struct {
	store OverrideStore
}

// NewResolver creates a resolver backed by the given override store.
func NewResolver(store OverrideStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the tenant subdomain for the given origin host, or
// ok=false when no tenant can be derived.
func (r *Resolver) Resolve(originHost string) (string, bool) {
	if isLocalHost(originHost) {
		if subdomain, ok := r.store.Get(credentials.KeyTenantSubdomain); ok && subdomain != "" {
			return subdomain, true
		}
		return "", false
	}

	parts := strings.Split(originHost, ".")
	if len(parts) > 2 {
		return parts[0], true
	}
	return "", false
}

// isLocalHost reports whether host is a bare development host with no tenant
// subdomain to extract.
func isLocalHost(host string) bool {
	if host == "localhost" || host == "127.0.0.1" {
		return true
	}
	if strings.HasPrefix(host, "192.168.") {
		return true
	}
	return !strings.Contains(host, ".")
}
