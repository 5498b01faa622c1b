// Package credentials persists the client's token pair and tenant override
// across process restarts. Tokens are opaque strings; no structure is assumed.
package credentials

// Storage keys. The three values form the whole persisted session state and
// are cleared together by ClearAll.
const (
	KeyAccessToken     = "access_token"
	KeyRefreshToken    = "refresh_token"
	KeyTenantSubdomain = "tenant_subdomain"
)

// Store holds the current credentials. Implementations must be safe for
// concurrent use: the store is read and written from login, logout, refresh
// and rehydrate paths.
type Store interface {
	// Get returns the value for key, or ok=false when absent.
	Get(key string) (value string, ok bool)
	// Set stores value under key, replacing any previous value.
	Set(key, value string) error
	// ClearAll removes every stored value. This is the single full-reset
	// path, used on logout and on terminal refresh failure.
	ClearAll() error
}

// TokenPair is the credential pair issued at login: a short-lived access
// token authorizing individual requests and a longer-lived refresh token used
// solely to mint a new access token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// SaveTokens stores both tokens of a pair.
func SaveTokens(store Store, pair TokenPair) error {
	if err := store.Set(KeyAccessToken, pair.AccessToken); err != nil {
		return err
	}
	return store.Set(KeyRefreshToken, pair.RefreshToken)
}
