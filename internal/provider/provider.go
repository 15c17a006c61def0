// Package provider implements per-provider OAuth2 clients. Each client
// returns identity facts only; user creation, linking, and sessions belong
// to the callers.
package provider

import (
	"context"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"

	"github.com/wikigo/backend/domain"
)

// Client is the contract every external provider implements.
type Client interface {
	Name() domain.OAuthProvider

	// AuthorizationURL builds the authorization-code-with-PKCE URL for the
	// given CSRF state and returns the PKCE verifier the caller must persist
	// for the later exchange.
	AuthorizationURL(state string) (authURL string, pkceVerifier string, err error)

	// Exchange swaps an authorization code for an access token. Every
	// transport or provider-side failure collapses to a single error class;
	// provider error bodies are never surfaced to callers.
	Exchange(ctx context.Context, code, pkceVerifier string) (accessToken string, err error)

	// FetchProfile retrieves the provider's normalized user profile.
	FetchProfile(ctx context.Context, accessToken string) (*domain.ProviderProfile, error)
}

// Registry resolves clients by provider name.
type Registry struct {
	clients map[domain.OAuthProvider]Client
}

func NewRegistry(clients ...Client) *Registry {
	r := &Registry{clients: make(map[domain.OAuthProvider]Client, len(clients))}
	for _, c := range clients {
		r.clients[c.Name()] = c
	}
	return r
}

func (r *Registry) Get(name domain.OAuthProvider) (Client, bool) {
	c, ok := r.clients[name]
	return c, ok
}

// newVerifier generates a PKCE code_verifier (43 chars, base64url alphabet).
func newVerifier() string {
	return oauth2.GenerateVerifier()
}

// validateEndpoints guards URL construction so a misconfigured deployment
// fails with the precise endpoint that is broken.
func validateEndpoints(authURL, tokenURL, redirectURL string) error {
	if !validURL(authURL) {
		return domain.ErrOauthInvalidAuthURL
	}
	if !validURL(tokenURL) {
		return domain.ErrOauthInvalidTokenURL
	}
	if !validURL(redirectURL) {
		return domain.ErrOauthInvalidRedirectURL
	}
	return nil
}

func validURL(raw string) bool {
	parsed, err := url.ParseRequestURI(raw)
	return err == nil && parsed.Scheme != "" && parsed.Host != ""
}

// withHTTPClient binds our injected HTTP client into oauth2's exchange path.
func withHTTPClient(ctx context.Context, client *http.Client) context.Context {
	if client == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, client)
}
