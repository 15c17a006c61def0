package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikigo/backend/domain"
)

func TestGoogleAuthorizationURL(t *testing.T) {
	g := NewGoogle("client-id", "client-secret", "https://app.test/callback", nil)

	authURL, verifier, err := g.AuthorizationURL("state-123")
	require.NoError(t, err)
	assert.NotEmpty(t, verifier)

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	query := parsed.Query()
	assert.Equal(t, "state-123", query.Get("state"))
	assert.Equal(t, "client-id", query.Get("client_id"))
	assert.Equal(t, "code", query.Get("response_type"))
	assert.Equal(t, "S256", query.Get("code_challenge_method"))
	assert.NotEmpty(t, query.Get("code_challenge"))
	assert.Contains(t, query.Get("scope"), "email")
}

func TestGoogleInvalidRedirectURI(t *testing.T) {
	g := NewGoogle("client-id", "client-secret", "not a url", nil)

	_, _, err := g.AuthorizationURL("state")
	assert.ErrorIs(t, err, domain.ErrOauthInvalidRedirectURL)
}

func TestGoogleFetchProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"goog-1","email":"alice@example.com","name":"Alice","picture":"https://img/p.png"}`))
	}))
	defer srv.Close()

	g := NewGoogle("id", "secret", "https://app.test/cb", srv.Client())
	g.userInfoURL = srv.URL

	profile, err := g.FetchProfile(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderGoogle, profile.Provider)
	assert.Equal(t, "goog-1", profile.ProviderUserID)
	assert.Equal(t, "alice@example.com", profile.Email)
	assert.Equal(t, "Alice", profile.DisplayName)
}

func TestGoogleFetchProfileServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := NewGoogle("id", "secret", "https://app.test/cb", srv.Client())
	g.userInfoURL = srv.URL

	_, err := g.FetchProfile(context.Background(), "tok-1")
	assert.ErrorIs(t, err, domain.ErrOauthUserInfoFetchFailed)
}

func TestGoogleFetchProfileUnparsable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"unexpected":"shape"}`))
	}))
	defer srv.Close()

	g := NewGoogle("id", "secret", "https://app.test/cb", srv.Client())
	g.userInfoURL = srv.URL

	_, err := g.FetchProfile(context.Background(), "tok-1")
	assert.ErrorIs(t, err, domain.ErrOauthUserInfoParseFailed)
}

func TestGoogleExchangeFailureOpaque(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant","error_description":"secret details"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	g := NewGoogle("id", "secret", "https://app.test/cb", srv.Client())
	g.tokenURL = srv.URL

	_, err := g.Exchange(context.Background(), "code", "verifier")
	require.ErrorIs(t, err, domain.ErrOauthTokenExchangeFailed)
	// Provider error bodies never leak through.
	assert.NotContains(t, err.Error(), "secret details")
}

func TestGithubFetchProfileEmailFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Write([]byte(`{"id":42,"login":"alice","name":null,"email":null,"avatar_url":"https://img/a.png"}`))
	})
	mux.HandleFunc("/emails", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"email":"spare@example.com","primary":false,"verified":true},
			{"email":"alice@example.com","primary":true,"verified":true},
			{"email":"old@example.com","primary":false,"verified":false}
		]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	g := NewGithub("id", "secret", "https://app.test/cb", srv.Client())
	g.userInfoURL = srv.URL + "/user"
	g.emailsURL = srv.URL + "/emails"

	profile, err := g.FetchProfile(context.Background(), "access-token")
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderGithub, profile.Provider)
	assert.Equal(t, "42", profile.ProviderUserID)
	assert.Equal(t, "alice@example.com", profile.Email)
	// Name is null, so the login doubles as display name.
	assert.Equal(t, "alice", profile.DisplayName)
}

func TestGithubNoVerifiedEmail(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":42,"login":"alice","avatar_url":""}`))
	})
	mux.HandleFunc("/emails", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"email":"old@example.com","primary":true,"verified":false}]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	g := NewGithub("id", "secret", "https://app.test/cb", srv.Client())
	g.userInfoURL = srv.URL + "/user"
	g.emailsURL = srv.URL + "/emails"

	_, err := g.FetchProfile(context.Background(), "access-token")
	assert.ErrorIs(t, err, domain.ErrOauthUserInfoParseFailed)
}

func TestRegistryLookup(t *testing.T) {
	google := NewGoogle("id", "secret", "https://app.test/cb", nil)
	registry := NewRegistry(google)

	got, ok := registry.Get(domain.ProviderGoogle)
	require.True(t, ok)
	assert.Same(t, google, got.(*Google))

	_, ok = registry.Get(domain.ProviderGithub)
	assert.False(t, ok)
}

func TestVerifierAlphabet(t *testing.T) {
	v := newVerifier()
	assert.GreaterOrEqual(t, len(v), 43)
	assert.NotContains(t, v, "=")
	assert.False(t, strings.ContainsAny(v, "+/"))
}
