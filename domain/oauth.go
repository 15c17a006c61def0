package domain

import "time"

// OAuthProvider identifies an external identity provider.
type OAuthProvider string

const (
	ProviderGoogle OAuthProvider = "google"
	ProviderGithub OAuthProvider = "github"
)

func (p OAuthProvider) Valid() bool {
	switch p {
	case ProviderGoogle, ProviderGithub:
		return true
	}
	return false
}

// OAuthConnection links a local user to a provider identity. The
// (provider, provider_user_id) pair maps to at most one user, and a user
// holds at most one connection per provider.
type OAuthConnection struct {
	ID             string        `json:"id"`
	UserID         string        `json:"user_id"`
	Provider       OAuthProvider `json:"provider"`
	ProviderUserID string        `json:"provider_user_id"`
	CreatedAt      time.Time     `json:"created_at"`
}

// ProviderProfile is the normalized identity a provider client returns.
type ProviderProfile struct {
	Provider       OAuthProvider
	ProviderUserID string
	Email          string
	DisplayName    string
	AvatarURL      string
}

// OAuthStateRecord is the one-time CSRF state payload kept in Redis for the
// duration of an authorization round-trip.
type OAuthStateRecord struct {
	PKCEVerifier string `json:"pkce_verifier"`
}

// AuthEventKind labels entries in the authentication audit journal.
type AuthEventKind string

const (
	AuthEventLogin         AuthEventKind = "login"
	AuthEventLogout        AuthEventKind = "logout"
	AuthEventOauthLogin    AuthEventKind = "oauth_login"
	AuthEventOauthLink     AuthEventKind = "oauth_link"
	AuthEventEmailVerified AuthEventKind = "email_verified"
	AuthEventPasswordReset AuthEventKind = "password_reset"
)

// AuthEvent is an append-only audit record of an authentication action.
type AuthEvent struct {
	ID        string        `json:"id"`
	UserID    string        `json:"user_id"`
	Kind      AuthEventKind `json:"kind"`
	IPAddress string        `json:"ip_address,omitempty"`
	UserAgent string        `json:"user_agent,omitempty"`
	At        time.Time     `json:"at"`
}
