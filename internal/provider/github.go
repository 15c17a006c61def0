package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"

	"github.com/wikigo/backend/domain"
)

const (
	githubAuthURL      = "https://github.com/login/oauth/authorize"
	githubTokenURL     = "https://github.com/login/oauth/access_token"
	githubUserInfoURL  = "https://api.github.com/user"
	githubUserEmailURL = "https://api.github.com/user/emails"

	// GitHub rejects requests without a User-Agent.
	githubUserAgent = "wikigo-backend"
)

// Github implements Client against GitHub's OAuth endpoints. GitHub may
// omit the public email from the profile endpoint, so FetchProfile falls
// back to the emails endpoint and selects a verified primary address.
type Github struct {
	clientID     string
	clientSecret string
	redirectURI  string
	httpClient   *http.Client

	authURL     string
	tokenURL    string
	userInfoURL string
	emailsURL   string
}

func NewGithub(clientID, clientSecret, redirectURI string, httpClient *http.Client) *Github {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Github{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		httpClient:   httpClient,
		authURL:      githubAuthURL,
		tokenURL:     githubTokenURL,
		userInfoURL:  githubUserInfoURL,
		emailsURL:    githubUserEmailURL,
	}
}

func (g *Github) Name() domain.OAuthProvider {
	return domain.ProviderGithub
}

func (g *Github) AuthorizationURL(state string) (string, string, error) {
	if err := validateEndpoints(g.authURL, g.tokenURL, g.redirectURI); err != nil {
		return "", "", err
	}

	verifier := newVerifier()
	authURL := g.config().AuthCodeURL(
		state,
		oauth2.S256ChallengeOption(verifier),
	)
	return authURL, verifier, nil
}

func (g *Github) Exchange(ctx context.Context, code, pkceVerifier string) (string, error) {
	if err := validateEndpoints(g.authURL, g.tokenURL, g.redirectURI); err != nil {
		return "", err
	}

	token, err := g.config().Exchange(
		withHTTPClient(ctx, g.httpClient),
		code,
		oauth2.VerifierOption(pkceVerifier),
	)
	if err != nil {
		return "", domain.ErrOauthTokenExchangeFailed
	}
	return token.AccessToken, nil
}

type githubUserInfo struct {
	ID        int64   `json:"id"`
	Login     string  `json:"login"`
	Name      *string `json:"name"`
	Email     *string `json:"email"`
	AvatarURL string  `json:"avatar_url"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

func (g *Github) FetchProfile(ctx context.Context, accessToken string) (*domain.ProviderProfile, error) {
	body, err := fetchJSON(ctx, g.httpClient, g.userInfoURL, accessToken, g.headers())
	if err != nil {
		return nil, err
	}

	var info githubUserInfo
	if err := json.Unmarshal(body, &info); err != nil || info.ID == 0 {
		return nil, domain.ErrOauthUserInfoParseFailed.WithDetail(string(body))
	}

	email := ""
	if info.Email != nil {
		email = *info.Email
	}
	if email == "" {
		email, err = g.fetchPrimaryEmail(ctx, accessToken)
		if err != nil {
			return nil, err
		}
	}

	displayName := info.Login
	if info.Name != nil && *info.Name != "" {
		displayName = *info.Name
	}

	return &domain.ProviderProfile{
		Provider:       domain.ProviderGithub,
		ProviderUserID: strconv.FormatInt(info.ID, 10),
		Email:          email,
		DisplayName:    displayName,
		AvatarURL:      info.AvatarURL,
	}, nil
}

// fetchPrimaryEmail selects a verified primary email, falling back to any
// verified address. No usable address fails the whole profile fetch.
func (g *Github) fetchPrimaryEmail(ctx context.Context, accessToken string) (string, error) {
	body, err := fetchJSON(ctx, g.httpClient, g.emailsURL, accessToken, g.headers())
	if err != nil {
		return "", err
	}

	var emails []githubEmail
	if err := json.Unmarshal(body, &emails); err != nil {
		return "", domain.ErrOauthUserInfoParseFailed.WithDetail(string(body))
	}

	fallback := ""
	for _, e := range emails {
		if !e.Verified {
			continue
		}
		if e.Primary {
			return e.Email, nil
		}
		if fallback == "" {
			fallback = e.Email
		}
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", domain.ErrOauthUserInfoParseFailed.WithDetail("no verified email available")
}

func (g *Github) headers() map[string]string {
	return map[string]string{"User-Agent": githubUserAgent}
}

func (g *Github) config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     g.clientID,
		ClientSecret: g.clientSecret,
		RedirectURL:  g.redirectURI,
		Scopes:       []string{"read:user", "user:email"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  g.authURL,
			TokenURL: g.tokenURL,
		},
	}
}
