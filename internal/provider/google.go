package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/wikigo/backend/domain"
)

const (
	googleAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// Google implements Client against Google's OAuth2 endpoints.
type Google struct {
	clientID     string
	clientSecret string
	redirectURI  string
	httpClient   *http.Client

	authURL     string
	tokenURL    string
	userInfoURL string
}

func NewGoogle(clientID, clientSecret, redirectURI string, httpClient *http.Client) *Google {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Google{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		httpClient:   httpClient,
		authURL:      googleAuthURL,
		tokenURL:     googleTokenURL,
		userInfoURL:  googleUserInfoURL,
	}
}

func (g *Google) Name() domain.OAuthProvider {
	return domain.ProviderGoogle
}

func (g *Google) AuthorizationURL(state string) (string, string, error) {
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

func (g *Google) Exchange(ctx context.Context, code, pkceVerifier string) (string, error) {
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

type googleUserInfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func (g *Google) FetchProfile(ctx context.Context, accessToken string) (*domain.ProviderProfile, error) {
	body, err := fetchJSON(ctx, g.httpClient, g.userInfoURL, accessToken, nil)
	if err != nil {
		return nil, err
	}

	var info googleUserInfo
	if err := json.Unmarshal(body, &info); err != nil || info.ID == "" || info.Email == "" {
		return nil, domain.ErrOauthUserInfoParseFailed.WithDetail(string(body))
	}

	return &domain.ProviderProfile{
		Provider:       domain.ProviderGoogle,
		ProviderUserID: info.ID,
		Email:          info.Email,
		DisplayName:    info.Name,
		AvatarURL:      info.Picture,
	}, nil
}

func (g *Google) config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     g.clientID,
		ClientSecret: g.clientSecret,
		RedirectURL:  g.redirectURI,
		Scopes:       []string{"email", "profile"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  g.authURL,
			TokenURL: g.tokenURL,
		},
	}
}

// fetchJSON performs a bearer-authenticated GET and returns the raw body.
// Non-2xx responses and transport failures collapse to the fetch-failed
// class; the body is kept only for internal parse diagnostics.
func fetchJSON(ctx context.Context, client *http.Client, endpoint, accessToken string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, domain.ErrOauthUserInfoFetchFailed
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, domain.ErrOauthUserInfoFetchFailed
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, domain.ErrOauthUserInfoFetchFailed
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.ErrOauthUserInfoFetchFailed
	}
	return body, nil
}
