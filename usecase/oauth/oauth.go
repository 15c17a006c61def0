// Package oauth orchestrates the provider login round-trip: state issuance,
// code exchange, account resolution, and session creation.
package oauth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wikigo/backend/domain"
	"github.com/wikigo/backend/internal/provider"
	"github.com/wikigo/backend/repository"
	"github.com/wikigo/backend/usecase"
	"github.com/wikigo/backend/usecase/auth"
)

// Config tunes the orchestrator.
type Config struct {
	// StateTTL bounds the authorization round-trip. Defaults to 5 minutes.
	StateTTL time.Duration
}

type UseCase struct {
	providers *provider.Registry
	states    repository.OAuthStateRepository
	tx        repository.TxRunner
	sessions  *auth.UseCase
	events    usecase.AuthEventRecorder
	cfg       Config
	logger    *zap.Logger
}

func New(providers *provider.Registry, states repository.OAuthStateRepository, tx repository.TxRunner, sessions *auth.UseCase, events usecase.AuthEventRecorder, cfg Config, logger *zap.Logger) *UseCase {
	if cfg.StateTTL <= 0 {
		cfg.StateTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		providers: providers,
		states:    states,
		tx:        tx,
		sessions:  sessions,
		events:    events,
		cfg:       cfg,
		logger:    logger,
	}
}

// AuthorizationURL issues a fresh CSRF state, persists its PKCE verifier,
// and returns the provider URL to redirect the browser to.
func (uc *UseCase) AuthorizationURL(ctx context.Context, providerName domain.OAuthProvider) (string, error) {
	client, err := uc.client(providerName)
	if err != nil {
		return "", err
	}

	state := uuid.NewString()
	authURL, verifier, err := client.AuthorizationURL(state)
	if err != nil {
		return "", err
	}

	record := domain.OAuthStateRecord{PKCEVerifier: verifier}
	if err := uc.states.Issue(ctx, state, record, uc.cfg.StateTTL); err != nil {
		return "", err
	}
	return authURL, nil
}

// CompleteLogin redeems the callback. The state token is consumed before
// anything else so a replayed callback fails closed. Handle is required only
// when the profile belongs to nobody and no account shares its email; in
// that case an empty handle reports domain.ErrOauthHandleRequired and the
// caller must retry the whole flow with a handle.
func (uc *UseCase) CompleteLogin(ctx context.Context, providerName domain.OAuthProvider, code, state, handle, userAgent, ipAddress string) (*domain.Session, error) {
	profile, err := uc.redeem(ctx, providerName, code, state)
	if err != nil {
		return nil, err
	}

	var user *domain.User
	err = uc.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		user, err = resolveUser(ctx, repos, profile, handle)
		return err
	})
	if err != nil {
		return nil, err
	}
	if user.IsBanned {
		return nil, domain.ErrUserBanned
	}

	session, err := uc.sessions.CreateSession(ctx, user.ID, userAgent, ipAddress)
	if err != nil {
		return nil, err
	}
	uc.record(ctx, domain.AuthEventOauthLogin, user.ID, userAgent, ipAddress)
	return session, nil
}

// LinkAccount attaches a provider identity to an already-authenticated user.
func (uc *UseCase) LinkAccount(ctx context.Context, providerName domain.OAuthProvider, code, state, userID string) error {
	profile, err := uc.redeem(ctx, providerName, code, state)
	if err != nil {
		return err
	}

	err = uc.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.OAuth.FindUserByConnection(ctx, profile.Provider, profile.ProviderUserID); err == nil {
			return domain.ErrOauthAccountLinked
		} else if !errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		if _, err := repos.OAuth.FindConnection(ctx, userID, profile.Provider); err == nil {
			return domain.ErrOauthAccountLinked
		} else if !errors.Is(err, domain.ErrOauthConnectionNotFound) {
			return err
		}
		return repos.OAuth.CreateConnection(ctx, userID, profile.Provider, profile.ProviderUserID)
	})
	if err != nil {
		return err
	}

	uc.record(ctx, domain.AuthEventOauthLink, userID, "", "")
	return nil
}

// UnlinkAccount removes a provider connection. A user without a password
// must keep at least one connection, or they would lock themselves out.
func (uc *UseCase) UnlinkAccount(ctx context.Context, providerName domain.OAuthProvider, userID string) error {
	if !providerName.Valid() {
		return domain.ErrOauthUnsupportedProvider
	}
	return uc.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		user, err := repos.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if !user.HasPassword() {
			count, err := repos.OAuth.CountConnections(ctx, userID)
			if err != nil {
				return err
			}
			if count <= 1 {
				return domain.ErrOauthCannotUnlinkLast
			}
		}
		return repos.OAuth.DeleteConnection(ctx, userID, providerName)
	})
}

// SessionTTL exposes the sliding window of issued sessions for cookie
// Max-Age computation.
func (uc *UseCase) SessionTTL() time.Duration {
	return uc.sessions.SlidingTTL()
}

// redeem runs the shared callback half: consume the one-time state, exchange
// the code with PKCE, and fetch the provider profile.
func (uc *UseCase) redeem(ctx context.Context, providerName domain.OAuthProvider, code, state string) (*domain.ProviderProfile, error) {
	client, err := uc.client(providerName)
	if err != nil {
		return nil, err
	}

	record, err := uc.states.Consume(ctx, state)
	if err != nil {
		return nil, err
	}

	accessToken, err := client.Exchange(ctx, code, record.PKCEVerifier)
	if err != nil {
		return nil, err
	}
	return client.FetchProfile(ctx, accessToken)
}

func (uc *UseCase) client(name domain.OAuthProvider) (provider.Client, error) {
	client, ok := uc.providers.Get(name)
	if !ok {
		return nil, domain.ErrOauthUnsupportedProvider
	}
	return client, nil
}

// resolveUser maps a provider profile onto a local account:
//
//  1. a known (provider, provider_user_id) pair logs that user in;
//  2. otherwise an account with the same email gets the connection linked
//     implicitly, unless it already holds one for this provider;
//  3. otherwise a new password-less account is created, which needs a handle.
//
// Runs inside one transaction so a concurrent signup with the same profile
// resolves to exactly one account.
func resolveUser(ctx context.Context, repos repository.Repositories, profile *domain.ProviderProfile, handle string) (*domain.User, error) {
	user, err := repos.OAuth.FindUserByConnection(ctx, profile.Provider, profile.ProviderUserID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	user, err = repos.Users.GetByEmail(ctx, profile.Email)
	if err == nil {
		if _, err := repos.OAuth.FindConnection(ctx, user.ID, profile.Provider); err == nil {
			// Same email, but the account is already bound to a different
			// identity at this provider.
			return nil, domain.ErrOauthAccountLinked
		} else if !errors.Is(err, domain.ErrOauthConnectionNotFound) {
			return nil, err
		}
		if err := repos.OAuth.CreateConnection(ctx, user.ID, profile.Provider, profile.ProviderUserID); err != nil {
			return nil, err
		}
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	if handle == "" {
		return nil, domain.ErrOauthHandleRequired
	}
	user = &domain.User{
		Handle:      handle,
		Email:       profile.Email,
		DisplayName: profile.DisplayName,
	}
	if profile.AvatarURL != "" {
		avatar := profile.AvatarURL
		user.ProfileImage = &avatar
	}
	if err := repos.Users.CreateOAuthUser(ctx, user); err != nil {
		return nil, err
	}
	if err := repos.OAuth.CreateConnection(ctx, user.ID, profile.Provider, profile.ProviderUserID); err != nil {
		return nil, err
	}
	return user, nil
}

func (uc *UseCase) record(ctx context.Context, kind domain.AuthEventKind, userID, userAgent, ipAddress string) {
	if uc.events == nil {
		return
	}
	event := domain.AuthEvent{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      kind,
		UserAgent: userAgent,
		IPAddress: ipAddress,
		At:        time.Now(),
	}
	if err := uc.events.Record(ctx, event); err != nil {
		uc.logger.Warn("auth event not recorded", zap.String("kind", string(kind)), zap.Error(err))
	}
}
