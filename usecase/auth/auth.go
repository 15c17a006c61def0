package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wikigo/backend/domain"
	"github.com/wikigo/backend/internal/token"
	"github.com/wikigo/backend/pkg/password"
	"github.com/wikigo/backend/repository"
	"github.com/wikigo/backend/usecase"
)

// Config carries the session lifetime policy and the optional token issuer
// for email verification and password reset.
type Config struct {
	// SlidingTTL is the window a session stays valid without activity.
	SlidingTTL time.Duration
	// MaxLifetime is the hard ceiling: renewals never push expiry past
	// created_at + MaxLifetime.
	MaxLifetime time.Duration
	// Tokens signs verification/reset tokens; flows that need it fail with
	// a system error when it is absent.
	Tokens *token.Issuer
	// VerificationTTL bounds email-verification tokens.
	VerificationTTL time.Duration
	// ResetTTL bounds password-reset tokens.
	ResetTTL time.Duration
}

var errNoTokenIssuer = errors.New("token issuer not configured")

type UseCase struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	events   usecase.AuthEventRecorder
	cfg      Config
	logger   *zap.Logger
}

func New(users repository.UserRepository, sessions repository.SessionRepository, events usecase.AuthEventRecorder, cfg Config, logger *zap.Logger) *UseCase {
	if cfg.SlidingTTL <= 0 {
		cfg.SlidingTTL = 24 * time.Hour
	}
	if cfg.MaxLifetime < cfg.SlidingTTL {
		cfg.MaxLifetime = cfg.SlidingTTL
	}
	if cfg.VerificationTTL <= 0 {
		cfg.VerificationTTL = 24 * time.Hour
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:    users,
		sessions: sessions,
		events:   events,
		cfg:      cfg,
		logger:   logger,
	}
}

// Login verifies email/password credentials and issues a session.
func (uc *UseCase) Login(ctx context.Context, email, plainPassword, userAgent, ipAddress string) (*domain.Session, error) {
	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user.IsBanned {
		return nil, domain.ErrUserBanned
	}
	if !user.HasPassword() {
		return nil, domain.ErrUserPasswordNotSet
	}
	if err := password.Verify(plainPassword, *user.PasswordHash); err != nil {
		return nil, err
	}

	session, err := uc.CreateSession(ctx, user.ID, userAgent, ipAddress)
	if err != nil {
		return nil, err
	}
	uc.record(ctx, domain.AuthEventLogin, user.ID, userAgent, ipAddress)
	return session, nil
}

// CreateSession issues a fresh session for the user.
func (uc *UseCase) CreateSession(ctx context.Context, userID, userAgent, ipAddress string) (*domain.Session, error) {
	now := time.Now()
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(uc.cfg.SlidingTTL),
		UserAgent: userAgent,
		IPAddress: ipAddress,
	}

	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// GetSession loads a session, double-checking the clock-derived expiry
// against store TTL drift. An expired record is deleted and reported as
// not found.
func (uc *UseCase) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsExpired(time.Now()) {
		_ = uc.sessions.Delete(ctx, sessionID)
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// RefreshSession slides the expiry forward, never past the max-lifetime
// ceiling. A refresh racing a concurrent logout may resurrect the session
// for one write cycle; that bounded risk is accepted in exchange for
// lock-free per-key operations.
func (uc *UseCase) RefreshSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := uc.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	expiry := now.Add(uc.cfg.SlidingTTL)
	if ceiling := session.MaxExpiry(uc.cfg.MaxLifetime); expiry.After(ceiling) {
		expiry = ceiling
	}
	if !expiry.After(now) {
		// The ceiling has passed; the session is at end of life.
		_ = uc.sessions.Delete(ctx, sessionID)
		return nil, domain.ErrSessionNotFound
	}

	session.ExpiresAt = expiry
	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// RemainingFraction reports how much of the sliding window is left, in the
// range [0, 1]. Middleware uses it to decide when to auto-refresh.
func (uc *UseCase) RemainingFraction(session *domain.Session) float64 {
	if session == nil {
		return 0
	}
	remaining := time.Until(session.ExpiresAt)
	if remaining <= 0 {
		return 0
	}
	fraction := float64(remaining) / float64(uc.cfg.SlidingTTL)
	if fraction > 1 {
		fraction = 1
	}
	return fraction
}

// SlidingTTL exposes the configured window for cookie Max-Age computation.
func (uc *UseCase) SlidingTTL() time.Duration {
	return uc.cfg.SlidingTTL
}

// Logout deletes the session. Deletion is idempotent.
func (uc *UseCase) Logout(ctx context.Context, session *domain.Session) error {
	if session == nil {
		return nil
	}
	if err := uc.sessions.Delete(ctx, session.ID); err != nil {
		return err
	}
	uc.record(ctx, domain.AuthEventLogout, session.UserID, session.UserAgent, session.IPAddress)
	return nil
}

// DeleteSession removes a session by id without audit bookkeeping.
func (uc *UseCase) DeleteSession(ctx context.Context, sessionID string) error {
	return uc.sessions.Delete(ctx, sessionID)
}

// IssueEmailVerification mints a verification token for an unverified user.
// Delivering the token (email or otherwise) is the caller's problem.
func (uc *UseCase) IssueEmailVerification(ctx context.Context, userID string) (string, error) {
	if uc.cfg.Tokens == nil {
		return "", domain.NewTokenCreationError(errNoTokenIssuer)
	}
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.IsVerified {
		return "", domain.ErrEmailAlreadyVerified
	}
	return uc.cfg.Tokens.Issue(user.ID, user.Email, token.PurposeVerifyEmail, uc.cfg.VerificationTTL)
}

// ConfirmEmailVerification redeems a verification token and marks the
// account verified. Redeeming twice is harmless.
func (uc *UseCase) ConfirmEmailVerification(ctx context.Context, raw string) error {
	if uc.cfg.Tokens == nil {
		return domain.NewTokenCreationError(errNoTokenIssuer)
	}
	userID, err := uc.cfg.Tokens.Verify(raw, token.PurposeVerifyEmail, "")
	if err != nil {
		return err
	}
	if err := uc.users.MarkVerified(ctx, userID); err != nil {
		return err
	}
	uc.record(ctx, domain.AuthEventEmailVerified, userID, "", "")
	return nil
}

// IssuePasswordReset mints a reset token for the account holding the email.
// OAuth-only accounts have no password to reset.
func (uc *UseCase) IssuePasswordReset(ctx context.Context, email string) (string, error) {
	if uc.cfg.Tokens == nil {
		return "", domain.NewTokenCreationError(errNoTokenIssuer)
	}
	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if !user.HasPassword() {
		return "", domain.ErrUserPasswordNotSet
	}
	return uc.cfg.Tokens.Issue(user.ID, user.Email, token.PurposeResetPassword, uc.cfg.ResetTTL)
}

// ResetPassword redeems a reset token and replaces the stored hash.
func (uc *UseCase) ResetPassword(ctx context.Context, raw, newPassword, userAgent, ipAddress string) error {
	if uc.cfg.Tokens == nil {
		return domain.NewTokenCreationError(errNoTokenIssuer)
	}
	if newPassword == "" {
		return domain.NewValidationError("password must not be empty")
	}
	userID, err := uc.cfg.Tokens.Verify(raw, token.PurposeResetPassword, "")
	if err != nil {
		return err
	}
	hash, err := password.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := uc.users.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	uc.record(ctx, domain.AuthEventPasswordReset, userID, userAgent, ipAddress)
	return nil
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
