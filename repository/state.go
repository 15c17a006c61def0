package repository

import (
	"context"
	"time"

	"github.com/wikigo/backend/domain"
)

// OAuthStateRepository stores one-time CSRF state records. Consume is an
// atomic get-and-delete: a token redeems at most once, and every failure
// shape (missing, expired, malformed) reports domain.ErrOauthInvalidState.
type OAuthStateRepository interface {
	Issue(ctx context.Context, state string, record domain.OAuthStateRecord, ttl time.Duration) error
	Consume(ctx context.Context, state string) (*domain.OAuthStateRecord, error)
}
