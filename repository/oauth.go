package repository

import (
	"context"

	"github.com/wikigo/backend/domain"
)

type OAuthRepository interface {
	// FindUserByConnection returns the user owning (provider, providerUserID),
	// or domain.ErrUserNotFound.
	FindUserByConnection(ctx context.Context, provider domain.OAuthProvider, providerUserID string) (*domain.User, error)
	// FindConnection returns the user's connection for a provider, or
	// domain.ErrOauthConnectionNotFound.
	FindConnection(ctx context.Context, userID string, provider domain.OAuthProvider) (*domain.OAuthConnection, error)
	CountConnections(ctx context.Context, userID string) (int, error)
	CreateConnection(ctx context.Context, userID string, provider domain.OAuthProvider, providerUserID string) error
	DeleteConnection(ctx context.Context, userID string, provider domain.OAuthProvider) error
}

// Repositories bundles the relational repositories bound to one transaction.
type Repositories struct {
	Users UserRepository
	OAuth OAuthRepository
}

// TxRunner executes fn inside a database transaction. A non-nil error from
// fn rolls the transaction back; otherwise it commits.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
