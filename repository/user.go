package repository

import (
	"context"

	"github.com/wikigo/backend/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// CreateOAuthUser inserts a password-less, pre-verified user. Unique
	// violations on handle/email surface as the matching domain error.
	CreateOAuthUser(ctx context.Context, user *domain.User) error
	// MarkVerified flips is_verified for the user; unknown ids surface as
	// ErrUserNotFound.
	MarkVerified(ctx context.Context, id string) error
	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
}
