package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/wikigo/backend/domain"
)

type userRepository struct {
	db querier
}

const userColumns = `id, handle, email, display_name, password_hash, bio, profile_image, is_verified, is_banned, created_at`

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, email))
}

func (r *userRepository) CreateOAuthUser(ctx context.Context, user *domain.User) error {
	if user == nil || user.Handle == "" || user.Email == "" {
		return domain.NewValidationError("oauth user requires handle and email")
	}

	const query = `
	INSERT INTO users (handle, email, display_name, password_hash, profile_image, is_verified, is_banned)
	VALUES ($1, $2, $3, NULL, $4, TRUE, FALSE)
	RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		user.Handle,
		user.Email,
		user.DisplayName,
		user.ProfileImage,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return translateError(err)
	}

	user.PasswordHash = nil
	user.IsVerified = true
	user.IsBanned = false
	return nil
}

func (r *userRepository) MarkVerified(ctx context.Context, id string) error {
	const query = `UPDATE users SET is_verified = TRUE WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return domain.NewDatabaseError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	const query = `UPDATE users SET password_hash = $2 WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id, passwordHash)
	if err != nil {
		return domain.NewDatabaseError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) scanOne(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Handle,
		&user.Email,
		&user.DisplayName,
		&user.PasswordHash,
		&user.Bio,
		&user.ProfileImage,
		&user.IsVerified,
		&user.IsBanned,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, domain.NewDatabaseError(err)
	}
	return &user, nil
}
