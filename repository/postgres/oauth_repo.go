package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/wikigo/backend/domain"
)

type oauthRepository struct {
	db querier
}

func (r *oauthRepository) FindUserByConnection(ctx context.Context, provider domain.OAuthProvider, providerUserID string) (*domain.User, error) {
	const query = `
	SELECT u.id, u.handle, u.email, u.display_name, u.password_hash, u.bio, u.profile_image, u.is_verified, u.is_banned, u.created_at
	FROM users u
	JOIN user_oauth_connections c ON c.user_id = u.id
	WHERE c.provider = $1 AND c.provider_user_id = $2
	`
	row := r.db.QueryRow(ctx, query, string(provider), providerUserID)

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

func (r *oauthRepository) FindConnection(ctx context.Context, userID string, provider domain.OAuthProvider) (*domain.OAuthConnection, error) {
	const query = `
	SELECT id, user_id, provider, provider_user_id, created_at
	FROM user_oauth_connections
	WHERE user_id = $1 AND provider = $2
	`
	row := r.db.QueryRow(ctx, query, userID, string(provider))

	var conn domain.OAuthConnection
	err := row.Scan(&conn.ID, &conn.UserID, &conn.Provider, &conn.ProviderUserID, &conn.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOauthConnectionNotFound
		}
		return nil, domain.NewDatabaseError(err)
	}
	return &conn, nil
}

func (r *oauthRepository) CountConnections(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM user_oauth_connections WHERE user_id = $1`

	var count int
	if err := r.db.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, domain.NewDatabaseError(err)
	}
	return count, nil
}

func (r *oauthRepository) CreateConnection(ctx context.Context, userID string, provider domain.OAuthProvider, providerUserID string) error {
	const query = `
	INSERT INTO user_oauth_connections (user_id, provider, provider_user_id)
	VALUES ($1, $2, $3)
	`
	if _, err := r.db.Exec(ctx, query, userID, string(provider), providerUserID); err != nil {
		return translateError(err)
	}
	return nil
}

func (r *oauthRepository) DeleteConnection(ctx context.Context, userID string, provider domain.OAuthProvider) error {
	const query = `DELETE FROM user_oauth_connections WHERE user_id = $1 AND provider = $2`

	tag, err := r.db.Exec(ctx, query, userID, string(provider))
	if err != nil {
		return domain.NewDatabaseError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOauthConnectionNotFound
	}
	return nil
}
