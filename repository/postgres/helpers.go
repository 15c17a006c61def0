package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wikigo/backend/domain"
)

const uniqueViolation = "23505"

// Constraint names from assets/migrations; they are the storage-level
// signal that converts concurrent duplicate writes into stable errors.
const (
	constraintUserHandle    = "uq_users_handle"
	constraintUserEmail     = "uq_users_email"
	constraintOauthIdentity = "uq_oauth_provider_identity"
	constraintOauthPerUser  = "uq_oauth_user_provider"
)

// translateError maps unique-constraint violations onto the domain
// taxonomy; anything else is reported as a database fault.
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch pgErr.ConstraintName {
		case constraintUserHandle:
			return domain.ErrUserHandleExists
		case constraintUserEmail:
			return domain.ErrUserEmailExists
		case constraintOauthIdentity, constraintOauthPerUser:
			return domain.ErrOauthAccountLinked
		}
	}
	return domain.NewDatabaseError(err)
}
