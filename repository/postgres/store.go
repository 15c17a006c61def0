package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wikigo/backend/domain"
	"github.com/wikigo/backend/repository"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so the same
// repository code serves pooled reads and transactional writes.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store owns the connection pool and hands out transaction-bound
// repositories. It is the only component that begins transactions.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Users returns a pool-backed user repository for non-transactional reads.
func (s *Store) Users() repository.UserRepository {
	return &userRepository{db: s.pool}
}

// OAuth returns a pool-backed oauth repository for non-transactional reads.
func (s *Store) OAuth() repository.OAuthRepository {
	return &oauthRepository{db: s.pool}
}

// AuthEvents returns the audit event repository.
func (s *Store) AuthEvents() repository.AuthEventRepository {
	return &authEventRepository{db: s.pool}
}

// WithinTx runs fn with repositories bound to a single transaction. fn
// returning an error rolls everything back; client disconnects do not --
// side effects committed before cancellation stay committed.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.NewTransactionError(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	repos := repository.Repositories{
		Users: &userRepository{db: tx},
		OAuth: &oauthRepository{db: tx},
	}
	if err := fn(ctx, repos); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.NewTransactionError(err)
	}
	return nil
}

var _ repository.TxRunner = (*Store)(nil)
