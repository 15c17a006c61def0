package postgres

import (
	"context"

	"github.com/wikigo/backend/domain"
)

type authEventRepository struct {
	db querier
}

func (r *authEventRepository) InsertBatch(ctx context.Context, events []domain.AuthEvent) error {
	if len(events) == 0 {
		return nil
	}

	const query = `
	INSERT INTO auth_events (id, user_id, kind, ip_address, user_agent, occurred_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO NOTHING
	`
	for _, event := range events {
		_, err := r.db.Exec(ctx, query,
			event.ID,
			event.UserID,
			string(event.Kind),
			nullString(event.IPAddress),
			nullString(event.UserAgent),
			event.At,
		)
		if err != nil {
			return domain.NewDatabaseError(err)
		}
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
