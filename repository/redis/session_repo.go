package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/wikigo/backend/domain"
	"github.com/wikigo/backend/repository"
)

type sessionRepository struct {
	client *redislib.Client
	prefix string
}

// NewSessionRepository creates a Redis-backed session repository.
func NewSessionRepository(client *redislib.Client) repository.SessionRepository {
	return &sessionRepository{
		client: client,
		prefix: "session:",
	}
}

func (r *sessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	result, err := r.client.Get(ctx, r.key(id)).Result()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, domain.NewInternalError("session read failed").Wrap(err)
	}

	var session domain.Session
	if err := json.Unmarshal([]byte(result), &session); err != nil {
		// Corrupt payload is a system fault, never "not found".
		return nil, domain.NewInternalError("session deserialization failed").Wrap(err)
	}
	return &session, nil
}

func (r *sessionRepository) Save(ctx context.Context, session *domain.Session) error {
	if session == nil || session.ID == "" || session.UserID == "" {
		return domain.NewValidationError("session requires id and user_id")
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return domain.NewValidationError("session expiry must be in the future")
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return domain.NewInternalError("session serialization failed").Wrap(err)
	}

	if err := r.client.Set(ctx, r.key(session.ID), payload, ttl).Err(); err != nil {
		return domain.NewInternalError("session write failed").Wrap(err)
	}
	return nil
}

func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return domain.NewInternalError("session deletion failed").Wrap(err)
	}
	return nil
}

func (r *sessionRepository) key(id string) string {
	return fmt.Sprintf("%s%s", r.prefix, id)
}
