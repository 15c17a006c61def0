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

type oauthStateRepository struct {
	client *redislib.Client
	prefix string
}

// NewOAuthStateRepository creates a Redis-backed one-time state store.
func NewOAuthStateRepository(client *redislib.Client) repository.OAuthStateRepository {
	return &oauthStateRepository{
		client: client,
		prefix: "oauth:state:",
	}
}

func (r *oauthStateRepository) Issue(ctx context.Context, state string, record domain.OAuthStateRecord, ttl time.Duration) error {
	if state == "" {
		return domain.NewValidationError("state token must not be empty")
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return domain.NewInternalError("oauth state serialization failed").Wrap(err)
	}

	if err := r.client.Set(ctx, r.key(state), payload, ttl).Err(); err != nil {
		return domain.NewInternalError("oauth state write failed").Wrap(err)
	}
	return nil
}

func (r *oauthStateRepository) Consume(ctx context.Context, state string) (*domain.OAuthStateRecord, error) {
	// GETDEL makes redemption atomic: two concurrent consumers cannot both
	// observe the record. Missing, expired, and malformed payloads all
	// collapse to the same error so probes learn nothing.
	result, err := r.client.GetDel(ctx, r.key(state)).Result()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, domain.ErrOauthInvalidState
		}
		return nil, domain.NewInternalError("oauth state consume failed").Wrap(err)
	}

	var record domain.OAuthStateRecord
	if err := json.Unmarshal([]byte(result), &record); err != nil {
		return nil, domain.ErrOauthInvalidState
	}
	if record.PKCEVerifier == "" {
		return nil, domain.ErrOauthInvalidState
	}
	return &record, nil
}

func (r *oauthStateRepository) key(state string) string {
	return fmt.Sprintf("%s%s", r.prefix, state)
}
