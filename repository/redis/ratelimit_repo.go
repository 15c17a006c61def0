package redis

import (
	"context"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/wikigo/backend/domain"
	"github.com/wikigo/backend/repository"
)

type rateLimitRepository struct {
	client *redislib.Client
	prefix string
}

// NewRateLimitRepository creates a Redis-backed fixed-window counter.
func NewRateLimitRepository(client *redislib.Client) repository.RateLimitRepository {
	return &rateLimitRepository{
		client: client,
		prefix: "rate_limit:",
	}
}

func (r *rateLimitRepository) Hit(ctx context.Context, route, identity string, window time.Duration) (int64, error) {
	key := r.key(route, identity)

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, domain.NewInternalError("rate limit increment failed").Wrap(err)
	}

	// The first increment marks the window boundary; later hits never touch
	// the TTL, keeping the window fixed rather than sliding.
	if count == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, domain.NewInternalError("rate limit expire failed").Wrap(err)
		}
	}
	return count, nil
}

func (r *rateLimitRepository) Window(ctx context.Context, route, identity string) (time.Duration, error) {
	ttl, err := r.client.TTL(ctx, r.key(route, identity)).Result()
	if err != nil {
		return 0, domain.NewInternalError("rate limit ttl lookup failed").Wrap(err)
	}
	if ttl < 0 {
		ttl = 0
	}
	return ttl, nil
}

func (r *rateLimitRepository) key(route, identity string) string {
	return fmt.Sprintf("%s%s:%s", r.prefix, route, identity)
}
