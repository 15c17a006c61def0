package repository

import (
	"context"
	"time"
)

// RateLimitRepository backs the fixed-window counter. Hit atomically
// increments the (route, identity) counter, arming the window TTL on the
// first increment. Window reports the remaining TTL, clamped to >= 0.
type RateLimitRepository interface {
	Hit(ctx context.Context, route, identity string, window time.Duration) (int64, error)
	Window(ctx context.Context, route, identity string) (time.Duration, error)
}
