package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/wikigo/backend/api/transport"
	"github.com/wikigo/backend/domain"
	"github.com/wikigo/backend/repository"
)

// anonymousIdentity buckets every request without a session cookie together.
// The client IP is logged for diagnostics but never used as the counter key.
const anonymousIdentity = "unknown"

// RateLimiter applies a fixed-window counter per (route, identity). The
// identity is the session cookie value when present; the counter fails open
// when the backing store is unreachable.
type RateLimiter struct {
	repo   repository.RateLimitRepository
	limit  int64
	window time.Duration
	logger *zap.Logger
}

func NewRateLimiter(repo repository.RateLimitRepository, limit int64, window time.Duration, logger *zap.Logger) *RateLimiter {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{repo: repo, limit: limit, window: window, logger: logger}
}

// Limit wraps a handler with the counter for the named route.
func (m *RateLimiter) Limit(route string, next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		identity := SessionID(ctx)
		if identity == "" {
			identity = anonymousIdentity
		}

		stdCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		count, err := m.repo.Hit(stdCtx, route, identity, m.window)
		if err != nil {
			m.logger.Warn("rate limit store unavailable, failing open",
				zap.String("route", route), zap.Error(err))
			next(ctx)
			return
		}

		ctx.Response.Header.Set("X-RateLimit-Limit", strconv.FormatInt(m.limit, 10))

		if count > m.limit {
			retryAfter := m.retryAfter(stdCtx, route, identity)
			ctx.Response.Header.Set("X-RateLimit-Remaining", "0")
			ctx.Response.Header.Set("X-RateLimit-Reset", strconv.FormatInt(retryAfter, 10))
			ctx.Response.Header.Set("Retry-After", strconv.FormatInt(retryAfter, 10))

			m.logger.Warn("rate limit exceeded",
				zap.String("route", route),
				zap.Int64("count", count),
				zap.String("remote_addr", ctx.RemoteAddr().String()))

			ctx.Response.Header.SetContentType("application/json")
			ctx.SetStatusCode(http.StatusTooManyRequests)
			env := transport.NewError(
				string(domain.CodeRateLimitExceeded),
				transport.ErrorBody{Message: "rate limit exceeded"},
				nil,
			)
			body, _ := json.Marshal(env)
			ctx.SetBody(body)
			return
		}

		remaining := m.limit - count
		ctx.Response.Header.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		next(ctx)
	}
}

// retryAfter reads the window TTL, rounded up so a client never retries
// before the window actually rolls over.
func (m *RateLimiter) retryAfter(ctx context.Context, route, identity string) int64 {
	ttl, err := m.repo.Window(ctx, route, identity)
	if err != nil || ttl <= 0 {
		return int64(m.window / time.Second)
	}
	secs := int64((ttl + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
