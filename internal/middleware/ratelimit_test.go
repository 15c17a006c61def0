package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/wikigo/backend/api/transport"
	"github.com/wikigo/backend/domain"
	redisRepo "github.com/wikigo/backend/repository/redis"
)

func newLimiter(t *testing.T, limit int64, window time.Duration) (*RateLimiter, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })
	repo := redisRepo.NewRateLimitRepository(client)
	return NewRateLimiter(repo, limit, window, nil), srv
}

func doRequest(handler fasthttp.RequestHandler, sessionID string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.SetRequestURI("/api/v1/auth/login")
	ctx.Request.Header.SetMethod(http.MethodPost)
	if sessionID != "" {
		ctx.Request.Header.SetCookie(SessionCookieName, sessionID)
	}
	handler(ctx)
	return ctx
}

func TestRateLimiterAllowsUpToLimit(t *testing.T) {
	limiter, _ := newLimiter(t, 10, time.Minute)

	called := 0
	handler := limiter.Limit("auth_login", func(ctx *fasthttp.RequestCtx) {
		called++
		ctx.SetStatusCode(http.StatusOK)
	})

	for i := 0; i < 10; i++ {
		ctx := doRequest(handler, "sess-1")
		assert.Equal(t, http.StatusOK, ctx.Response.StatusCode())
		assert.Equal(t, "10", string(ctx.Response.Header.Peek("X-RateLimit-Limit")))
		wantRemaining := strconv.Itoa(9 - i)
		assert.Equal(t, wantRemaining, string(ctx.Response.Header.Peek("X-RateLimit-Remaining")))
	}
	assert.Equal(t, 10, called)
}

func TestRateLimiterRejectsOverLimit(t *testing.T) {
	limiter, _ := newLimiter(t, 10, time.Minute)

	called := 0
	handler := limiter.Limit("auth_login", func(ctx *fasthttp.RequestCtx) {
		called++
		ctx.SetStatusCode(http.StatusOK)
	})

	for i := 0; i < 10; i++ {
		doRequest(handler, "sess-1")
	}

	ctx := doRequest(handler, "sess-1")
	assert.Equal(t, http.StatusTooManyRequests, ctx.Response.StatusCode())
	assert.Equal(t, 10, called)
	assert.Equal(t, "0", string(ctx.Response.Header.Peek("X-RateLimit-Remaining")))

	retryAfter, err := strconv.Atoi(string(ctx.Response.Header.Peek("Retry-After")))
	require.NoError(t, err)
	assert.Greater(t, retryAfter, 0)
	assert.LessOrEqual(t, retryAfter, 60)
	assert.Equal(t,
		string(ctx.Response.Header.Peek("Retry-After")),
		string(ctx.Response.Header.Peek("X-RateLimit-Reset")))

	var env transport.Envelope
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &env))
	assert.Equal(t, "error", env.Status)
	assert.Equal(t, string(domain.CodeRateLimitExceeded), env.Code)
}

func TestRateLimiterWindowRollsOver(t *testing.T) {
	limiter, srv := newLimiter(t, 2, time.Minute)

	handler := limiter.Limit("auth_login", func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(http.StatusOK)
	})

	doRequest(handler, "sess-1")
	doRequest(handler, "sess-1")
	ctx := doRequest(handler, "sess-1")
	assert.Equal(t, http.StatusTooManyRequests, ctx.Response.StatusCode())

	srv.FastForward(2 * time.Minute)

	ctx = doRequest(handler, "sess-1")
	assert.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "1", string(ctx.Response.Header.Peek("X-RateLimit-Remaining")))
}

func TestRateLimiterSeparatesIdentities(t *testing.T) {
	limiter, _ := newLimiter(t, 1, time.Minute)

	handler := limiter.Limit("auth_login", func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, doRequest(handler, "sess-1").Response.StatusCode())
	assert.Equal(t, http.StatusTooManyRequests, doRequest(handler, "sess-1").Response.StatusCode())

	// A different session has its own counter.
	assert.Equal(t, http.StatusOK, doRequest(handler, "sess-2").Response.StatusCode())
}

func TestRateLimiterAnonymousShareBucket(t *testing.T) {
	limiter, _ := newLimiter(t, 1, time.Minute)

	handler := limiter.Limit("auth_login", func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(http.StatusOK)
	})

	// Requests without a session cookie all land in the same bucket.
	assert.Equal(t, http.StatusOK, doRequest(handler, "").Response.StatusCode())
	assert.Equal(t, http.StatusTooManyRequests, doRequest(handler, "").Response.StatusCode())
}

func TestRateLimiterFailsOpen(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })
	limiter := NewRateLimiter(redisRepo.NewRateLimitRepository(client), 1, time.Minute, nil)

	srv.Close()

	handler := limiter.Limit("auth_login", func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(http.StatusOK)
	})
	assert.Equal(t, http.StatusOK, doRequest(handler, "sess-1").Response.StatusCode())
}
