package middleware

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/wikigo/backend/domain"
	"github.com/wikigo/backend/repository"
	redisRepo "github.com/wikigo/backend/repository/redis"
	authUC "github.com/wikigo/backend/usecase/auth"
)

type noUsers struct{}

func (noUsers) GetByID(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}
func (noUsers) GetByEmail(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}
func (noUsers) CreateOAuthUser(context.Context, *domain.User) error { return nil }
func (noUsers) MarkVerified(context.Context, string) error { return nil }
func (noUsers) UpdatePassword(context.Context, string, string) error {
	return nil
}

func newSessionFixture(t *testing.T, threshold float64) (*SessionLoader, *authUC.UseCase, repository.SessionRepository) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })

	sessions := redisRepo.NewSessionRepository(client)
	uc := authUC.New(noUsers{}, sessions, nil, authUC.Config{
		SlidingTTL:  time.Hour,
		MaxLifetime: 24 * time.Hour,
	}, nil)
	loader := NewSessionLoader(uc, CookiePolicy{Dev: true}, threshold, nil)
	return loader, uc, sessions
}

func request(handler fasthttp.RequestHandler, sessionID string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.SetRequestURI("/api/v1/auth/session")
	ctx.Request.Header.SetMethod(http.MethodGet)
	if sessionID != "" {
		ctx.Request.Header.SetCookie(SessionCookieName, sessionID)
	}
	handler(ctx)
	return ctx
}

func responseCookie(t *testing.T, ctx *fasthttp.RequestCtx) (string, bool) {
	t.Helper()
	c := fasthttp.AcquireCookie()
	defer fasthttp.ReleaseCookie(c)
	c.SetKey(SessionCookieName)
	if !ctx.Response.Header.Cookie(c) {
		return "", false
	}
	return string(c.Value()), true
}

func TestRequiredRejectsMissingCookie(t *testing.T) {
	loader, _, _ := newSessionFixture(t, 0.5)

	handler := loader.Required(func(ctx *fasthttp.RequestCtx) {
		t.Fatal("handler must not run")
	})
	ctx := request(handler, "")
	assert.Equal(t, http.StatusUnauthorized, ctx.Response.StatusCode())
}

func TestRequiredRejectsUnknownSession(t *testing.T) {
	loader, _, _ := newSessionFixture(t, 0.5)

	handler := loader.Required(func(ctx *fasthttp.RequestCtx) {
		t.Fatal("handler must not run")
	})
	ctx := request(handler, "ghost")
	assert.Equal(t, http.StatusUnauthorized, ctx.Response.StatusCode())

	// The dead cookie is cleared.
	value, ok := responseCookie(t, ctx)
	require.True(t, ok)
	assert.Empty(t, value)
}

func TestRequiredResolvesSession(t *testing.T) {
	loader, uc, _ := newSessionFixture(t, 0.5)

	session, err := uc.CreateSession(context.Background(), "user-1", "", "")
	require.NoError(t, err)

	var seen *domain.Session
	handler := loader.Required(func(ctx *fasthttp.RequestCtx) {
		seen = SessionFromCtx(ctx)
		ctx.SetStatusCode(http.StatusOK)
	})
	ctx := request(handler, session.ID)

	assert.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	require.NotNil(t, seen)
	assert.Equal(t, "user-1", seen.UserID)

	// A fresh session sits above the refresh threshold; no cookie rewrite.
	_, ok := responseCookie(t, ctx)
	assert.False(t, ok)
}

func TestOptionalPassesWithoutSession(t *testing.T) {
	loader, _, _ := newSessionFixture(t, 0.5)

	handler := loader.Optional(func(ctx *fasthttp.RequestCtx) {
		assert.Nil(t, SessionFromCtx(ctx))
		ctx.SetStatusCode(http.StatusOK)
	})
	ctx := request(handler, "")
	assert.Equal(t, http.StatusOK, ctx.Response.StatusCode())
}

func TestAutoRefreshBelowThreshold(t *testing.T) {
	loader, _, sessions := newSessionFixture(t, 0.5)
	ctx := context.Background()

	// Remaining lifetime is 20 minutes out of an hour, below the 50%
	// threshold, so the middleware must slide the expiry.
	now := time.Now()
	stale := &domain.Session{
		ID:        "stale",
		UserID:    "user-1",
		CreatedAt: now.Add(-40 * time.Minute),
		ExpiresAt: now.Add(20 * time.Minute),
	}
	require.NoError(t, sessions.Save(ctx, stale))

	handler := loader.Required(func(rc *fasthttp.RequestCtx) {
		rc.SetStatusCode(http.StatusOK)
	})
	rc := request(handler, "stale")
	assert.Equal(t, http.StatusOK, rc.Response.StatusCode())

	value, ok := responseCookie(t, rc)
	require.True(t, ok)
	assert.Equal(t, "stale", value)

	refreshed, err := sessions.Get(ctx, "stale")
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(time.Hour), refreshed.ExpiresAt, 5*time.Second)
}
