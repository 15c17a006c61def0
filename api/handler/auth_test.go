package handler

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
	"github.com/wikigo/backend/internal/middleware"
	"github.com/wikigo/backend/internal/token"
	"github.com/wikigo/backend/pkg/password"
	redisRepo "github.com/wikigo/backend/repository/redis"
	authUC "github.com/wikigo/backend/usecase/auth"
)

type stubUsers struct {
	byEmail map[string]*domain.User
}

func (s *stubUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	for _, u := range s.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *stubUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if u, ok := s.byEmail[email]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (s *stubUsers) CreateOAuthUser(_ context.Context, _ *domain.User) error { return nil }

func (s *stubUsers) MarkVerified(_ context.Context, _ string) error { return nil }

func (s *stubUsers) UpdatePassword(_ context.Context, _ string, _ string) error { return nil }

func newAuthFixture(t *testing.T) (*AuthHandler, *authUC.UseCase, *middleware.SessionLoader) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })

	hash, err := password.Hash("s3cret")
	require.NoError(t, err)
	users := &stubUsers{byEmail: map[string]*domain.User{
		"alice@example.com": {ID: "user-1", Handle: "alice", Email: "alice@example.com", PasswordHash: &hash},
	}}

	uc := authUC.New(users, redisRepo.NewSessionRepository(client), nil, authUC.Config{
		SlidingTTL:  time.Hour,
		MaxLifetime: 24 * time.Hour,
		Tokens:      token.NewIssuer("handler-test-secret", "test"),
	}, nil)

	cookies := middleware.CookiePolicy{Dev: true}
	handler := NewAuthHandler(uc, cookies, nil, nil, true)
	loader := middleware.NewSessionLoader(uc, cookies, 0.5, nil)
	return handler, uc, loader
}

func postJSON(handler fasthttp.RequestHandler, body string, sessionID string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.SetRequestURI("/api/v1/auth/login")
	ctx.Request.Header.SetMethod(http.MethodPost)
	ctx.Request.Header.SetContentType("application/json")
	ctx.Request.SetBodyString(body)
	if sessionID != "" {
		ctx.Request.Header.SetCookie(middleware.SessionCookieName, sessionID)
	}
	handler(ctx)
	return ctx
}

func sessionCookie(t *testing.T, ctx *fasthttp.RequestCtx) *fasthttp.Cookie {
	t.Helper()
	c := fasthttp.AcquireCookie()
	t.Cleanup(func() { fasthttp.ReleaseCookie(c) })
	c.SetKey(middleware.SessionCookieName)
	if !ctx.Response.Header.Cookie(c) {
		return nil
	}
	return c
}

func TestLoginSetsSessionCookie(t *testing.T) {
	handler, uc, _ := newAuthFixture(t)

	ctx := postJSON(handler.Login, `{"email":"alice@example.com","password":"s3cret"}`, "")
	assert.Equal(t, http.StatusOK, ctx.Response.StatusCode())

	c := sessionCookie(t, ctx)
	require.NotNil(t, c)
	assert.NotEmpty(t, c.Value())
	assert.True(t, c.HTTPOnly())
	assert.True(t, c.Secure())
	assert.Equal(t, "/", string(c.Path()))
	assert.Equal(t, 3600, c.MaxAge())

	session, err := uc.GetSession(context.Background(), string(c.Value()))
	require.NoError(t, err)
	assert.Equal(t, "user-1", session.UserID)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	handler, _, _ := newAuthFixture(t)

	ctx := postJSON(handler.Login, `{"email":"alice@example.com","password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, ctx.Response.StatusCode())
	assert.Nil(t, sessionCookie(t, ctx))
	assert.Contains(t, string(ctx.Response.Body()), string(domain.CodeUserInvalidPassword))
}

func TestLoginRejectsMalformedBody(t *testing.T) {
	handler, _, _ := newAuthFixture(t)

	ctx := postJSON(handler.Login, `{"email":""}`, "")
	assert.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())
}

func TestLogoutClearsCookieAndSession(t *testing.T) {
	handler, uc, loader := newAuthFixture(t)

	session, err := uc.CreateSession(context.Background(), "user-1", "", "")
	require.NoError(t, err)

	ctx := postJSON(loader.Optional(handler.Logout), "", session.ID)
	assert.Equal(t, http.StatusOK, ctx.Response.StatusCode())

	c := sessionCookie(t, ctx)
	require.NotNil(t, c)
	assert.Empty(t, c.Value())

	_, err = uc.GetSession(context.Background(), session.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestLogoutWithoutSessionSucceeds(t *testing.T) {
	handler, _, loader := newAuthFixture(t)

	ctx := postJSON(loader.Optional(handler.Logout), "", "")
	assert.Equal(t, http.StatusOK, ctx.Response.StatusCode())
}

func TestConfirmEmailEndpoint(t *testing.T) {
	handler, uc, _ := newAuthFixture(t)

	raw, err := uc.IssueEmailVerification(context.Background(), "user-1")
	require.NoError(t, err)

	ctx := postJSON(handler.ConfirmEmail, `{"token":"`+raw+`"}`, "")
	assert.Equal(t, http.StatusOK, ctx.Response.StatusCode())

	ctx = postJSON(handler.ConfirmEmail, `{"token":"garbage"}`, "")
	assert.Equal(t, http.StatusUnauthorized, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), string(domain.CodeTokenInvalidVerification))

	ctx = postJSON(handler.ConfirmEmail, `{}`, "")
	assert.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())
}

func TestResetPasswordEndpoint(t *testing.T) {
	handler, uc, _ := newAuthFixture(t)

	raw, err := uc.IssuePasswordReset(context.Background(), "alice@example.com")
	require.NoError(t, err)

	ctx := postJSON(handler.ResetPassword, `{"token":"`+raw+`","new_password":"n3w-pass"}`, "")
	assert.Equal(t, http.StatusOK, ctx.Response.StatusCode())

	ctx = postJSON(handler.ResetPassword, `{"token":"`+raw+`"}`, "")
	assert.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())

	ctx = postJSON(handler.ResetPassword, `{"token":"garbage","new_password":"n3w"}`, "")
	assert.Equal(t, http.StatusUnauthorized, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), string(domain.CodeTokenInvalidReset))
}

func TestSessionEndpoint(t *testing.T) {
	handler, uc, loader := newAuthFixture(t)

	session, err := uc.CreateSession(context.Background(), "user-1", "", "")
	require.NoError(t, err)

	ctx := postJSON(loader.Required(handler.Session), "", session.ID)
	assert.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), "user-1")

	ctx = postJSON(loader.Required(handler.Session), "", "")
	assert.Equal(t, http.StatusUnauthorized, ctx.Response.StatusCode())
}
