package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/wikigo/backend/api/handler"
	"github.com/wikigo/backend/internal/middleware"
)

type Handlers struct {
	Auth   *apiHandler.AuthHandler
	OAuth  *apiHandler.OAuthHandler
	Health *apiHandler.HealthHandler
}

type Middleware struct {
	Sessions *middleware.SessionLoader
	Limiter  *middleware.RateLimiter
}

// New wires the route table. Credential-accepting routes sit behind the
// rate limiter; session-reading routes behind the session loader.
func New(handlers Handlers, mw Middleware) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	limited := func(route string, h fasthttp.RequestHandler) fasthttp.RequestHandler {
		if mw.Limiter == nil {
			return h
		}
		return mw.Limiter.Limit(route, h)
	}

	r.POST("/api/v1/auth/login", limited("auth_login", handlers.Auth.Login))
	r.POST("/api/v1/auth/logout", mw.Sessions.Optional(handlers.Auth.Logout))
	r.GET("/api/v1/auth/session", mw.Sessions.Required(handlers.Auth.Session))
	r.POST("/api/v1/auth/email/confirm", limited("email_confirm", handlers.Auth.ConfirmEmail))
	r.POST("/api/v1/auth/password/reset", limited("password_reset", handlers.Auth.ResetPassword))

	r.GET("/api/v1/auth/oauth/{provider}/authorize",
		limited("oauth_authorize", handlers.OAuth.Authorize))
	r.POST("/api/v1/auth/oauth/{provider}/callback",
		limited("oauth_callback", handlers.OAuth.Callback))
	r.POST("/api/v1/auth/oauth/{provider}/link",
		mw.Sessions.Required(limited("oauth_link", handlers.OAuth.Link)))
	r.DELETE("/api/v1/auth/oauth/{provider}/link",
		mw.Sessions.Required(handlers.OAuth.Unlink))

	return r
}
