package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/wikigo/backend/api/transport"
	"github.com/wikigo/backend/domain"
	authUC "github.com/wikigo/backend/usecase/auth"
)

// sessionKey is the fasthttp user-value slot holding the resolved session.
const sessionKey = "auth_session"

// SessionFromCtx returns the session the middleware resolved, or nil.
func SessionFromCtx(ctx *fasthttp.RequestCtx) *domain.Session {
	if s, ok := ctx.UserValue(sessionKey).(*domain.Session); ok {
		return s
	}
	return nil
}

// SessionLoader resolves the session cookie on every request and slides the
// expiry forward when the remaining lifetime drops below the threshold.
type SessionLoader struct {
	sessions  *authUC.UseCase
	cookies   CookiePolicy
	threshold float64
	logger    *zap.Logger
}

func NewSessionLoader(sessions *authUC.UseCase, cookies CookiePolicy, threshold float64, logger *zap.Logger) *SessionLoader {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionLoader{
		sessions:  sessions,
		cookies:   cookies,
		threshold: threshold,
		logger:    logger,
	}
}

// Optional resolves the session when a cookie is present and always calls
// the next handler. An invalid or expired cookie is cleared silently.
func (m *SessionLoader) Optional(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		m.resolve(ctx)
		next(ctx)
	}
}

// Required rejects the request with 401 when no valid session exists.
func (m *SessionLoader) Required(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if m.resolve(ctx) == nil {
			rejectUnauthorized(ctx)
			return
		}
		next(ctx)
	}
}

func (m *SessionLoader) resolve(ctx *fasthttp.RequestCtx) *domain.Session {
	sessionID := SessionID(ctx)
	if sessionID == "" {
		return nil
	}

	stdCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session, err := m.sessions.GetSession(stdCtx, sessionID)
	if err != nil {
		m.cookies.ClearSession(ctx)
		return nil
	}

	if m.sessions.RemainingFraction(session) < m.threshold {
		refreshed, err := m.sessions.RefreshSession(stdCtx, sessionID)
		if err == nil {
			session = refreshed
			m.cookies.SetSession(ctx, session.ID, m.sessions.SlidingTTL())
		} else {
			m.logger.Warn("session refresh failed", zap.Error(err))
		}
	}

	ctx.SetUserValue(sessionKey, session)
	return session
}

func rejectUnauthorized(ctx *fasthttp.RequestCtx) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(http.StatusUnauthorized)
	env := transport.NewError(
		string(domain.CodeUserUnauthorized),
		transport.ErrorBody{Message: "unauthorized"},
		nil,
	)
	body, _ := json.Marshal(env)
	ctx.SetBody(body)
}
