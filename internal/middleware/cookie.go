package middleware

import (
	"time"

	"github.com/valyala/fasthttp"
)

// SessionCookieName is the cookie carrying the opaque session id.
const SessionCookieName = "session_id"

// CookiePolicy fixes how session cookies are emitted. Development uses
// SameSite=None so a frontend on another origin can ride along; production
// uses Lax.
type CookiePolicy struct {
	Domain string
	Dev    bool
}

func (p CookiePolicy) sessionCookie(sessionID string, maxAge time.Duration) *fasthttp.Cookie {
	c := fasthttp.AcquireCookie()
	c.SetKey(SessionCookieName)
	c.SetValue(sessionID)
	c.SetPath("/")
	c.SetHTTPOnly(true)
	c.SetSecure(true)
	if p.Domain != "" {
		c.SetDomain(p.Domain)
	}
	if p.Dev {
		c.SetSameSite(fasthttp.CookieSameSiteNoneMode)
	} else {
		c.SetSameSite(fasthttp.CookieSameSiteLaxMode)
	}
	c.SetMaxAge(int(maxAge / time.Second))
	return c
}

// SetSession writes the session cookie onto the response.
func (p CookiePolicy) SetSession(ctx *fasthttp.RequestCtx, sessionID string, maxAge time.Duration) {
	c := p.sessionCookie(sessionID, maxAge)
	ctx.Response.Header.SetCookie(c)
	fasthttp.ReleaseCookie(c)
}

// ClearSession expires the session cookie.
func (p CookiePolicy) ClearSession(ctx *fasthttp.RequestCtx) {
	c := p.sessionCookie("", 0)
	c.SetExpire(fasthttp.CookieExpireDelete)
	ctx.Response.Header.SetCookie(c)
	fasthttp.ReleaseCookie(c)
}

// SessionID reads the session cookie off the request.
func SessionID(ctx *fasthttp.RequestCtx) string {
	return string(ctx.Request.Header.Cookie(SessionCookieName))
}
