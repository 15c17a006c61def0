package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/wikigo/backend/api/transport"
	"github.com/wikigo/backend/domain"
)

func TestClassifyKnownCodes(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{domain.ErrUserNotFound, http.StatusNotFound},
		{domain.ErrUserInvalidPassword, http.StatusUnauthorized},
		{domain.ErrUserBanned, http.StatusForbidden},
		{domain.ErrSessionNotFound, http.StatusUnauthorized},
		{domain.ErrOauthInvalidState, http.StatusBadRequest},
		{domain.ErrOauthUnsupportedProvider, http.StatusNotFound},
		{domain.ErrOauthAccountLinked, http.StatusConflict},
		{domain.ErrOauthCannotUnlinkLast, http.StatusConflict},
		{domain.ErrOauthHandleRequired, http.StatusUnprocessableEntity},
		{domain.ErrOauthTokenExchangeFailed, http.StatusBadGateway},
		{domain.ErrRateLimitExceeded, http.StatusTooManyRequests},
		{domain.NewDatabaseError(errors.New("down")), http.StatusInternalServerError},
		{domain.NewBadRequestError("nope"), http.StatusBadRequest},
	}

	for _, tc := range cases {
		status, code, _, _ := classify(tc.err)
		assert.Equal(t, tc.status, status, "code %s", code)
		assert.Equal(t, domain.CodeOf(tc.err), code)
	}
}

func TestClassifyCoversWholeTaxonomy(t *testing.T) {
	// Every code the responder can see must have a status; the fallback
	// exists for bugs, not for known codes.
	for code, status := range statusByCode {
		assert.NotZero(t, status, "code %s", code)
	}
	_, ok := statusByCode[domain.CodeUnknown]
	assert.False(t, ok, "unknown code must fall through, not be mapped")
}

func TestClassifyUnknownError(t *testing.T) {
	status, code, message, _ := classify(errors.New("spooky internal thing"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, domain.CodeUnknown, code)
	assert.Equal(t, "internal error", message)
}

func respondFixture(dev bool) baseHandler {
	return newBaseHandler(nil, nil, dev)
}

func decodeEnvelope(t *testing.T, ctx *fasthttp.RequestCtx) transport.Envelope {
	t.Helper()
	var env transport.Envelope
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &env))
	return env
}

func TestRespondErrorHidesDetailInProd(t *testing.T) {
	h := respondFixture(false)
	ctx := &fasthttp.RequestCtx{}

	h.respondError(ctx, domain.ErrOauthUserInfoParseFailed.WithDetail(`{"raw":"provider body"}`))

	assert.Equal(t, http.StatusBadGateway, ctx.Response.StatusCode())
	env := decodeEnvelope(t, ctx)
	assert.Equal(t, "error", env.Status)
	assert.Equal(t, string(domain.CodeOauthUserInfoParseFailed), env.Code)
	assert.NotContains(t, string(ctx.Response.Body()), "provider body")
}

func TestRespondErrorShowsDetailInDev(t *testing.T) {
	h := respondFixture(true)
	ctx := &fasthttp.RequestCtx{}

	h.respondError(ctx, domain.ErrOauthUserInfoParseFailed.WithDetail("raw provider body"))

	assert.Contains(t, string(ctx.Response.Body()), "raw provider body")
}

func TestRespondErrorUnknownIsOpaque(t *testing.T) {
	h := respondFixture(false)
	ctx := &fasthttp.RequestCtx{}

	h.respondError(ctx, errors.New("pgx: connection refused to 10.1.2.3"))

	assert.Equal(t, http.StatusInternalServerError, ctx.Response.StatusCode())
	env := decodeEnvelope(t, ctx)
	assert.Equal(t, string(domain.CodeUnknown), env.Code)
	assert.NotContains(t, string(ctx.Response.Body()), "10.1.2.3")
}
