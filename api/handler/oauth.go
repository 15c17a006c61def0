package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/wikigo/backend/api/transport"
	"github.com/wikigo/backend/domain"
	"github.com/wikigo/backend/internal/middleware"
	"github.com/wikigo/backend/pkg/httpcontext"
	oauthUC "github.com/wikigo/backend/usecase/oauth"
)

type OAuthHandler struct {
	baseHandler
	uc      *oauthUC.UseCase
	cookies middleware.CookiePolicy
}

func NewOAuthHandler(uc *oauthUC.UseCase, cookies middleware.CookiePolicy, adapter *httpcontext.Adapter, logger *zap.Logger, dev bool) *OAuthHandler {
	return &OAuthHandler{
		baseHandler: newBaseHandler(adapter, logger, dev),
		uc:          uc,
		cookies:     cookies,
	}
}

// @Summary Begin the provider authorization flow
// @Tags oauth
// @Router /api/v1/auth/oauth/{provider}/authorize [get]
func (h *OAuthHandler) Authorize(ctx *fasthttp.RequestCtx) {
	provider, ok := providerParam(ctx)
	if !ok {
		h.respondError(ctx, domain.ErrOauthUnsupportedProvider)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	authURL, err := h.uc.AuthorizationURL(stdCtx, provider)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.AuthorizeURLResponse{URL: authURL})
}

// @Summary Complete the provider callback and log in
// @Tags oauth
// @Router /api/v1/auth/oauth/{provider}/callback [post]
func (h *OAuthHandler) Callback(ctx *fasthttp.RequestCtx) {
	provider, ok := providerParam(ctx)
	if !ok {
		h.respondError(ctx, domain.ErrOauthUnsupportedProvider)
		return
	}

	var req transport.OAuthCallbackRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.Code == "" || req.State == "" {
		h.respondBadRequest(ctx, "code and state are required")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	session, err := h.uc.CompleteLogin(stdCtx, provider, req.Code, req.State, req.Handle,
		string(ctx.Request.Header.UserAgent()), ctx.RemoteIP().String())
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	h.cookies.SetSession(ctx, session.ID, h.uc.SessionTTL())
	h.respondSuccess(ctx, http.StatusOK, transport.SessionResponse{
		UserID:    session.UserID,
		CreatedAt: session.CreatedAt,
		ExpiresAt: session.ExpiresAt,
	})
}

// @Summary Link a provider to the current account
// @Tags oauth
// @Router /api/v1/auth/oauth/{provider}/link [post]
func (h *OAuthHandler) Link(ctx *fasthttp.RequestCtx) {
	provider, ok := providerParam(ctx)
	if !ok {
		h.respondError(ctx, domain.ErrOauthUnsupportedProvider)
		return
	}
	session := middleware.SessionFromCtx(ctx)
	if session == nil {
		h.respondError(ctx, unauthorizedErr())
		return
	}

	var req transport.OAuthCallbackRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.Code == "" || req.State == "" {
		h.respondBadRequest(ctx, "code and state are required")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.LinkAccount(stdCtx, provider, req.Code, req.State, session.UserID); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, nil)
}

// @Summary Unlink a provider from the current account
// @Tags oauth
// @Router /api/v1/auth/oauth/{provider}/link [delete]
func (h *OAuthHandler) Unlink(ctx *fasthttp.RequestCtx) {
	provider, ok := providerParam(ctx)
	if !ok {
		h.respondError(ctx, domain.ErrOauthUnsupportedProvider)
		return
	}
	session := middleware.SessionFromCtx(ctx)
	if session == nil {
		h.respondError(ctx, unauthorizedErr())
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.UnlinkAccount(stdCtx, provider, session.UserID); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, nil)
}

func providerParam(ctx *fasthttp.RequestCtx) (domain.OAuthProvider, bool) {
	name, _ := ctx.UserValue("provider").(string)
	provider := domain.OAuthProvider(name)
	return provider, provider.Valid()
}

func unauthorizedErr() error {
	return domain.ErrUserUnauthorized
}
