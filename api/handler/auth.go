package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/wikigo/backend/api/transport"
	"github.com/wikigo/backend/internal/middleware"
	"github.com/wikigo/backend/pkg/httpcontext"
	authUC "github.com/wikigo/backend/usecase/auth"
)

type AuthHandler struct {
	baseHandler
	uc      *authUC.UseCase
	cookies middleware.CookiePolicy
}

func NewAuthHandler(uc *authUC.UseCase, cookies middleware.CookiePolicy, adapter *httpcontext.Adapter, logger *zap.Logger, dev bool) *AuthHandler {
	return &AuthHandler{
		baseHandler: newBaseHandler(adapter, logger, dev),
		uc:          uc,
		cookies:     cookies,
	}
}

// @Summary Password login
// @Tags auth
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(ctx *fasthttp.RequestCtx) {
	var req transport.LoginRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.Email == "" || req.Password == "" {
		h.respondBadRequest(ctx, "email and password are required")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	session, err := h.uc.Login(stdCtx, req.Email, req.Password,
		string(ctx.Request.Header.UserAgent()), ctx.RemoteIP().String())
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	h.cookies.SetSession(ctx, session.ID, h.uc.SlidingTTL())
	h.respondSuccess(ctx, http.StatusOK, transport.SessionResponse{
		UserID:    session.UserID,
		CreatedAt: session.CreatedAt,
		ExpiresAt: session.ExpiresAt,
	})
}

// @Summary End the current session
// @Tags auth
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	// Logout is idempotent: a missing or stale session still clears the
	// cookie and succeeds.
	if session := middleware.SessionFromCtx(ctx); session != nil {
		if err := h.uc.Logout(stdCtx, session); err != nil {
			h.respondError(ctx, err)
			return
		}
	}

	h.cookies.ClearSession(ctx)
	h.respondSuccess(ctx, http.StatusOK, nil)
}

// @Summary Redeem an email-verification token
// @Tags auth
// @Router /api/v1/auth/email/confirm [post]
func (h *AuthHandler) ConfirmEmail(ctx *fasthttp.RequestCtx) {
	var req transport.ConfirmEmailRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.Token == "" {
		h.respondBadRequest(ctx, "token is required")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.ConfirmEmailVerification(stdCtx, req.Token); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, nil)
}

// @Summary Redeem a password-reset token
// @Tags auth
// @Router /api/v1/auth/password/reset [post]
func (h *AuthHandler) ResetPassword(ctx *fasthttp.RequestCtx) {
	var req transport.ResetPasswordRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.Token == "" || req.NewPassword == "" {
		h.respondBadRequest(ctx, "token and new_password are required")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	err := h.uc.ResetPassword(stdCtx, req.Token, req.NewPassword,
		string(ctx.Request.Header.UserAgent()), ctx.RemoteIP().String())
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, nil)
}

// @Summary Describe the current session
// @Tags auth
// @Router /api/v1/auth/session [get]
func (h *AuthHandler) Session(ctx *fasthttp.RequestCtx) {
	session := middleware.SessionFromCtx(ctx)
	if session == nil {
		h.respondError(ctx, unauthorizedErr())
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.SessionResponse{
		UserID:    session.UserID,
		CreatedAt: session.CreatedAt,
		ExpiresAt: session.ExpiresAt,
	})
}
