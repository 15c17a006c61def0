package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/wikigo/backend/api/transport"
	"github.com/wikigo/backend/domain"
	"github.com/wikigo/backend/pkg/httpcontext"
)

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
	dev     bool
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger, dev bool) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, logger: logger, dev: dev}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload transport.Envelope) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}

func (h baseHandler) respondSuccess(ctx *fasthttp.RequestCtx, status int, data interface{}) {
	h.respondJSON(ctx, status, transport.NewSuccess(data, nil))
}

// respondError renders an error through the taxonomy table. Client-class
// failures log at debug, server-class at error with the internal detail;
// the detail reaches the response body only in development mode.
func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, err error) {
	status, code, message, detail := classify(err)

	fields := []zap.Field{
		zap.Int("status", status),
		zap.String("code", string(code)),
		zap.String("path", string(ctx.Path())),
	}
	if detail != "" {
		fields = append(fields, zap.String("detail", detail))
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields...)
	} else {
		h.logger.Debug("request rejected", fields...)
	}

	body := transport.ErrorBody{Message: message}
	if h.dev {
		body.Details = detail
	}
	h.respondJSON(ctx, status, transport.NewError(string(code), body, nil))
}

func (h baseHandler) respondBadRequest(ctx *fasthttp.RequestCtx, detail string) {
	h.respondError(ctx, domain.NewBadRequestError(detail))
}
