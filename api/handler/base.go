package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/projecthub/api/transport"
	"github.com/fastygo/projecthub/domain"
	"github.com/fastygo/projecthub/pkg/httpcontext"
	appLogger "github.com/fastygo/projecthub/pkg/logger"
)

const internalErrorMessage = "Internal server error"

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if adapter == nil {
		adapter = httpcontext.NewAdapter(0)
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	return h.adapter.Attach(ctx)
}

func (h baseHandler) respond(ctx *fasthttp.RequestCtx, status int, payload any) {
	transport.WriteJSON(ctx, status, payload)
}

func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, stdCtx context.Context, err error) {
	status, code := mapError(err)

	message := internalErrorMessage
	var dErr *domain.Error
	if status != http.StatusInternalServerError || code == domain.ErrCodeUpstreamConfig {
		if errors.As(err, &dErr) {
			message = dErr.Message
		}
	}

	log := appLogger.WithRequestID(stdCtx, h.logger)
	switch {
	case code == domain.ErrCodeInternal:
		log.Error("request failed", zap.String("path", string(ctx.Path())), zap.Error(err))
	case code == domain.ErrCodeUpstream || code == domain.ErrCodeUpstreamConfig:
		log.Warn("upstream failure", zap.Error(err))
	}

	transport.WriteError(ctx, status, code, message)
}

// caller returns the authenticated caller or answers 401.
func (h baseHandler) caller(ctx *fasthttp.RequestCtx) (domain.Caller, bool) {
	caller, ok := httpcontext.Caller(ctx)
	if !ok {
		transport.WriteError(ctx, http.StatusUnauthorized, domain.ErrCodeUnauthorized, domain.ErrTokenMissing.Message)
	}
	return caller, ok
}

// pathID parses a positive integer path parameter. Anything else is treated
// as an unmatched route.
func (h baseHandler) pathID(ctx *fasthttp.RequestCtx, key string) (int64, bool) {
	raw, _ := ctx.UserValue(key).(string)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		NotFound(ctx)
		return 0, false
	}
	return id, true
}

// decode reads the body and answers 400 on failure.
func (h baseHandler) decode(ctx *fasthttp.RequestCtx, target any) bool {
	if err := transport.Decode(ctx, target); err != nil {
		h.rejectBody(ctx, err)
		return false
	}
	return true
}

func (h baseHandler) rejectBody(ctx *fasthttp.RequestCtx, err error) {
	message := domain.ErrInvalidPayload.Message
	var dErr *domain.Error
	if errors.As(err, &dErr) {
		message = dErr.Message
	}
	transport.WriteError(ctx, http.StatusBadRequest, domain.ErrCodeInvalid, message)
}

// NotFound answers unmatched routes.
func NotFound(ctx *fasthttp.RequestCtx) {
	transport.WriteError(ctx, http.StatusNotFound, domain.ErrCodeNotFound, "Resource not found")
}

func mapError(err error) (int, domain.ErrorCode) {
	var dErr *domain.Error
	if !errors.As(err, &dErr) {
		return http.StatusInternalServerError, domain.ErrCodeInternal
	}
	switch dErr.Code {
	case domain.ErrCodeInvalid, domain.ErrCodeConflict:
		return http.StatusBadRequest, dErr.Code
	case domain.ErrCodeUnauthorized:
		return http.StatusUnauthorized, dErr.Code
	case domain.ErrCodeForbidden:
		return http.StatusForbidden, dErr.Code
	case domain.ErrCodeNotFound:
		return http.StatusNotFound, dErr.Code
	case domain.ErrCodeUpstream:
		return http.StatusBadGateway, dErr.Code
	case domain.ErrCodeUpstreamConfig:
		return http.StatusInternalServerError, dErr.Code
	default:
		return http.StatusInternalServerError, domain.ErrCodeInternal
	}
}
