package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/projecthub/api/transport"
	"github.com/fastygo/projecthub/domain"
	"github.com/fastygo/projecthub/pkg/httpcontext"
	appLogger "github.com/fastygo/projecthub/pkg/logger"
	"github.com/fastygo/projecthub/usecase/access"
)

// Middleware wraps a handler.
type Middleware func(fasthttp.RequestHandler) fasthttp.RequestHandler

// Authenticator resolves a bearer token to the calling user.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (domain.Caller, error)
}

// JWTAuth rejects requests without a valid token and stores the caller on
// the request for the handlers.
func JWTAuth(auth Authenticator, adapter *httpcontext.Adapter, logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			stdCtx, cancel := adapter.Attach(ctx)
			caller, err := auth.Authenticate(stdCtx, extractToken(ctx))
			cancel()
			if err != nil {
				var dErr *domain.Error
				if errors.As(err, &dErr) && dErr.Code == domain.ErrCodeUnauthorized {
					transport.WriteError(ctx, fasthttp.StatusUnauthorized, dErr.Code, dErr.Message)
					return
				}
				appLogger.WithRequestID(stdCtx, logger).Error("authentication failed", zap.Error(err))
				transport.WriteError(ctx, fasthttp.StatusInternalServerError, domain.ErrCodeInternal, "Internal server error")
				return
			}

			httpcontext.SetCaller(ctx, caller)
			next(ctx)
		}
	}
}

// OptionalJWTAuth identifies the caller when a valid token is sent and lets
// every other request through anonymously.
func OptionalJWTAuth(auth Authenticator, adapter *httpcontext.Adapter, logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			raw := extractToken(ctx)
			if raw == "" {
				next(ctx)
				return
			}
			stdCtx, cancel := adapter.Attach(ctx)
			caller, err := auth.Authenticate(stdCtx, raw)
			cancel()
			switch {
			case err == nil:
				httpcontext.SetCaller(ctx, caller)
			case !domain.IsDomainError(err, domain.ErrCodeUnauthorized):
				appLogger.WithRequestID(stdCtx, logger).Warn("optional authentication failed", zap.Error(err))
			}
			next(ctx)
		}
	}
}

// RequireRole lets the request through only for the listed roles. It must
// run after JWTAuth.
func RequireRole(roles ...domain.Role) Middleware {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			caller, ok := httpcontext.Caller(ctx)
			if !ok {
				transport.WriteError(ctx, fasthttp.StatusUnauthorized, domain.ErrCodeUnauthorized, domain.ErrTokenMissing.Message)
				return
			}
			if err := access.Require(caller, roles...); err != nil {
				transport.WriteError(ctx, fasthttp.StatusForbidden, domain.ErrCodeForbidden, domain.ErrForbidden.Message)
				return
			}
			next(ctx)
		}
	}
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := strings.TrimSpace(string(ctx.Request.Header.Peek(fasthttp.HeaderAuthorization)))
	if header == "" {
		return ""
	}
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}
