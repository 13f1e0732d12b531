package middleware

import (
	"slices"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/projecthub/pkg/httpcontext"
)

// Chain applies middlewares so that the first one runs outermost.
func Chain(h fasthttp.RequestHandler, mws ...Middleware) fasthttp.RequestHandler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// CORS answers preflight requests and sets the allow headers for permitted
// origins. A "*" entry permits any origin.
func CORS(allowedOrigins []string) Middleware {
	anyOrigin := slices.Contains(allowedOrigins, "*")
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			origin := string(ctx.Request.Header.Peek("Origin"))
			if origin != "" && (anyOrigin || slices.Contains(allowedOrigins, origin)) {
				headers := &ctx.Response.Header
				headers.Set("Access-Control-Allow-Origin", origin)
				headers.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
				headers.Set("Access-Control-Allow-Headers", "Authorization,Content-Type,X-Request-ID")
				headers.Set("Access-Control-Max-Age", strconv.Itoa(int((12 * time.Hour).Seconds())))
				headers.Add("Vary", "Origin")
			}
			if ctx.IsOptions() && len(ctx.Request.Header.Peek("Access-Control-Request-Method")) > 0 {
				ctx.SetStatusCode(fasthttp.StatusNoContent)
				return
			}
			next(ctx)
		}
	}
}

// AccessLog assigns the request id and logs one line per request.
func AccessLog(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			start := time.Now()
			requestID := httpcontext.RequestID(ctx)

			next(ctx)

			status := ctx.Response.StatusCode()
			fields := []zap.Field{
				zap.String("request_id", requestID),
				zap.String("method", string(ctx.Method())),
				zap.String("path", string(ctx.Path())),
				zap.Int("status", status),
				zap.Duration("duration", time.Since(start)),
			}
			if caller, ok := httpcontext.Caller(ctx); ok {
				fields = append(fields, zap.Int64("user_id", caller.ID))
			}
			switch {
			case status >= fasthttp.StatusInternalServerError:
				logger.Error("request", fields...)
			case status >= fasthttp.StatusBadRequest:
				logger.Warn("request", fields...)
			default:
				logger.Info("request", fields...)
			}
		}
	}
}
