package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/projecthub/domain"
	appLogger "github.com/fastygo/projecthub/pkg/logger"
)

// Key represents a context value key exported for reuse.
type Key string

const (
	KeyRemoteAddr Key = "remote_addr"
	KeyUserAgent  Key = "user_agent"
	KeyCaller     Key = "caller"
)

const (
	headerRequestID = "X-Request-ID"
	userValueCaller = "httpcontext.caller"
	userValueReqID  = "httpcontext.request_id"
)

// Adapter converts fasthttp.RequestCtx into a stdlib context with deadlines and metadata.
type Adapter struct {
	timeout time.Duration
}

// NewAdapter constructs a new Adapter using the provided timeout.
func NewAdapter(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{
		timeout: timeout,
	}
}

// Attach creates a context with timeout derived from the adapter and enriches
// it with the request id, the authenticated caller and client metadata.
func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	stdCtx, cancel := context.WithTimeout(context.Background(), a.timeout)

	stdCtx = appLogger.ContextWithRequestID(stdCtx, RequestID(ctx))

	if caller, ok := Caller(ctx); ok {
		stdCtx = context.WithValue(stdCtx, KeyCaller, caller)
	}
	if remoteAddr := ctx.RemoteAddr(); remoteAddr != nil {
		stdCtx = context.WithValue(stdCtx, KeyRemoteAddr, remoteAddr.String())
	}
	if ua := string(ctx.Request.Header.UserAgent()); ua != "" {
		stdCtx = context.WithValue(stdCtx, KeyUserAgent, ua)
	}

	return stdCtx, cancel
}

// RequestID returns the id for this request, assigning one on first use and
// echoing it in the response header.
func RequestID(ctx *fasthttp.RequestCtx) string {
	if ctx == nil {
		return uuid.NewString()
	}
	if id, ok := ctx.UserValue(userValueReqID).(string); ok && id != "" {
		return id
	}
	id := strings.TrimSpace(string(ctx.Request.Header.Peek(headerRequestID)))
	if id == "" {
		id = uuid.NewString()
	}
	ctx.SetUserValue(userValueReqID, id)
	ctx.Response.Header.Set(headerRequestID, id)
	return id
}

// SetCaller stores the authenticated caller on the request.
func SetCaller(ctx *fasthttp.RequestCtx, caller domain.Caller) {
	ctx.SetUserValue(userValueCaller, caller)
}

// Caller returns the caller stored by SetCaller.
func Caller(ctx *fasthttp.RequestCtx) (domain.Caller, bool) {
	caller, ok := ctx.UserValue(userValueCaller).(domain.Caller)
	return caller, ok
}

// CallerFromContext returns the caller attached by Adapter.Attach.
func CallerFromContext(ctx context.Context) (domain.Caller, bool) {
	if ctx == nil {
		return domain.Caller{}, false
	}
	caller, ok := ctx.Value(KeyCaller).(domain.Caller)
	return caller, ok
}
