package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/projecthub/internal/infrastructure/monitor"
	"github.com/fastygo/projecthub/pkg/httpcontext"
)

// StatusSource reports the latest dependency status.
type StatusSource interface {
	GetStatus() monitor.Status
}

type HealthHandler struct {
	baseHandler
	monitor StatusSource
}

func NewHealthHandler(mon StatusSource, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		monitor:     mon,
	}
}

type bufferHealth struct {
	Online bool `json:"online"`
	Size   int  `json:"size"`
}

type servicesHealth struct {
	Store  bool         `json:"store"`
	Redis  bool         `json:"redis"`
	Buffer bufferHealth `json:"buffer"`
}

type healthResponse struct {
	Status    string         `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	LastCheck time.Time      `json:"last_check"`
	Services  servicesHealth `json:"services"`
}

// @Summary Health check
// @Tags health
// @Router /health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	status := h.monitor.GetStatus()
	payload := healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		LastCheck: status.LastCheck,
		Services: servicesHealth{
			Store:  status.Store,
			Redis:  status.Redis,
			Buffer: bufferHealth{Online: status.Buffer, Size: status.BufferSize},
		},
	}

	if status.Healthy() {
		h.respond(ctx, http.StatusOK, payload)
		return
	}
	payload.Status = "degraded"
	h.respond(ctx, http.StatusServiceUnavailable, payload)
}
