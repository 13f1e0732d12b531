package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/projecthub/pkg/httpcontext"
	dashboardUC "github.com/fastygo/projecthub/usecase/dashboard"
)

type DashboardHandler struct {
	baseHandler
	uc *dashboardUC.UseCase
}

func NewDashboardHandler(uc *dashboardUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Dashboard summary for the caller
// @Tags dashboard
// @Router /dashboard [get]
func (h *DashboardHandler) Get(ctx *fasthttp.RequestCtx) {
	caller, ok := h.caller(ctx)
	if !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	summary, err := h.uc.Get(stdCtx, caller)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respond(ctx, http.StatusOK, summary)
}
