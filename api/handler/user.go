package handler

import (
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/projecthub/api/transport"
	"github.com/fastygo/projecthub/pkg/httpcontext"
	activityUC "github.com/fastygo/projecthub/usecase/activity"
	userUC "github.com/fastygo/projecthub/usecase/user"
)

type UserHandler struct {
	baseHandler
	users    *userUC.UseCase
	activity *activityUC.UseCase
}

func NewUserHandler(users *userUC.UseCase, activity *activityUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		baseHandler: newBaseHandler(adapter, logger),
		users:       users,
		activity:    activity,
	}
}

// @Summary List users
// @Tags users
// @Router /users [get]
func (h *UserHandler) List(ctx *fasthttp.RequestCtx) {
	caller, ok := h.caller(ctx)
	if !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	users, err := h.users.List(stdCtx, caller)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respond(ctx, http.StatusOK, transport.NewUserViews(users))
}

// @Summary Recent activity
// @Tags users
// @Router /activity [get]
func (h *UserHandler) Activity(ctx *fasthttp.RequestCtx) {
	caller, ok := h.caller(ctx)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(string(ctx.QueryArgs().Peek("limit")))

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	items, err := h.activity.Recent(stdCtx, caller, limit)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respond(ctx, http.StatusOK, items)
}
