package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/projecthub/api/transport"
	"github.com/fastygo/projecthub/pkg/httpcontext"
	storyUC "github.com/fastygo/projecthub/usecase/story"
)

type StoryHandler struct {
	baseHandler
	uc *storyUC.UseCase
}

func NewStoryHandler(uc *storyUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *StoryHandler {
	return &StoryHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Generate user stories from a project description
// @Tags ai
// @Router /ai/generate-user-stories [post]
func (h *StoryHandler) Generate(ctx *fasthttp.RequestCtx) {
	var req transport.StoryRequest
	if !h.decode(ctx, &req) {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	// Anonymous unless a middleware identified the caller.
	caller, _ := httpcontext.CallerFromContext(stdCtx)
	stories, err := h.uc.Generate(stdCtx, caller, req.ProjectDescription, req.ProjectID)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respond(ctx, http.StatusOK, stories)
}
