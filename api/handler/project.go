package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/projecthub/api/transport"
	"github.com/fastygo/projecthub/pkg/httpcontext"
	projectUC "github.com/fastygo/projecthub/usecase/project"
)

type ProjectHandler struct {
	baseHandler
	uc *projectUC.UseCase
}

func NewProjectHandler(uc *projectUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List projects visible to the caller
// @Tags projects
// @Router /projects [get]
func (h *ProjectHandler) List(ctx *fasthttp.RequestCtx) {
	caller, ok := h.caller(ctx)
	if !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	projects, err := h.uc.List(stdCtx, caller)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respond(ctx, http.StatusOK, transport.NewProjectList(projects))
}

// @Summary Create project
// @Tags projects
// @Router /projects [post]
func (h *ProjectHandler) Create(ctx *fasthttp.RequestCtx) {
	caller, ok := h.caller(ctx)
	if !ok {
		return
	}
	var req transport.ProjectCreateRequest
	if !h.decode(ctx, &req) {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.Create(stdCtx, caller, projectUC.CreateInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respond(ctx, http.StatusCreated, transport.ProjectCreated{ID: created.ID, Name: created.Name})
}

// @Summary Project detail
// @Tags projects
// @Router /projects/{id} [get]
func (h *ProjectHandler) Get(ctx *fasthttp.RequestCtx) {
	if _, ok := h.caller(ctx); !ok {
		return
	}
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	detail, err := h.uc.Get(stdCtx, id)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respond(ctx, http.StatusOK, transport.NewProjectDetail(detail))
}

// @Summary Update project
// @Tags projects
// @Router /projects/{id} [put]
func (h *ProjectHandler) Update(ctx *fasthttp.RequestCtx) {
	caller, ok := h.caller(ctx)
	if !ok {
		return
	}
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}
	var req transport.ProjectUpdateRequest
	if !h.decode(ctx, &req) {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	detail, err := h.uc.Update(stdCtx, caller, id, projectUC.UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respond(ctx, http.StatusOK, transport.NewProjectDetail(detail))
}

// @Summary Delete project with its tasks
// @Tags projects
// @Router /projects/{id} [delete]
func (h *ProjectHandler) Delete(ctx *fasthttp.RequestCtx) {
	caller, ok := h.caller(ctx)
	if !ok {
		return
	}
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Delete(stdCtx, caller, id); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respond(ctx, http.StatusNoContent, nil)
}

// @Summary Add a team member
// @Tags projects
// @Router /projects/{id}/members [post]
func (h *ProjectHandler) AddMember(ctx *fasthttp.RequestCtx) {
	caller, ok := h.caller(ctx)
	if !ok {
		return
	}
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}
	var req transport.MemberRequest
	if !h.decode(ctx, &req) {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.AddMember(stdCtx, caller, id, req.UserID); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respond(ctx, http.StatusOK, transport.MessageResponse{Message: "Member added"})
}
