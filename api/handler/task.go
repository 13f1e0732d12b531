package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/projecthub/api/transport"
	"github.com/fastygo/projecthub/pkg/httpcontext"
	taskUC "github.com/fastygo/projecthub/usecase/task"
)

type TaskHandler struct {
	baseHandler
	uc *taskUC.UseCase
}

func NewTaskHandler(uc *taskUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List tasks visible to the caller
// @Tags tasks
// @Router /tasks [get]
func (h *TaskHandler) List(ctx *fasthttp.RequestCtx) {
	caller, ok := h.caller(ctx)
	if !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	items, err := h.uc.List(stdCtx, caller)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respond(ctx, http.StatusOK, transport.NewTaskList(items))
}

// @Summary Create task
// @Tags tasks
// @Router /tasks [post]
func (h *TaskHandler) Create(ctx *fasthttp.RequestCtx) {
	caller, ok := h.caller(ctx)
	if !ok {
		return
	}
	var req transport.TaskCreateRequest
	if !h.decode(ctx, &req) {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	deadline, err := transport.ParseDeadline(req.Deadline)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	created, err := h.uc.Create(stdCtx, caller, taskUC.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		ProjectID:   req.ProjectID,
		AssignedTo:  req.AssignedTo,
		Deadline:    deadline,
	})
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respond(ctx, http.StatusCreated, transport.TaskCreated{ID: created.ID, Title: created.Title})
}

// @Summary Task detail with comments
// @Tags tasks
// @Router /tasks/{id} [get]
func (h *TaskHandler) Get(ctx *fasthttp.RequestCtx) {
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
	h.respond(ctx, http.StatusOK, transport.NewTaskDetail(detail))
}

// @Summary Update task
// @Tags tasks
// @Router /tasks/{id} [put]
func (h *TaskHandler) Update(ctx *fasthttp.RequestCtx) {
	caller, ok := h.caller(ctx)
	if !ok {
		return
	}
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}
	var req transport.TaskUpdateRequest
	if !h.decode(ctx, &req) {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	deadline, err := transport.ParseDeadline(req.Deadline)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	detail, err := h.uc.Update(stdCtx, caller, id, taskUC.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		AssignedTo:  taskUC.Assignee{Set: req.AssignedTo.Set, Value: req.AssignedTo.Value},
		Deadline:    deadline,
	})
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respond(ctx, http.StatusOK, transport.NewTaskDetail(detail))
}

// @Summary Delete task
// @Tags tasks
// @Router /tasks/{id} [delete]
func (h *TaskHandler) Delete(ctx *fasthttp.RequestCtx) {
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

// @Summary Comment on a task
// @Tags tasks
// @Router /tasks/{id}/comments [post]
func (h *TaskHandler) AddComment(ctx *fasthttp.RequestCtx) {
	caller, ok := h.caller(ctx)
	if !ok {
		return
	}
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}
	var req transport.CommentRequest
	if !h.decode(ctx, &req) {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	comment, err := h.uc.AddComment(stdCtx, caller, id, req.Content)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respond(ctx, http.StatusCreated, transport.CommentCreated{ID: comment.ID})
}
