package handler

import (
	"errors"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/projecthub/api/transport"
	"github.com/fastygo/projecthub/domain"
	"github.com/fastygo/projecthub/pkg/httpcontext"
	authUC "github.com/fastygo/projecthub/usecase/auth"
)

type AuthHandler struct {
	baseHandler
	uc *authUC.UseCase
}

func NewAuthHandler(uc *authUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Register a user
// @Tags auth
// @Router /register [post]
func (h *AuthHandler) Register(ctx *fasthttp.RequestCtx) {
	var req transport.RegisterRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.Register(stdCtx, authUC.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respond(ctx, http.StatusCreated, transport.RegisterResponse{
		Message: "User created successfully",
		ID:      user.ID,
	})
}

// @Summary Log in
// @Tags auth
// @Router /login [post]
func (h *AuthHandler) Login(ctx *fasthttp.RequestCtx) {
	var req transport.LoginRequest
	// A missing body falls through to the credential check.
	if err := transport.Decode(ctx, &req); err != nil && !errors.Is(err, domain.ErrNoData) {
		h.rejectBody(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.uc.Login(stdCtx, req.Username, req.Password)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respond(ctx, http.StatusOK, transport.LoginResponse{
		Token: result.Token,
		User:  transport.NewUserView(*result.User),
	})
}

// @Summary Revoke the current session
// @Tags auth
// @Router /logout [post]
func (h *AuthHandler) Logout(ctx *fasthttp.RequestCtx) {
	caller, ok := h.caller(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Logout(stdCtx, caller); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respond(ctx, http.StatusNoContent, nil)
}
