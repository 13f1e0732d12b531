package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/projecthub/api/handler"
	"github.com/fastygo/projecthub/api/transport"
	"github.com/fastygo/projecthub/domain"
	"github.com/fastygo/projecthub/internal/middleware"
	"github.com/fastygo/projecthub/pkg/httpcontext"
)

type Handlers struct {
	Auth      *apiHandler.AuthHandler
	Project   *apiHandler.ProjectHandler
	Task      *apiHandler.TaskHandler
	Dashboard *apiHandler.DashboardHandler
	Story     *apiHandler.StoryHandler
	User      *apiHandler.UserHandler
	Health    *apiHandler.HealthHandler
}

// New registers every route. auth guards private routes; optionalAuth only
// identifies the caller on public ones.
func New(handlers Handlers, auth, optionalAuth middleware.Middleware, logger *zap.Logger) *router.Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := router.New()
	r.RedirectTrailingSlash = false
	r.HandleMethodNotAllowed = false
	r.NotFound = apiHandler.NotFound
	r.PanicHandler = func(ctx *fasthttp.RequestCtx, rcv any) {
		logger.Error("panic while handling request",
			zap.String("request_id", httpcontext.RequestID(ctx)),
			zap.String("path", string(ctx.Path())),
			zap.Any("panic", rcv),
			zap.Stack("stack"))
		ctx.Response.Reset()
		transport.WriteError(ctx, fasthttp.StatusInternalServerError, domain.ErrCodeInternal, "Internal server error")
	}

	r.GET("/health", handlers.Health.Check)

	r.POST("/register", handlers.Auth.Register)
	r.POST("/login", handlers.Auth.Login)
	r.POST("/logout", auth(handlers.Auth.Logout))

	r.GET("/projects", auth(handlers.Project.List))
	r.POST("/projects", auth(handlers.Project.Create))
	r.GET("/projects/{id}", auth(handlers.Project.Get))
	r.PUT("/projects/{id}", auth(handlers.Project.Update))
	r.DELETE("/projects/{id}", auth(handlers.Project.Delete))
	r.POST("/projects/{id}/members", auth(handlers.Project.AddMember))

	r.GET("/tasks", auth(handlers.Task.List))
	r.POST("/tasks", auth(handlers.Task.Create))
	r.GET("/tasks/{id}", auth(handlers.Task.Get))
	r.PUT("/tasks/{id}", auth(handlers.Task.Update))
	r.DELETE("/tasks/{id}", auth(handlers.Task.Delete))
	r.POST("/tasks/{id}/comments", auth(handlers.Task.AddComment))

	r.GET("/dashboard", auth(handlers.Dashboard.Get))

	r.POST("/ai/generate-user-stories", optionalAuth(handlers.Story.Generate))

	r.GET("/users", auth(middleware.RequireRole(domain.RoleAdmin, domain.RoleManager)(handlers.User.List)))
	r.GET("/activity", auth(middleware.RequireRole(domain.RoleAdmin)(handlers.User.Activity)))

	return r
}
