package router

import (
	"net/http"
	"time"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/tasks/api/handler"
	"github.com/fastygo/tasks/api/transport"
	"github.com/fastygo/tasks/internal/middleware"
)

type Handlers struct {
	Task   *apiHandler.TaskHandler
	Health *apiHandler.HealthHandler
}

type Options struct {
	AllowOrigin string
	Logger      *zap.Logger
}

// New wires the routes and wraps them with the recover, access log and CORS
// middlewares. Unrouted requests still get an error envelope.
func New(handlers Handlers, opts Options) fasthttp.RequestHandler {
	r := router.New()
	r.HandleOPTIONS = false
	r.RedirectTrailingSlash = false
	r.NotFound = errorHandler(http.StatusNotFound, "Route not found")
	r.MethodNotAllowed = errorHandler(http.StatusMethodNotAllowed, "Method not allowed")

	if handlers.Health != nil {
		r.GET("/health", handlers.Health.Check)
	}

	r.GET("/tasks", handlers.Task.ListTasks)
	r.POST("/tasks", handlers.Task.CreateTask)
	r.GET("/tasks/{id}", handlers.Task.GetTask)
	r.PUT("/tasks/{id}", handlers.Task.UpdateTask)
	r.DELETE("/tasks/{id}", handlers.Task.DeleteTask)

	// An empty id reaches the handlers, which reject it as a validation error.
	r.GET("/tasks/", handlers.Task.GetTask)
	r.PUT("/tasks/", handlers.Task.UpdateTask)
	r.DELETE("/tasks/", handlers.Task.DeleteTask)

	return middleware.Chain(r.Handler,
		middleware.Recover(opts.Logger),
		middleware.AccessLog(opts.Logger),
		middleware.CORS(opts.AllowOrigin),
	)
}

func errorHandler(status int, message string) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		transport.Write(ctx, status, transport.NewError(message, nil, time.Now()))
	}
}
