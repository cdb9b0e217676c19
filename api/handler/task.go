package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/tasks/api/transport"
	"github.com/fastygo/tasks/domain"
	"github.com/fastygo/tasks/pkg/httpcontext"
	taskUC "github.com/fastygo/tasks/usecase/task"
)

const deletedMessage = "Task deleted successfully"

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

// @Summary List tasks
// @Tags tasks
// @Router /tasks [get]
func (h *TaskHandler) ListTasks(ctx *fasthttp.RequestCtx) {
	args := ctx.QueryArgs()
	userID := string(args.Peek("userId"))
	if userID == "" {
		userID = domain.DefaultUserID
	}
	filter := domain.TaskFilter{
		Status:   domain.Status(args.Peek("status")),
		Priority: domain.Priority(args.Peek("priority")),
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	tasks, err := h.uc.ListTasks(stdCtx, userID, filter)
	if err != nil {
		h.respondError(stdCtx, ctx, err, "Failed to fetch tasks")
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.TaskList{
		Tasks: transport.NewTasks(tasks),
		Count: len(tasks),
		Filters: transport.Filters{
			UserID:   userID,
			Status:   string(filter.Status),
			Priority: string(filter.Priority),
		},
	})
}

// @Summary Get task
// @Tags tasks
// @Router /tasks/{id} [get]
func (h *TaskHandler) GetTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	id := pathID(ctx)
	if id == "" {
		h.respondError(stdCtx, ctx, domain.ErrIDRequired, "Failed to fetch task")
		return
	}

	task, err := h.uc.GetTask(stdCtx, id)
	if err != nil {
		h.respondError(stdCtx, ctx, err, "Failed to fetch task")
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.NewTask(task))
}

// @Summary Create task
// @Tags tasks
// @Router /tasks [post]
func (h *TaskHandler) CreateTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	raw, err := domain.ParseRawTask(ctx.PostBody())
	if err != nil {
		h.respondError(stdCtx, ctx, err, "Failed to create task")
		return
	}
	input, err := domain.ValidateCreate(raw)
	if err != nil {
		h.respondError(stdCtx, ctx, err, "Failed to create task")
		return
	}

	created, err := h.uc.CreateTask(stdCtx, input)
	if err != nil {
		h.respondError(stdCtx, ctx, err, "Failed to create task")
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, transport.NewTask(created))
}

// @Summary Update task
// @Tags tasks
// @Router /tasks/{id} [put]
func (h *TaskHandler) UpdateTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	raw, err := domain.ParseRawTask(ctx.PostBody())
	if err != nil {
		h.respondError(stdCtx, ctx, err, "Failed to update task")
		return
	}
	id := pathID(ctx)
	if id == "" {
		h.respondError(stdCtx, ctx, domain.ErrIDRequired, "Failed to update task")
		return
	}
	changes, err := domain.ValidateUpdate(raw)
	if err != nil {
		h.respondError(stdCtx, ctx, err, "Failed to update task")
		return
	}

	updated, err := h.uc.UpdateTask(stdCtx, id, changes)
	if err != nil {
		h.respondError(stdCtx, ctx, err, "Failed to update task")
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.NewTask(updated))
}

// @Summary Delete task
// @Tags tasks
// @Router /tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	id := pathID(ctx)
	if id == "" {
		h.respondError(stdCtx, ctx, domain.ErrIDRequired, "Failed to delete task")
		return
	}

	deleted, err := h.uc.DeleteTask(stdCtx, id)
	if err != nil {
		h.respondError(stdCtx, ctx, err, "Failed to delete task")
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.DeletedTask{
		Message:     deletedMessage,
		DeletedTask: transport.NewTask(deleted),
	})
}
