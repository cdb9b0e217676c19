package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/tasks/domain"
	boltInfra "github.com/fastygo/tasks/internal/infrastructure/bolt"
	"github.com/fastygo/tasks/repository"
	boltRepo "github.com/fastygo/tasks/repository/bolt"
	taskUC "github.com/fastygo/tasks/usecase/task"
)

type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Timestamp string          `json:"timestamp"`
	Error     *struct {
		Message   string                  `json:"message"`
		Details   []domain.FieldViolation `json:"details"`
		Timestamp string                  `json:"timestamp"`
	} `json:"error"`
}

type taskBody struct {
	ID          string  `json:"id"`
	UserID      string  `json:"userId"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	Priority    string  `json:"priority"`
	DueDate     *string `json:"dueDate"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

// countingRepo counts write calls reaching the store.
type countingRepo struct {
	repository.TaskRepository
	mu    sync.Mutex
	calls int
}

func (c *countingRepo) hit() {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
}

func (c *countingRepo) Create(ctx context.Context, t *domain.Task) (*domain.Task, error) {
	c.hit()
	return c.TaskRepository.Create(ctx, t)
}

func (c *countingRepo) Update(ctx context.Context, id string, ch domain.TaskChanges, at time.Time) (*domain.Task, error) {
	c.hit()
	return c.TaskRepository.Update(ctx, id, ch, at)
}

func newTestHandler(t *testing.T, opts ...taskUC.Option) (*TaskHandler, *countingRepo) {
	t.Helper()
	db, err := boltInfra.Open(filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	inner, err := boltRepo.NewTaskRepository(db, "tasks")
	require.NoError(t, err)
	repo := &countingRepo{TaskRepository: inner}
	return NewTaskHandler(taskUC.New(repo, nil, opts...), nil, nil), repo
}

func call(t *testing.T, handle fasthttp.RequestHandler, method, uri, id, body string) (int, envelope) {
	t.Helper()
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	if body != "" {
		ctx.Request.SetBodyString(body)
	}
	if id != "" {
		ctx.SetUserValue("id", id)
	}

	handle(&ctx)

	var env envelope
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &env), string(ctx.Response.Body()))
	assert.Equal(t, "application/json", string(ctx.Response.Header.ContentType()))
	return ctx.Response.StatusCode(), env
}

func decodeTask(t *testing.T, env envelope) taskBody {
	t.Helper()
	var out taskBody
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func create(t *testing.T, h *TaskHandler, body string) taskBody {
	t.Helper()
	status, env := call(t, h.CreateTask, http.MethodPost, "/tasks", "", body)
	require.Equal(t, http.StatusCreated, status, env.Error)
	return decodeTask(t, env)
}

func TestCreateTask_Defaults(t *testing.T) {
	h, _ := newTestHandler(t)

	status, env := call(t, h.CreateTask, http.MethodPost, "/tasks", "", `{"title":"Buy milk"}`)
	require.Equal(t, http.StatusCreated, status)
	assert.True(t, env.Success)
	assert.NotEmpty(t, env.Timestamp)

	task := decodeTask(t, env)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "pending", task.Status)
	assert.Equal(t, "medium", task.Priority)
	assert.Equal(t, domain.DefaultUserID, task.UserID)
	assert.Equal(t, task.CreatedAt, task.UpdatedAt)
	assert.Nil(t, task.DueDate)
}

func TestCreateTask_TitleTooLong(t *testing.T) {
	h, repo := newTestHandler(t)

	status, env := call(t, h.CreateTask, http.MethodPost, "/tasks", "", `{"title":"`+strings.Repeat("x", 256)+`"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "Validation failed", env.Error.Message)
	require.Len(t, env.Error.Details, 1)
	assert.Equal(t, "title", env.Error.Details[0].Field)
	assert.Zero(t, repo.calls)
}

func TestCreateTask_MissingTitleNeverReachesStore(t *testing.T) {
	h, repo := newTestHandler(t)

	for _, body := range []string{`{}`, `{"title":"   "}`, `{"description":"no title"}`} {
		status, env := call(t, h.CreateTask, http.MethodPost, "/tasks", "", body)
		assert.Equal(t, http.StatusBadRequest, status, body)
		assert.Equal(t, "title", env.Error.Details[0].Field, body)
	}
	assert.Zero(t, repo.calls)
}

func TestCreateTask_InvalidPayload(t *testing.T) {
	h, repo := newTestHandler(t)

	status, env := call(t, h.CreateTask, http.MethodPost, "/tasks", "", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, status)
	require.Len(t, env.Error.Details, 1)
	assert.Equal(t, "invalid payload", env.Error.Details[0].Message)
	assert.Zero(t, repo.calls)
}

func TestCreateTask_IDCollision(t *testing.T) {
	h, _ := newTestHandler(t, taskUC.WithIDGenerator(func() string { return "fixed" }))

	create(t, h, `{"title":"first"}`)
	status, env := call(t, h.CreateTask, http.MethodPost, "/tasks", "", `{"title":"second"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Task with this ID already exists", env.Error.Message)
}

func TestGetTask(t *testing.T) {
	h, _ := newTestHandler(t)
	created := create(t, h, `{"title":"read me","dueDate":"2025-03-01"}`)

	status, env := call(t, h.GetTask, http.MethodGet, "/tasks/"+created.ID, created.ID, "")
	require.Equal(t, http.StatusOK, status)
	got := decodeTask(t, env)
	assert.Equal(t, created, got)
	require.NotNil(t, got.DueDate)
	assert.Equal(t, "2025-03-01T00:00:00.000Z", *got.DueDate)

	for i := 0; i < 2; i++ {
		status, env = call(t, h.GetTask, http.MethodGet, "/tasks/missing", "missing", "")
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "Task not found", env.Error.Message)
	}

	status, env = call(t, h.GetTask, http.MethodGet, "/tasks/", " ", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "id", env.Error.Details[0].Field)
}

func TestUpdateTask(t *testing.T) {
	h, _ := newTestHandler(t)
	created := create(t, h, `{"title":"draft","dueDate":"2025-03-01"}`)

	status, env := call(t, h.UpdateTask, http.MethodPut, "/tasks/"+created.ID, created.ID,
		`{"status":"completed","dueDate":null,"color":"red"}`)
	require.Equal(t, http.StatusOK, status, env.Error)

	updated := decodeTask(t, env)
	assert.Equal(t, "completed", updated.Status)
	assert.Equal(t, "draft", updated.Title)
	assert.Nil(t, updated.DueDate)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.GreaterOrEqual(t, updated.UpdatedAt, created.UpdatedAt)
}

func TestUpdateTask_Missing(t *testing.T) {
	h, _ := newTestHandler(t)

	status, env := call(t, h.UpdateTask, http.MethodPut, "/tasks/nope", "nope", `{"status":"completed"}`)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Task not found", env.Error.Message)
}

func TestUpdateTask_NoChanges(t *testing.T) {
	h, repo := newTestHandler(t)
	created := create(t, h, `{"title":"x"}`)
	calls := repo.calls

	for _, id := range []string{created.ID, "missing"} {
		status, env := call(t, h.UpdateTask, http.MethodPut, "/tasks/"+id, id, `{"unknown":1}`)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "No valid fields provided for update", env.Error.Message)
	}
	assert.Equal(t, calls, repo.calls)
}

func TestUpdateTask_Invalid(t *testing.T) {
	h, _ := newTestHandler(t)

	status, env := call(t, h.UpdateTask, http.MethodPut, "/tasks/x", "x", `{"priority":"asap","title":""}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Validation failed", env.Error.Message)
	assert.Len(t, env.Error.Details, 2)
}

func TestDeleteTask(t *testing.T) {
	h, _ := newTestHandler(t)
	created := create(t, h, `{"title":"bye"}`)

	status, env := call(t, h.DeleteTask, http.MethodDelete, "/tasks/"+created.ID, created.ID, "")
	require.Equal(t, http.StatusOK, status)

	var out struct {
		Message     string   `json:"message"`
		DeletedTask taskBody `json:"deletedTask"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, "Task deleted successfully", out.Message)
	assert.Equal(t, created, out.DeletedTask)

	status, _ = call(t, h.GetTask, http.MethodGet, "/tasks/"+created.ID, created.ID, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = call(t, h.DeleteTask, http.MethodDelete, "/tasks/"+created.ID, created.ID, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestListTasks_Filters(t *testing.T) {
	h, _ := newTestHandler(t)
	create(t, h, `{"title":"a","status":"completed","priority":"high"}`)
	create(t, h, `{"title":"b","status":"completed","priority":"low"}`)
	create(t, h, `{"title":"c","status":"pending","priority":"high"}`)
	create(t, h, `{"title":"d","status":"completed","priority":"high","userId":"other"}`)

	status, env := call(t, h.ListTasks, http.MethodGet, "/tasks?status=completed&priority=high", "", "")
	require.Equal(t, http.StatusOK, status)

	var out struct {
		Tasks   []taskBody        `json:"tasks"`
		Count   int               `json:"count"`
		Filters map[string]string `json:"filters"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	require.Len(t, out.Tasks, 1)
	assert.Equal(t, "a", out.Tasks[0].Title)
	assert.Equal(t, 1, out.Count)
	assert.Equal(t, map[string]string{
		"userId":   domain.DefaultUserID,
		"status":   "completed",
		"priority": "high",
	}, out.Filters)

	status, env = call(t, h.ListTasks, http.MethodGet, "/tasks?userId=nobody", "", "")
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.NotNil(t, out.Tasks)
	assert.Zero(t, out.Count)
}

func TestListTasks_NewestFirst(t *testing.T) {
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	h, _ := newTestHandler(t, taskUC.WithClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}))
	for _, title := range []string{"one", "two", "three"} {
		create(t, h, `{"title":"`+title+`"}`)
	}

	_, env := call(t, h.ListTasks, http.MethodGet, "/tasks", "", "")
	var out struct {
		Tasks []taskBody `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	require.Len(t, out.Tasks, 3)
	assert.Equal(t, []string{"three", "two", "one"},
		[]string{out.Tasks[0].Title, out.Tasks[1].Title, out.Tasks[2].Title})
}

func TestCreateTask_ConcurrentSameID(t *testing.T) {
	h, _ := newTestHandler(t, taskUC.WithIDGenerator(func() string { return "shared" }))

	const workers = 6
	statuses := make(chan int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var ctx fasthttp.RequestCtx
			ctx.Request.Header.SetMethod(http.MethodPost)
			ctx.Request.SetBodyString(`{"title":"race"}`)
			h.CreateTask(&ctx)
			statuses <- ctx.Response.StatusCode()
		}()
	}
	wg.Wait()
	close(statuses)

	counts := map[int]int{}
	for s := range statuses {
		counts[s]++
	}
	assert.Equal(t, map[int]int{http.StatusCreated: 1, http.StatusBadRequest: workers - 1}, counts)
}

type brokenRepo struct {
	repository.TaskRepository
}

func (brokenRepo) ListByUser(context.Context, string, domain.TaskFilter) ([]domain.Task, error) {
	return nil, errors.New("dial tcp 10.0.0.1:8000: connection refused")
}

func TestListTasks_InfrastructureErrorIsGeneric(t *testing.T) {
	h := NewTaskHandler(taskUC.New(brokenRepo{}, nil), nil, nil)

	status, env := call(t, h.ListTasks, http.MethodGet, "/tasks", "", "")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Failed to fetch tasks", env.Error.Message)
	assert.Nil(t, env.Error.Details)
	assert.NotContains(t, env.Error.Message, "10.0.0.1")
}
