// Package taskclient is a typed client for the task HTTP API.
package taskclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

const basePath = "/tasks"

// Doer is the part of fasthttp.Client the task client uses.
type Doer interface {
	DoDeadline(req *fasthttp.Request, resp *fasthttp.Response, deadline time.Time) error
}

// Client calls the task API at a base URL.
type Client struct {
	baseURL string
	doer    Doer
	timeout time.Duration
}

type Option func(*Client)

// WithDoer replaces the default fasthttp.Client.
func WithDoer(d Doer) Option {
	return func(c *Client) {
		if d != nil {
			c.doer = d
		}
	}
}

// WithTimeout bounds calls whose context carries no deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		doer:    &fasthttp.Client{Name: "taskclient"},
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Task is a task as returned by the API.
type Task struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Filters narrows ListTasks. Empty fields are not sent.
type Filters struct {
	UserID   string `json:"userId"`
	Status   string `json:"status,omitempty"`
	Priority string `json:"priority,omitempty"`
}

type TaskList struct {
	Tasks   []Task  `json:"tasks"`
	Count   int     `json:"count"`
	Filters Filters `json:"filters"`
}

// NewTask is the body of CreateTask.
type NewTask struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	Priority    string `json:"priority,omitempty"`
	DueDate     string `json:"dueDate,omitempty"`
	UserID      string `json:"userId,omitempty"`
}

// TaskUpdate is the body of UpdateTask. Nil fields are left unchanged;
// ClearDueDate sends an explicit null.
type TaskUpdate struct {
	Title        *string
	Description  *string
	Status       *string
	Priority     *string
	DueDate      *string
	ClearDueDate bool
}

func (u TaskUpdate) MarshalJSON() ([]byte, error) {
	body := map[string]interface{}{}
	if u.Title != nil {
		body["title"] = *u.Title
	}
	if u.Description != nil {
		body["description"] = *u.Description
	}
	if u.Status != nil {
		body["status"] = *u.Status
	}
	if u.Priority != nil {
		body["priority"] = *u.Priority
	}
	switch {
	case u.ClearDueDate:
		body["dueDate"] = nil
	case u.DueDate != nil:
		body["dueDate"] = *u.DueDate
	}
	return json.Marshal(body)
}

// FieldError is one rejected field reported by the API.
type FieldError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
	Details    []FieldError
}

func (e *APIError) Error() string {
	return fmt.Sprintf("taskclient: %d %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == fasthttp.StatusNotFound
}

var (
	ErrIDRequired    = errors.New("taskclient: task id is required")
	ErrTitleRequired = errors.New("taskclient: task title is required")
)

func (c *Client) ListTasks(ctx context.Context, filters Filters) (*TaskList, error) {
	query := url.Values{}
	if filters.UserID != "" {
		query.Set("userId", filters.UserID)
	}
	if filters.Status != "" {
		query.Set("status", filters.Status)
	}
	if filters.Priority != "" {
		query.Set("priority", filters.Priority)
	}
	path := basePath
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var out TaskList
	if err := c.do(ctx, fasthttp.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetTask(ctx context.Context, id string) (*Task, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrIDRequired
	}
	var out Task
	if err := c.do(ctx, fasthttp.MethodGet, taskPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateTask(ctx context.Context, task NewTask) (*Task, error) {
	if strings.TrimSpace(task.Title) == "" {
		return nil, ErrTitleRequired
	}
	var out Task
	if err := c.do(ctx, fasthttp.MethodPost, basePath, task, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateTask(ctx context.Context, id string, update TaskUpdate) (*Task, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrIDRequired
	}
	var out Task
	if err := c.do(ctx, fasthttp.MethodPut, taskPath(id), update, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteTask removes a task and returns its last state.
func (c *Client) DeleteTask(ctx context.Context, id string) (*Task, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrIDRequired
	}
	var out struct {
		Message     string `json:"message"`
		DeletedTask Task   `json:"deletedTask"`
	}
	if err := c.do(ctx, fasthttp.MethodDelete, taskPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out.DeletedTask, nil
}

func (c *Client) UpdateStatus(ctx context.Context, id, status string) (*Task, error) {
	return c.UpdateTask(ctx, id, TaskUpdate{Status: &status})
}

func (c *Client) UpdatePriority(ctx context.Context, id, priority string) (*Task, error) {
	return c.UpdateTask(ctx, id, TaskUpdate{Priority: &priority})
}

// Complete marks a task completed.
func (c *Client) Complete(ctx context.Context, id string) (*Task, error) {
	return c.UpdateStatus(ctx, id, "completed")
}

// Start marks a task in progress.
func (c *Client) Start(ctx context.Context, id string) (*Task, error) {
	return c.UpdateStatus(ctx, id, "in-progress")
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Message string       `json:"message"`
		Details []FieldError `json:"details"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("taskclient: encode request: %w", err)
		}
		req.Header.SetContentType("application/json")
		req.SetBody(payload)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.timeout)
	}
	if err := c.doer.DoDeadline(req, resp, deadline); err != nil {
		return fmt.Errorf("taskclient: %s %s: %w", method, path, err)
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return &APIError{StatusCode: resp.StatusCode(), Message: strings.TrimSpace(string(resp.Body()))}
	}
	if resp.StatusCode() >= fasthttp.StatusBadRequest || !env.Success {
		apiErr := &APIError{StatusCode: resp.StatusCode()}
		if env.Error != nil {
			apiErr.Message = env.Error.Message
			apiErr.Details = env.Error.Details
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("taskclient: decode response: %w", err)
	}
	return nil
}

func taskPath(id string) string {
	return basePath + "/" + url.PathEscape(id)
}
