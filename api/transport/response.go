package transport

import (
	"encoding/json"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/tasks/domain"
)

// Envelope is the standard API response wrapper used for both success and error payloads.
type Envelope struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorBody  `json:"error,omitempty"`
	Timestamp string      `json:"timestamp,omitempty"`
}

// ErrorBody is the error half of the envelope. Details lists field
// violations for validation failures and is null otherwise.
type ErrorBody struct {
	Message   string                  `json:"message"`
	Details   []domain.FieldViolation `json:"details"`
	Timestamp string                  `json:"timestamp"`
}

// NewSuccess returns a success envelope stamped with now.
func NewSuccess(data interface{}, now time.Time) Envelope {
	return Envelope{
		Success:   true,
		Data:      data,
		Timestamp: domain.FormatTime(now),
	}
}

// NewError returns an error envelope stamped with now.
func NewError(message string, details []domain.FieldViolation, now time.Time) Envelope {
	return Envelope{
		Error: &ErrorBody{
			Message:   message,
			Details:   details,
			Timestamp: domain.FormatTime(now),
		},
	}
}

// Task is the wire shape of a task. Timestamps are rendered with
// domain.TimeLayout; a missing due date is null.
type Task struct {
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

func NewTask(t *domain.Task) *Task {
	if t == nil {
		return nil
	}
	out := &Task{
		ID:          t.ID,
		UserID:      t.UserID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		CreatedAt:   domain.FormatTime(t.CreatedAt),
		UpdatedAt:   domain.FormatTime(t.UpdatedAt),
	}
	if t.DueDate != nil {
		due := domain.FormatTime(*t.DueDate)
		out.DueDate = &due
	}
	return out
}

func NewTasks(tasks []domain.Task) []*Task {
	out := make([]*Task, 0, len(tasks))
	for i := range tasks {
		out = append(out, NewTask(&tasks[i]))
	}
	return out
}

// Filters echoes the effective list filters.
type Filters struct {
	UserID   string `json:"userId"`
	Status   string `json:"status,omitempty"`
	Priority string `json:"priority,omitempty"`
}

// TaskList is the payload of the list operation.
type TaskList struct {
	Tasks   []*Task `json:"tasks"`
	Count   int     `json:"count"`
	Filters Filters `json:"filters"`
}

// DeletedTask is the payload of the delete operation.
type DeletedTask struct {
	Message     string `json:"message"`
	DeletedTask *Task  `json:"deletedTask"`
}

// Write serializes payload as the JSON response body with the given status.
func Write(ctx *fasthttp.RequestCtx, status int, payload Envelope) {
	body, err := json.Marshal(payload)
	if err != nil {
		status = fasthttp.StatusInternalServerError
		body = []byte(`{"success":false,"error":{"message":"Internal server error","details":null}}`)
	}
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}
