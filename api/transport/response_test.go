package transport

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/tasks/domain"
)

var now = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

func TestNewSuccess(t *testing.T) {
	out, err := json.Marshal(NewSuccess(map[string]int{"n": 1}, now))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"data":{"n":1},"timestamp":"2025-01-02T03:04:05.000Z"}`, string(out))
}

func TestNewError(t *testing.T) {
	details := []domain.FieldViolation{{Field: "title", Message: "title is required"}}
	out, err := json.Marshal(NewError("Validation failed", details, now))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"success": false,
		"error": {
			"message": "Validation failed",
			"details": [{"field": "title", "message": "title is required"}],
			"timestamp": "2025-01-02T03:04:05.000Z"
		}
	}`, string(out))

	out, err = json.Marshal(NewError("Task not found", nil, now))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":{"message":"Task not found","details":null,"timestamp":"2025-01-02T03:04:05.000Z"}}`, string(out))
}

func TestNewTask(t *testing.T) {
	task := &domain.Task{
		ID:        "1",
		UserID:    domain.DefaultUserID,
		Title:     "Buy milk",
		Status:    domain.StatusPending,
		Priority:  domain.PriorityMedium,
		CreatedAt: now,
		UpdatedAt: now,
	}

	out, err := json.Marshal(NewTask(task))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "1",
		"userId": "default-user",
		"title": "Buy milk",
		"description": "",
		"status": "pending",
		"priority": "medium",
		"dueDate": null,
		"createdAt": "2025-01-02T03:04:05.000Z",
		"updatedAt": "2025-01-02T03:04:05.000Z"
	}`, string(out))

	assert.Nil(t, NewTask(nil))
	assert.NotNil(t, NewTasks(nil))
}
