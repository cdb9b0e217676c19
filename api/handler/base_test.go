package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fastygo/tasks/domain"
)

func TestClassify(t *testing.T) {
	boom := errors.New("dial tcp 10.0.0.1:8000: connection refused")

	dErr := classify(fmt.Errorf("dynamodb: list tasks: %w", boom), "Failed to fetch tasks")
	assert.Equal(t, domain.ErrCodeInternal, dErr.Code)
	assert.Equal(t, "Failed to fetch tasks", dErr.Message)
	assert.ErrorIs(t, dErr, boom)
	assert.Equal(t, http.StatusInternalServerError, statusFor(dErr.Code))

	hidden := domain.WrapError(domain.ErrCodeInternal, "bolt: bucket missing", boom)
	assert.Equal(t, "Failed to update task", classify(hidden, "Failed to update task").Message)

	assert.Same(t, domain.ErrTaskNotFound, classify(domain.ErrTaskNotFound, "x"))
	assert.Same(t, domain.ErrTaskExists, classify(fmt.Errorf("wrap: %w", domain.ErrTaskExists), "x"))
}

func TestStatusFor(t *testing.T) {
	cases := map[domain.ErrorCode]int{
		domain.ErrCodeInvalid:  http.StatusBadRequest,
		domain.ErrCodeConflict: http.StatusBadRequest,
		domain.ErrCodeNotFound: http.StatusNotFound,
		domain.ErrCodeInternal: http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, statusFor(code), code)
	}
}
