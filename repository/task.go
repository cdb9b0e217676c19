package repository

import (
	"context"
	"time"

	"github.com/fastygo/tasks/domain"
)

// TaskRepository is the only component that talks to task storage. Every
// mutation is conditioned on the existence of the key and evaluated by the
// store in a single atomic step.
type TaskRepository interface {
	// Create writes a new task. It fails with domain.ErrTaskExists when the id is taken.
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	// GetByID returns domain.ErrTaskNotFound for a missing id.
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	// ListByUser returns the user's tasks newest first. The filter narrows the
	// returned set after the index lookup.
	ListByUser(ctx context.Context, userID string, filter domain.TaskFilter) ([]domain.Task, error)
	// Update applies exactly the supplied changes and returns the stored result.
	Update(ctx context.Context, id string, changes domain.TaskChanges, updatedAt time.Time) (*domain.Task, error)
	// Delete removes the task and returns its last stored state.
	Delete(ctx context.Context, id string) (*domain.Task, error)
	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}
