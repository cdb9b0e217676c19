package task

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/tasks/domain"
	appLogger "github.com/fastygo/tasks/pkg/logger"
	"github.com/fastygo/tasks/repository"
)

// UseCase orchestrates task operations over a repository. It holds no state
// across calls.
type UseCase struct {
	tasks  repository.TaskRepository
	logger *zap.Logger
	newID  func() string
	now    func() time.Time
}

type Option func(*UseCase)

// WithIDGenerator replaces uuid.NewString as the source of task ids.
func WithIDGenerator(fn func() string) Option {
	return func(uc *UseCase) {
		if fn != nil {
			uc.newID = fn
		}
	}
}

// WithClock replaces time.Now.
func WithClock(fn func() time.Time) Option {
	return func(uc *UseCase) {
		if fn != nil {
			uc.now = fn
		}
	}
}

func New(tasks repository.TaskRepository, logger *zap.Logger, opts ...Option) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	uc := &UseCase{
		tasks:  tasks,
		logger: logger,
		newID:  uuid.NewString,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *UseCase) ListTasks(ctx context.Context, userID string, filter domain.TaskFilter) ([]domain.Task, error) {
	if userID == "" {
		userID = domain.DefaultUserID
	}
	return uc.tasks.ListByUser(ctx, userID, filter)
}

func (uc *UseCase) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	if id == "" {
		return nil, domain.ErrIDRequired
	}
	return uc.tasks.GetByID(ctx, id)
}

// CreateTask assigns a fresh id and a single creation instant to validated
// input and stores it.
func (uc *UseCase) CreateTask(ctx context.Context, input domain.NewTask) (*domain.Task, error) {
	task := input.Build(uc.newID(), domain.Timestamp(uc.now()))

	created, err := uc.tasks.Create(ctx, task)
	if err != nil {
		return nil, err
	}
	appLogger.WithRequestID(ctx, uc.logger).Debug("task created",
		zap.String("task_id", created.ID),
		zap.String("user_id", created.UserID))
	return created, nil
}

// UpdateTask applies a partial update. An empty change set is rejected
// without touching the repository.
func (uc *UseCase) UpdateTask(ctx context.Context, id string, changes domain.TaskChanges) (*domain.Task, error) {
	if id == "" {
		return nil, domain.ErrIDRequired
	}
	if changes.IsEmpty() {
		return nil, domain.ErrNoChanges
	}
	return uc.tasks.Update(ctx, id, changes, domain.Timestamp(uc.now()))
}

// DeleteTask removes a task and returns its last state.
func (uc *UseCase) DeleteTask(ctx context.Context, id string) (*domain.Task, error) {
	if id == "" {
		return nil, domain.ErrIDRequired
	}
	deleted, err := uc.tasks.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	appLogger.WithRequestID(ctx, uc.logger).Debug("task deleted", zap.String("task_id", id))
	return deleted, nil
}

// Ping reports whether the underlying store is reachable.
func (uc *UseCase) Ping(ctx context.Context) error {
	return uc.tasks.Ping(ctx)
}
