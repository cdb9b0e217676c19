// Package repotest holds the behavioural contract every TaskRepository
// implementation is tested against.
package repotest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/tasks/domain"
	"github.com/fastygo/tasks/repository"
)

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// NewTask builds a valid task for userID created offset after a fixed instant.
func NewTask(userID, title string, offset time.Duration) *domain.Task {
	created := base.Add(offset)
	return &domain.Task{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       title,
		Description: "",
		Status:      domain.StatusPending,
		Priority:    domain.PriorityMedium,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

// Run exercises the TaskRepository contract. newRepo must return a usable
// repository; ids and user ids are unique per subtest so stores may be shared.
func Run(t *testing.T, newRepo func(t *testing.T) repository.TaskRepository) {
	t.Helper()
	ctx := context.Background()

	t.Run("CreateAndGet", func(t *testing.T) {
		repo := newRepo(t)
		task := NewTask(uuid.NewString(), "Buy milk", 0)
		due := base.Add(72 * time.Hour)
		task.DueDate = &due

		created, err := repo.Create(ctx, task)
		require.NoError(t, err)
		assert.Equal(t, task, created)

		got, err := repo.GetByID(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, task, got)
	})

	t.Run("CreateConflict", func(t *testing.T) {
		repo := newRepo(t)
		task := NewTask(uuid.NewString(), "first", 0)
		_, err := repo.Create(ctx, task)
		require.NoError(t, err)

		dup := *task
		dup.Title = "second"
		_, err = repo.Create(ctx, &dup)
		require.ErrorIs(t, err, domain.ErrTaskExists)

		got, err := repo.GetByID(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, "first", got.Title)
	})

	t.Run("ConcurrentCreateSameID", func(t *testing.T) {
		repo := newRepo(t)
		task := NewTask(uuid.NewString(), "race", 0)

		const workers = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
			conflicts int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				attempt := *task
				_, err := repo.Create(ctx, &attempt)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					succeeded++
				case domain.IsDomainError(err, domain.ErrCodeConflict):
					conflicts++
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, succeeded)
		assert.Equal(t, workers-1, conflicts)
	})

	t.Run("GetMissing", func(t *testing.T) {
		repo := newRepo(t)
		for i := 0; i < 2; i++ {
			_, err := repo.GetByID(ctx, uuid.NewString())
			require.ErrorIs(t, err, domain.ErrTaskNotFound)
		}
	})

	t.Run("ListNewestFirstWithFilters", func(t *testing.T) {
		repo := newRepo(t)
		user := uuid.NewString()

		first := NewTask(user, "first", 0)
		second := NewTask(user, "second", time.Second)
		second.Status = domain.StatusCompleted
		second.Priority = domain.PriorityHigh
		third := NewTask(user, "third", 2*time.Second)
		third.Status = domain.StatusCompleted
		other := NewTask(uuid.NewString(), "other", 3*time.Second)

		for _, task := range []*domain.Task{first, second, third, other} {
			_, err := repo.Create(ctx, task)
			require.NoError(t, err)
		}

		all, err := repo.ListByUser(ctx, user, domain.TaskFilter{})
		require.NoError(t, err)
		assert.Equal(t, []string{"third", "second", "first"}, titles(all))

		completed, err := repo.ListByUser(ctx, user, domain.TaskFilter{Status: domain.StatusCompleted})
		require.NoError(t, err)
		assert.Equal(t, []string{"third", "second"}, titles(completed))

		both, err := repo.ListByUser(ctx, user, domain.TaskFilter{Status: domain.StatusCompleted, Priority: domain.PriorityHigh})
		require.NoError(t, err)
		assert.Equal(t, []string{"second"}, titles(both))

		none, err := repo.ListByUser(ctx, uuid.NewString(), domain.TaskFilter{})
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("UpdatePartial", func(t *testing.T) {
		repo := newRepo(t)
		task := NewTask(uuid.NewString(), "draft", 0)
		task.Description = "keep me"
		_, err := repo.Create(ctx, task)
		require.NoError(t, err)

		status := domain.StatusCompleted
		later := base.Add(time.Hour)
		updated, err := repo.Update(ctx, task.ID, domain.TaskChanges{Status: &status}, later)
		require.NoError(t, err)

		assert.Equal(t, domain.StatusCompleted, updated.Status)
		assert.Equal(t, "draft", updated.Title)
		assert.Equal(t, "keep me", updated.Description)
		assert.Equal(t, task.CreatedAt, updated.CreatedAt)
		assert.Equal(t, later, updated.UpdatedAt)

		got, err := repo.GetByID(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, updated, got)
	})

	t.Run("UpdateDueDate", func(t *testing.T) {
		repo := newRepo(t)
		task := NewTask(uuid.NewString(), "dated", 0)
		_, err := repo.Create(ctx, task)
		require.NoError(t, err)

		due := base.Add(48 * time.Hour)
		updated, err := repo.Update(ctx, task.ID, domain.TaskChanges{DueDate: &due, DueDateSet: true}, base.Add(time.Minute))
		require.NoError(t, err)
		require.NotNil(t, updated.DueDate)
		assert.Equal(t, due, *updated.DueDate)

		cleared, err := repo.Update(ctx, task.ID, domain.TaskChanges{DueDateSet: true}, base.Add(2*time.Minute))
		require.NoError(t, err)
		assert.Nil(t, cleared.DueDate)
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		repo := newRepo(t)
		status := domain.StatusCompleted
		_, err := repo.Update(ctx, uuid.NewString(), domain.TaskChanges{Status: &status}, base)
		require.ErrorIs(t, err, domain.ErrTaskNotFound)
	})

	t.Run("DeleteReturnsSnapshot", func(t *testing.T) {
		repo := newRepo(t)
		user := uuid.NewString()
		task := NewTask(user, "gone", 0)
		_, err := repo.Create(ctx, task)
		require.NoError(t, err)

		deleted, err := repo.Delete(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, task, deleted)

		_, err = repo.GetByID(ctx, task.ID)
		require.ErrorIs(t, err, domain.ErrTaskNotFound)

		listed, err := repo.ListByUser(ctx, user, domain.TaskFilter{})
		require.NoError(t, err)
		assert.Empty(t, listed)

		_, err = repo.Delete(ctx, task.ID)
		require.ErrorIs(t, err, domain.ErrTaskNotFound)
	})

	t.Run("Ping", func(t *testing.T) {
		require.NoError(t, newRepo(t).Ping(ctx))
	})
}

func titles(tasks []domain.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, task.Title)
	}
	return out
}
