package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/tasks/domain"
	"github.com/fastygo/tasks/repository"
)

const selectColumns = `id, user_id, title, description, status, priority, due_date, created_at, updated_at`

type taskRepository struct {
	pool  *pgxpool.Pool
	table string
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool, table string) repository.TaskRepository {
	if table == "" {
		table = "tasks"
	}
	return &taskRepository{pool: pool, table: pgx.Identifier{table}.Sanitize()}
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil || task.ID == "" {
		return nil, domain.ErrInvalidPayload
	}
	stored := repository.FromItem(repository.ToItem(task))

	query := fmt.Sprintf(`
	INSERT INTO %s (%s)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (id) DO NOTHING
	`, r.table, selectColumns)

	tag, err := r.pool.Exec(ctx, query,
		stored.ID,
		stored.UserID,
		stored.Title,
		stored.Description,
		string(stored.Status),
		string(stored.Priority),
		nullTime(stored.DueDate),
		stored.CreatedAt,
		stored.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: create task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrTaskExists
	}
	return stored, nil
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, selectColumns, r.table)
	task, err := scanTask(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate("get task", err)
	}
	return task, nil
}

func (r *taskRepository) ListByUser(ctx context.Context, userID string, filter domain.TaskFilter) ([]domain.Task, error) {
	query := fmt.Sprintf(`
	SELECT %s
	FROM %s
	WHERE user_id = $1
	  AND ($2 = '' OR status = $2)
	  AND ($3 = '' OR priority = $3)
	ORDER BY created_at DESC, id DESC
	`, selectColumns, r.table)

	rows, err := r.pool.Query(ctx, query, userID, string(filter.Status), string(filter.Priority))
	if err != nil {
		return nil, fmt.Errorf("postgres: list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: list tasks: %w", err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list tasks: %w", err)
	}
	return tasks, nil
}

func (r *taskRepository) Update(ctx context.Context, id string, changes domain.TaskChanges, updatedAt time.Time) (*domain.Task, error) {
	attrs := repository.UpdateAttributes(changes, updatedAt)
	sets := make([]string, 0, len(attrs))
	args := []interface{}{id}
	for _, attr := range attrs {
		args = append(args, columnValue(attr))
		sets = append(sets, fmt.Sprintf("%s = $%d", columns[attr.Name], len(args)))
	}

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = $1 RETURNING %s`,
		r.table, strings.Join(sets, ", "), selectColumns)

	task, err := scanTask(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, translate("update task", err)
	}
	return task, nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) (*domain.Task, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 RETURNING %s`, r.table, selectColumns)
	task, err := scanTask(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate("delete task", err)
	}
	return task, nil
}

func (r *taskRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var (
		task     domain.Task
		status   string
		priority string
		due      *time.Time
	)

	if err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&status,
		&priority,
		&due,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		return nil, err
	}

	task.Status = domain.Status(status)
	task.Priority = domain.Priority(priority)
	task.CreatedAt = domain.Timestamp(task.CreatedAt)
	task.UpdatedAt = domain.Timestamp(task.UpdatedAt)
	if due != nil {
		normalized := domain.Timestamp(*due)
		task.DueDate = &normalized
	}
	return &task, nil
}

func translate(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrTaskNotFound
	}
	return fmt.Errorf("postgres: %s: %w", op, err)
}
