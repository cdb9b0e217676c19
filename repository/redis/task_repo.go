package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/tasks/domain"
	"github.com/fastygo/tasks/repository"
)

// Each task is a hash at <prefix>:task:<id>; a sorted set per user at
// <prefix>:user:<userId> orders ids by creation time. Scripts keep the
// existence check and the write in one atomic step.
var (
	createScript = redislib.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return 0
end
redis.call('HSET', KEYS[1], unpack(ARGV, 3))
redis.call('ZADD', KEYS[2], ARGV[1], ARGV[2])
return 1
`)

	updateScript = redislib.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return false
end
local removed = tonumber(ARGV[1])
for i = 2, removed + 1 do
  redis.call('HDEL', KEYS[1], ARGV[i])
end
if #ARGV > removed + 1 then
  redis.call('HSET', KEYS[1], unpack(ARGV, removed + 2))
end
return redis.call('HGETALL', KEYS[1])
`)

	deleteScript = redislib.NewScript(`
local fields = redis.call('HGETALL', KEYS[1])
if #fields == 0 then
  return false
end
local userId = redis.call('HGET', KEYS[1], 'userId')
redis.call('DEL', KEYS[1])
redis.call('ZREM', ARGV[1] .. userId, ARGV[2])
return fields
`)
)

type taskRepository struct {
	client *redislib.Client
	prefix string
}

// NewTaskRepository creates a Redis-backed task repository. prefix namespaces
// every key, usually the table name.
func NewTaskRepository(client *redislib.Client, prefix string) repository.TaskRepository {
	if prefix == "" {
		prefix = "tasks"
	}
	return &taskRepository{client: client, prefix: prefix}
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil || task.ID == "" {
		return nil, domain.ErrInvalidPayload
	}

	item := repository.ToItem(task)
	args := []interface{}{score(task.CreatedAt), item.ID}
	args = append(args, toHash(item)...)

	created, err := createScript.Run(ctx, r.client,
		[]string{r.taskKey(item.ID), r.userKey(item.UserID)}, args...).Int()
	if err != nil {
		return nil, fmt.Errorf("redis: create task: %w", err)
	}
	if created == 0 {
		return nil, domain.ErrTaskExists
	}
	return repository.FromItem(item), nil
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	fields, err := r.client.HGetAll(ctx, r.taskKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: get task: %w", err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrTaskNotFound
	}
	return repository.FromItem(fromHash(fields)), nil
}

func (r *taskRepository) ListByUser(ctx context.Context, userID string, filter domain.TaskFilter) ([]domain.Task, error) {
	ids, err := r.client.ZRevRange(ctx, r.userKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: list tasks: %w", err)
	}
	if len(ids) == 0 {
		return []domain.Task{}, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redislib.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, r.taskKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("redis: list tasks: %w", err)
	}

	items := make([]repository.Item, 0, len(cmds))
	for _, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		items = append(items, fromHash(fields))
	}
	return repository.FilterItems(items, filter), nil
}

func (r *taskRepository) Update(ctx context.Context, id string, changes domain.TaskChanges, updatedAt time.Time) (*domain.Task, error) {
	var removed, set []interface{}
	for _, attr := range repository.UpdateAttributes(changes, updatedAt) {
		if attr.Value == nil {
			removed = append(removed, attr.Name)
			continue
		}
		set = append(set, attr.Name, *attr.Value)
	}

	args := append([]interface{}{len(removed)}, removed...)
	args = append(args, set...)

	res, err := updateScript.Run(ctx, r.client, []string{r.taskKey(id)}, args...).StringSlice()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("redis: update task: %w", err)
	}
	return repository.FromItem(fromPairs(res)), nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) (*domain.Task, error) {
	res, err := deleteScript.Run(ctx, r.client, []string{r.taskKey(id)}, r.userKey(""), id).StringSlice()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("redis: delete task: %w", err)
	}
	return repository.FromItem(fromPairs(res)), nil
}

func (r *taskRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *taskRepository) taskKey(id string) string {
	return fmt.Sprintf("%s:task:%s", r.prefix, id)
}

func (r *taskRepository) userKey(userID string) string {
	return fmt.Sprintf("%s:user:%s", r.prefix, userID)
}

func score(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func toHash(item repository.Item) []interface{} {
	fields := []interface{}{
		repository.AttrID, item.ID,
		repository.AttrUserID, item.UserID,
		repository.AttrTitle, item.Title,
		repository.AttrDescription, item.Description,
		repository.AttrStatus, item.Status,
		repository.AttrPriority, item.Priority,
		repository.AttrCreatedAt, item.CreatedAt,
		repository.AttrUpdatedAt, item.UpdatedAt,
	}
	if item.DueDate != nil {
		fields = append(fields, repository.AttrDueDate, *item.DueDate)
	}
	return fields
}

func fromHash(fields map[string]string) repository.Item {
	item := repository.Item{
		ID:          fields[repository.AttrID],
		UserID:      fields[repository.AttrUserID],
		Title:       fields[repository.AttrTitle],
		Description: fields[repository.AttrDescription],
		Status:      fields[repository.AttrStatus],
		Priority:    fields[repository.AttrPriority],
		CreatedAt:   fields[repository.AttrCreatedAt],
		UpdatedAt:   fields[repository.AttrUpdatedAt],
	}
	if due, ok := fields[repository.AttrDueDate]; ok {
		item.DueDate = &due
	}
	return item
}

func fromPairs(pairs []string) repository.Item {
	fields := make(map[string]string, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		fields[pairs[i]] = pairs[i+1]
	}
	return fromHash(fields)
}
