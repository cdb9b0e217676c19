package bolt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/fastygo/tasks/domain"
	"github.com/fastygo/tasks/repository"
)

var errBucketMissing = errors.New("bolt: task bucket missing")

type taskRepository struct {
	db    *bolt.DB
	table []byte
	index []byte
}

// NewTaskRepository returns a BoltDB-backed TaskRepository. Items live in the
// table bucket keyed by id; the index bucket holds one nested bucket per user
// mapping insertion keys to ids.
func NewTaskRepository(db *bolt.DB, table string) (repository.TaskRepository, error) {
	r := &taskRepository{
		db:    db,
		table: []byte(table),
		index: []byte(table + "_by_user"),
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(r.table); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(r.index)
		return err
	}); err != nil {
		return nil, fmt.Errorf("bolt: create buckets: %w", err)
	}
	return r, nil
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil || task.ID == "" {
		return nil, domain.ErrInvalidPayload
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	item := repository.ToItem(task)
	payload, err := json.Marshal(item)
	if err != nil {
		return nil, err
	}

	err = r.db.Update(func(tx *bolt.Tx) error {
		tasks := tx.Bucket(r.table)
		if tasks == nil {
			return errBucketMissing
		}
		if tasks.Get([]byte(item.ID)) != nil {
			return domain.ErrTaskExists
		}
		if err := tasks.Put([]byte(item.ID), payload); err != nil {
			return err
		}
		users, err := tx.Bucket(r.index).CreateBucketIfNotExists([]byte(item.UserID))
		if err != nil {
			return err
		}
		return users.Put([]byte(item.IndexKey()), []byte(item.ID))
	})
	if err != nil {
		return nil, translate("create task", err)
	}
	return repository.FromItem(item), nil
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var item repository.Item
	err := r.db.View(func(tx *bolt.Tx) error {
		tasks := tx.Bucket(r.table)
		if tasks == nil {
			return errBucketMissing
		}
		return decode(tasks.Get([]byte(id)), &item)
	})
	if err != nil {
		return nil, translate("get task", err)
	}
	return repository.FromItem(item), nil
}

func (r *taskRepository) ListByUser(ctx context.Context, userID string, filter domain.TaskFilter) ([]domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var items []repository.Item
	err := r.db.View(func(tx *bolt.Tx) error {
		tasks := tx.Bucket(r.table)
		index := tx.Bucket(r.index)
		if tasks == nil || index == nil {
			return errBucketMissing
		}
		users := index.Bucket([]byte(userID))
		if users == nil {
			return nil
		}

		c := users.Cursor()
		for k, id := c.Last(); k != nil; k, id = c.Prev() {
			var item repository.Item
			if err := decode(tasks.Get(id), &item); err != nil {
				if errors.Is(err, domain.ErrTaskNotFound) {
					continue
				}
				return err
			}
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, translate("list tasks", err)
	}
	return repository.FilterItems(items, filter), nil
}

func (r *taskRepository) Update(ctx context.Context, id string, changes domain.TaskChanges, updatedAt time.Time) (*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var item repository.Item
	err := r.db.Update(func(tx *bolt.Tx) error {
		tasks := tx.Bucket(r.table)
		if tasks == nil {
			return errBucketMissing
		}
		if err := decode(tasks.Get([]byte(id)), &item); err != nil {
			return err
		}

		item.Apply(repository.UpdateAttributes(changes, updatedAt))
		payload, err := json.Marshal(item)
		if err != nil {
			return err
		}
		return tasks.Put([]byte(id), payload)
	})
	if err != nil {
		return nil, translate("update task", err)
	}
	return repository.FromItem(item), nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) (*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var item repository.Item
	err := r.db.Update(func(tx *bolt.Tx) error {
		tasks := tx.Bucket(r.table)
		if tasks == nil {
			return errBucketMissing
		}
		if err := decode(tasks.Get([]byte(id)), &item); err != nil {
			return err
		}
		if err := tasks.Delete([]byte(id)); err != nil {
			return err
		}
		if users := tx.Bucket(r.index).Bucket([]byte(item.UserID)); users != nil {
			return users.Delete([]byte(item.IndexKey()))
		}
		return nil
	})
	if err != nil {
		return nil, translate("delete task", err)
	}
	return repository.FromItem(item), nil
}

func (r *taskRepository) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(r.table) == nil {
			return errBucketMissing
		}
		return nil
	})
}

func decode(payload []byte, item *repository.Item) error {
	if payload == nil {
		return domain.ErrTaskNotFound
	}
	return json.Unmarshal(payload, item)
}

// translate passes domain errors through and wraps everything else.
func translate(op string, err error) error {
	var dErr *domain.Error
	if errors.As(err, &dErr) {
		return err
	}
	return fmt.Errorf("bolt: %s: %w", op, err)
}
