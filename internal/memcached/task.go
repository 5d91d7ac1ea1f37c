package memcached

import (
	"context"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"go.uber.org/zap"

	"github.com/sanLimbu/tasksync/internal"
)

// Task caches single task lookups in front of another repository. Listing always goes to the
// wrapped repository.
type Task struct {
	client     *memcache.Client
	orig       TaskStore
	expiration time.Duration
	logger     *zap.Logger
}

// TaskStore is the repository being cached.
type TaskStore interface {
	Create(ctx context.Context, task internal.Task) (internal.TaskID, error)
	All(ctx context.Context) ([]internal.Task, error)
	Find(ctx context.Context, id internal.TaskID) (internal.Task, error)
	Update(ctx context.Context, task internal.Task) error
	Delete(ctx context.Context, id internal.TaskID) error
}

// NewTask returns orig wrapped with a cache of Find results.
func NewTask(client *memcache.Client, orig TaskStore, logger *zap.Logger) *Task {
	return &Task{
		client:     client,
		orig:       orig,
		expiration: 15 * time.Minute,
		logger:     logger,
	}
}

func (t *Task) Create(ctx context.Context, task internal.Task) (internal.TaskID, error) {
	defer newOTELSpan(ctx, "Task.Create").End()

	id, err := t.orig.Create(ctx, task)
	if err != nil {
		return 0, wrapErrorf(err, "orig.Create")
	}

	task.ID = id

	setTask(ctx, t.client, taskKey(id), &task, t.expiration)

	return id, nil
}

func (t *Task) All(ctx context.Context) ([]internal.Task, error) {
	defer newOTELSpan(ctx, "Task.All").End()

	res, err := t.orig.All(ctx)
	if err != nil {
		return nil, wrapErrorf(err, "orig.All")
	}

	return res, nil
}

func (t *Task) Delete(ctx context.Context, id internal.TaskID) error {
	defer newOTELSpan(ctx, "Task.Delete").End()

	if err := t.orig.Delete(ctx, id); err != nil {
		return wrapErrorf(err, "orig.Delete")
	}

	deleteTask(ctx, t.client, taskKey(id))

	return nil
}

func (t *Task) Find(ctx context.Context, id internal.TaskID) (internal.Task, error) {
	defer newOTELSpan(ctx, "Task.Find").End()

	var res internal.Task

	if err := getTask(ctx, t.client, taskKey(id), &res); err == nil {
		return res, nil
	}

	t.logger.Debug("Find: cache miss", zap.Stringer("id", id))

	// Cache-Aside Caching

	res, err := t.orig.Find(ctx, id)
	if err != nil {
		return res, wrapErrorf(err, "orig.Find")
	}

	setTask(ctx, t.client, taskKey(id), &res, t.expiration)

	return res, nil
}

func (t *Task) Update(ctx context.Context, task internal.Task) error {
	defer newOTELSpan(ctx, "Task.Update").End()

	deleteTask(ctx, t.client, taskKey(task.ID))

	if err := t.orig.Update(ctx, task); err != nil {
		return wrapErrorf(err, "orig.Update")
	}

	setTask(ctx, t.client, taskKey(task.ID), &task, t.expiration)

	return nil
}

func taskKey(id internal.TaskID) string {
	return "task:" + id.String()
}
