package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/sanLimbu/tasksync/internal"
)

const otelName = "github.com/sanLimbu/tasksync/internal/service"

// TaskRepository defines the datastore handling persisting Task records.
type TaskRepository interface {
	Create(ctx context.Context, task internal.Task) (internal.TaskID, error)
	All(ctx context.Context) ([]internal.Task, error)
	Find(ctx context.Context, id internal.TaskID) (internal.Task, error)
	Update(ctx context.Context, task internal.Task) error
	Delete(ctx context.Context, id internal.TaskID) error
}

// TaskMessageBrokerRepository defines the datastore handling publishing Task changes.
type TaskMessageBrokerRepository interface {
	Created(ctx context.Context, task internal.Task) error
	Deleted(ctx context.Context, id internal.TaskID) error
	Updated(ctx context.Context, task internal.Task) error
}

// Locker guards the read-apply-write sequence of a single task.
type Locker interface {
	Lock(ctx context.Context, id internal.TaskID) (unlock func(), err error)
}

// Task defines the application service in charge of interacting with Tasks.
type Task struct {
	logger    *zap.Logger
	repo      TaskRepository
	msgBroker TaskMessageBrokerRepository
	locker    Locker
}

// NewTask instantiates the Task service. msgBroker may be nil, a nil locker is replaced by an
// in-process KeyedLocker.
func NewTask(logger *zap.Logger, repo TaskRepository, msgBroker TaskMessageBrokerRepository, locker Locker) *Task {
	if msgBroker == nil {
		msgBroker = nopMessageBroker{}
	}

	if locker == nil {
		locker = NewKeyedLocker()
	}

	return &Task{
		logger:    logger,
		repo:      repo,
		msgBroker: msgBroker,
		locker:    locker,
	}
}

// Add stores a new record, the id on task is ignored and replaced by the one assigned by the
// datastore.
func (t *Task) Add(ctx context.Context, task internal.Task) (internal.Task, error) {
	ctx, span := otel.Tracer(otelName).Start(ctx, "Task.Add")
	defer span.End()

	task.ID = 0

	if err := checkDescription(task); err != nil {
		return internal.Task{}, err
	}

	id, err := t.repo.Create(ctx, task)
	if err != nil {
		return internal.Task{}, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "repo.Create")
	}

	task.ID = id

	if err := t.msgBroker.Created(ctx, task); err != nil {
		t.logger.Warn("publishing created event failed", zap.Stringer("id", id), zap.Error(err))
	}

	return task, nil
}

// List returns every stored task.
func (t *Task) List(ctx context.Context) ([]internal.Task, error) {
	ctx, span := otel.Tracer(otelName).Start(ctx, "Task.List")
	defer span.End()

	res, err := t.repo.All(ctx)
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "repo.All")
	}

	return res, nil
}

// Update applies delta to an existing Task. It fails with ErrorCodeNotFound when the task
// does not exist, in which case nothing is written.
func (t *Task) Update(ctx context.Context, id internal.TaskID, delta internal.TaskDelta) (internal.Task, error) {
	ctx, span := otel.Tracer(otelName).Start(ctx, "Task.Update")
	defer span.End()

	unlock, err := t.locker.Lock(ctx, id)
	if err != nil {
		return internal.Task{}, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "locker.Lock")
	}
	defer unlock()

	task, err := t.repo.Find(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return internal.Task{}, internal.WrapErrorf(err, internal.ErrorCodeNotFound, "repo.Find")
		}

		return internal.Task{}, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "repo.Find")
	}

	task = delta.ApplyTo(task)
	task.ID = id

	if err := checkDescription(task); err != nil {
		return internal.Task{}, err
	}

	if err := t.repo.Update(ctx, task); err != nil {
		if IsNotFound(err) {
			return internal.Task{}, internal.WrapErrorf(err, internal.ErrorCodeNotFound, "repo.Update")
		}

		return internal.Task{}, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "repo.Update")
	}

	if err := t.msgBroker.Updated(ctx, task); err != nil {
		t.logger.Warn("publishing updated event failed", zap.Stringer("id", id), zap.Error(err))
	}

	return task, nil
}

// Remove deletes a Task, removing a task that does not exist is not an error.
func (t *Task) Remove(ctx context.Context, id internal.TaskID) error {
	ctx, span := otel.Tracer(otelName).Start(ctx, "Task.Remove")
	defer span.End()

	unlock, err := t.locker.Lock(ctx, id)
	if err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "locker.Lock")
	}
	defer unlock()

	if err := t.repo.Delete(ctx, id); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "repo.Delete")
	}

	if err := t.msgBroker.Deleted(ctx, id); err != nil {
		t.logger.Warn("publishing deleted event failed", zap.Stringer("id", id), zap.Error(err))
	}

	return nil
}

// IsNotFound reports whether the first coded error in err's chain is ErrorCodeNotFound.
func IsNotFound(err error) bool {
	var ierr *internal.Error

	return errors.As(err, &ierr) && ierr.Code() == internal.ErrorCodeNotFound
}

// checkDescription enforces the size limit for clients that skip Task.Validate so a stored task
// always fits in a frame.
func checkDescription(task internal.Task) error {
	if len(task.Description) > internal.MaxDescriptionLength {
		return internal.NewErrorf(internal.ErrorCodeInvalidArgument,
			"description is %d bytes, at most %d are allowed", len(task.Description), internal.MaxDescriptionLength)
	}

	return nil
}

type nopMessageBroker struct{}

func (nopMessageBroker) Created(context.Context, internal.Task) error   { return nil }
func (nopMessageBroker) Deleted(context.Context, internal.TaskID) error { return nil }
func (nopMessageBroker) Updated(context.Context, internal.Task) error   { return nil }
