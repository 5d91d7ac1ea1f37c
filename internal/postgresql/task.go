package postgresql

import (
	"context"
	"errors"
	"math"

	"github.com/jackc/pgx/v5"

	"github.com/sanLimbu/tasksync/internal"
	"github.com/sanLimbu/tasksync/internal/postgresql/db"
)

// Task represents the repository used for interacting with Task records.
type Task struct {
	q *db.Queries
}

// NewTask instantiates the Task repository.
func NewTask(d db.DBTX) *Task {
	return &Task{
		q: db.New(d),
	}
}

// EnsureSchema creates the tasks table when missing.
func (t *Task) EnsureSchema(ctx context.Context) error {
	defer newOTELSpan(ctx, "Task.EnsureSchema").End()

	if err := t.q.CreateSchema(ctx); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "create schema")
	}

	return nil
}

// Create inserts a new task record.
func (t *Task) Create(ctx context.Context, task internal.Task) (internal.TaskID, error) {
	defer newOTELSpan(ctx, "Task.Create").End()

	id, err := t.q.InsertTask(ctx, db.InsertTaskParams{
		Complete:    task.Complete,
		Description: task.Description,
		Priority:    newPriority(task.Priority),
		DueDate:     newTimestamptz(task.DueDate),
	})
	if err != nil {
		return 0, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "insert task")
	}

	return internal.NewTaskID(uint32(id))
}

// All returns every task ordered by id.
func (t *Task) All(ctx context.Context) ([]internal.Task, error) {
	defer newOTELSpan(ctx, "Task.All").End()

	rows, err := t.q.SelectTasks(ctx)
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "select tasks")
	}

	res := make([]internal.Task, 0, len(rows))

	for _, row := range rows {
		task, err := convertTask(row)
		if err != nil {
			return nil, err
		}

		res = append(res, task)
	}

	return res, nil
}

// Find returns the requested task by searching its id.
func (t *Task) Find(ctx context.Context, id internal.TaskID) (internal.Task, error) {
	defer newOTELSpan(ctx, "Task.Find").End()

	if uint32(id) > math.MaxInt32 {
		return internal.Task{}, internal.NewErrorf(internal.ErrorCodeNotFound, "task %s not found", id)
	}

	row, err := t.q.SelectTask(ctx, int32(id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return internal.Task{}, internal.WrapErrorf(err, internal.ErrorCodeNotFound, "task not found")
		}

		return internal.Task{}, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "select task")
	}

	return convertTask(row)
}

// Update replaces every field of an existing task.
func (t *Task) Update(ctx context.Context, task internal.Task) error {
	defer newOTELSpan(ctx, "Task.Update").End()

	if uint32(task.ID) > math.MaxInt32 {
		return internal.NewErrorf(internal.ErrorCodeNotFound, "task %s not found", task.ID)
	}

	n, err := t.q.UpdateTask(ctx, db.UpdateTaskParams{
		Complete:    task.Complete,
		Description: task.Description,
		Priority:    newPriority(task.Priority),
		DueDate:     newTimestamptz(task.DueDate),
		TaskID:      int32(task.ID),
	})
	if err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "update task")
	}

	if n == 0 {
		return internal.NewErrorf(internal.ErrorCodeNotFound, "task %s not found", task.ID)
	}

	return nil
}

// Delete deletes the existing record matching the id.
func (t *Task) Delete(ctx context.Context, id internal.TaskID) error {
	defer newOTELSpan(ctx, "Task.Delete").End()

	if uint32(id) > math.MaxInt32 {
		return nil
	}

	if err := t.q.DeleteTask(ctx, int32(id)); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "delete task")
	}

	return nil
}
