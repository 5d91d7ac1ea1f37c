package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"math"

	"github.com/sanLimbu/tasksync/internal"
)

// Task represents the repository used for interacting with Task records.
type Task struct {
	db *sql.DB
}

// NewTask instantiates the Task repository.
func NewTask(db *sql.DB) *Task {
	return &Task{
		db: db,
	}
}

// Create inserts a new task record, the ID on task is ignored.
func (t *Task) Create(ctx context.Context, task internal.Task) (internal.TaskID, error) {
	defer newOTELSpan(ctx, "Task.Create").End()

	res, err := t.db.ExecContext(ctx,
		`INSERT INTO tasks (complete, description, priority, due_date) VALUES (?, ?, ?, ?)`,
		task.Complete, task.Description, task.Priority.String(), newDueDate(task.DueDate))
	if err != nil {
		return 0, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "insert task")
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "res.LastInsertId")
	}

	if id <= 0 || id > math.MaxUint32 {
		return 0, internal.NewErrorf(internal.ErrorCodeUnknown, "task id %d out of range", id)
	}

	return internal.TaskID(id), nil
}

// All returns every task ordered by id.
func (t *Task) All(ctx context.Context) ([]internal.Task, error) {
	defer newOTELSpan(ctx, "Task.All").End()

	rows, err := t.db.QueryContext(ctx,
		`SELECT task_id, complete, description, priority, due_date FROM tasks ORDER BY task_id ASC`)
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "select tasks")
	}
	defer rows.Close()

	res := []internal.Task{}

	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}

		res = append(res, task)
	}

	if err := rows.Err(); err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "rows.Err")
	}

	return res, nil
}

// Find returns the requested task by searching its id.
func (t *Task) Find(ctx context.Context, id internal.TaskID) (internal.Task, error) {
	defer newOTELSpan(ctx, "Task.Find").End()

	row := t.db.QueryRowContext(ctx,
		`SELECT task_id, complete, description, priority, due_date FROM tasks WHERE task_id = ?`, uint32(id))

	task, err := scanTask(row)
	if err != nil {
		return internal.Task{}, err
	}

	return task, nil
}

// Update replaces every field of an existing task.
func (t *Task) Update(ctx context.Context, task internal.Task) error {
	defer newOTELSpan(ctx, "Task.Update").End()

	res, err := t.db.ExecContext(ctx,
		`UPDATE tasks SET complete = ?, description = ?, priority = ?, due_date = ? WHERE task_id = ?`,
		task.Complete, task.Description, task.Priority.String(), newDueDate(task.DueDate), uint32(task.ID))
	if err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "update task")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "res.RowsAffected")
	}

	if n == 0 {
		return internal.NewErrorf(internal.ErrorCodeNotFound, "task %s not found", task.ID)
	}

	return nil
}

// Delete deletes the existing record matching the id, deleting a missing record succeeds.
func (t *Task) Delete(ctx context.Context, id internal.TaskID) error {
	defer newOTELSpan(ctx, "Task.Delete").End()

	if _, err := t.db.ExecContext(ctx, `DELETE FROM tasks WHERE task_id = ?`, uint32(id)); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "delete task")
	}

	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(s scanner) (internal.Task, error) {
	var (
		id       int64
		task     internal.Task
		priority string
		dueDate  sql.NullString
	)

	if err := s.Scan(&id, &task.Complete, &task.Description, &priority, &dueDate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return internal.Task{}, internal.WrapErrorf(err, internal.ErrorCodeNotFound, "task not found")
		}

		return internal.Task{}, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "scan task")
	}

	var err error

	if task.ID, err = internal.NewTaskID(uint32(id)); err != nil {
		return internal.Task{}, err
	}

	if task.Priority, err = internal.ParsePriority(priority); err != nil {
		return internal.Task{}, err
	}

	if task.DueDate, err = convertDueDate(dueDate); err != nil {
		return internal.Task{}, err
	}

	return task, nil
}
