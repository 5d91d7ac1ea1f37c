package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createSchema = `-- name: CreateSchema :exec
CREATE TABLE IF NOT EXISTS tasks (
    task_id     INTEGER GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    complete    BOOLEAN NOT NULL DEFAULT FALSE,
    description TEXT    NOT NULL,
    priority    TEXT    NOT NULL DEFAULT 'medium'
                CHECK (priority IN ('lowest', 'low', 'medium', 'high', 'critical')),
    due_date    TIMESTAMPTZ
)
`

func (q *Queries) CreateSchema(ctx context.Context) error {
	_, err := q.db.Exec(ctx, createSchema)
	return err
}

const insertTask = `-- name: InsertTask :one
INSERT INTO tasks (
  complete,
  description,
  priority,
  due_date
)
VALUES (
  $1,
  $2,
  $3,
  $4
)
RETURNING task_id
`

type InsertTaskParams struct {
	Complete    bool
	Description string
	Priority    Priority
	DueDate     pgtype.Timestamptz
}

func (q *Queries) InsertTask(ctx context.Context, arg InsertTaskParams) (int32, error) {
	row := q.db.QueryRow(ctx, insertTask,
		arg.Complete,
		arg.Description,
		arg.Priority,
		arg.DueDate,
	)
	var task_id int32
	err := row.Scan(&task_id)
	return task_id, err
}

const selectTasks = `-- name: SelectTasks :many
SELECT
  task_id,
  complete,
  description,
  priority,
  due_date
FROM
  tasks
ORDER BY
  task_id ASC
`

func (q *Queries) SelectTasks(ctx context.Context) ([]Tasks, error) {
	rows, err := q.db.Query(ctx, selectTasks)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Tasks
	for rows.Next() {
		var i Tasks
		if err := rows.Scan(
			&i.TaskID,
			&i.Complete,
			&i.Description,
			&i.Priority,
			&i.DueDate,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const selectTask = `-- name: SelectTask :one
SELECT
  task_id,
  complete,
  description,
  priority,
  due_date
FROM
  tasks
WHERE
  task_id = $1
LIMIT 1
`

func (q *Queries) SelectTask(ctx context.Context, taskID int32) (Tasks, error) {
	row := q.db.QueryRow(ctx, selectTask, taskID)
	var i Tasks
	err := row.Scan(
		&i.TaskID,
		&i.Complete,
		&i.Description,
		&i.Priority,
		&i.DueDate,
	)
	return i, err
}

const updateTask = `-- name: UpdateTask :execrows
UPDATE tasks SET
  complete    = $1,
  description = $2,
  priority    = $3,
  due_date    = $4
WHERE task_id = $5
`

type UpdateTaskParams struct {
	Complete    bool
	Description string
	Priority    Priority
	DueDate     pgtype.Timestamptz
	TaskID      int32
}

func (q *Queries) UpdateTask(ctx context.Context, arg UpdateTaskParams) (int64, error) {
	result, err := q.db.Exec(ctx, updateTask,
		arg.Complete,
		arg.Description,
		arg.Priority,
		arg.DueDate,
		arg.TaskID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const deleteTask = `-- name: DeleteTask :exec
DELETE FROM
  tasks
WHERE
  task_id = $1
`

func (q *Queries) DeleteTask(ctx context.Context, taskID int32) error {
	_, err := q.db.Exec(ctx, deleteTask, taskID)
	return err
}
