package internal_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanLimbu/tasksync/internal"
)

func TestDelta_Apply(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "old", internal.Unchanged[string]().Apply("old"))
	assert.Equal(t, "new", internal.Changed("new").Apply("old"))
	assert.Equal(t, "", internal.Changed("").Apply("old"))
	assert.False(t, internal.Changed(false).Apply(true))

	var zero internal.Delta[int]
	assert.False(t, zero.IsChanged())
	assert.Equal(t, 3, zero.Apply(3))

	v, ok := internal.Changed(4).Value()
	assert.True(t, ok)
	assert.Equal(t, 4, v)
}

func TestDelta_JSON(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(internal.Unchanged[bool]())
	require.NoError(t, err)
	assert.Equal(t, `"Unchanged"`, string(b))

	b, err = json.Marshal(internal.Changed(true))
	require.NoError(t, err)
	assert.Equal(t, `{"Changed":true}`, string(b))

	b, err = json.Marshal(internal.Changed[*time.Time](nil))
	require.NoError(t, err)
	assert.Equal(t, `{"Changed":null}`, string(b))

	var d internal.Delta[*time.Time]
	require.NoError(t, json.Unmarshal([]byte(`{"Changed":null}`), &d))
	v, ok := d.Value()
	assert.True(t, ok)
	assert.Nil(t, v)

	require.NoError(t, json.Unmarshal([]byte(`"Unchanged"`), &d))
	assert.False(t, d.IsChanged())

	var s internal.Delta[string]
	assert.Error(t, json.Unmarshal([]byte(`"Changed"`), &s))
	assert.Error(t, json.Unmarshal([]byte(`{"Changd":"x"}`), &s))
	assert.Error(t, json.Unmarshal([]byte(`{"Changed":1}`), &s))

	var p internal.Delta[internal.Priority]
	err = json.Unmarshal([]byte(`{"Changed":"Whenever"}`), &p)

	var perr *internal.UnknownPriorityError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "Whenever", perr.Value)
}

func TestTaskDelta_ApplyTo(t *testing.T) {
	t.Parallel()

	due := time.Date(2030, 1, 2, 3, 4, 0, 0, time.UTC)
	newDue := due.Add(48 * time.Hour)

	task := internal.Task{
		ID:          1,
		Description: "buy milk",
		Priority:    internal.PriorityLow,
		DueDate:     &due,
	}

	t.Run("all unchanged", func(t *testing.T) {
		t.Parallel()

		var delta internal.TaskDelta

		assert.True(t, delta.IsZero())
		assert.Equal(t, task, delta.ApplyTo(task))
	})

	t.Run("all changed", func(t *testing.T) {
		t.Parallel()

		delta := internal.TaskDelta{
			Complete:    internal.Changed(true),
			Description: internal.Changed("buy oat milk"),
			Priority:    internal.Changed(internal.PriorityCritical),
			DueDate:     internal.Changed(&newDue),
		}

		assert.False(t, delta.IsZero())
		assert.Equal(t, internal.Task{
			ID:          1,
			Complete:    true,
			Description: "buy oat milk",
			Priority:    internal.PriorityCritical,
			DueDate:     &newDue,
		}, delta.ApplyTo(task))
	})

	t.Run("clear due date", func(t *testing.T) {
		t.Parallel()

		delta := internal.TaskDelta{DueDate: internal.Changed[*time.Time](nil)}

		res := delta.ApplyTo(task)
		assert.Nil(t, res.DueDate)
		assert.NotNil(t, task.DueDate)
		assert.Equal(t, task.Description, res.Description)
	})

	t.Run("falsy values are applied", func(t *testing.T) {
		t.Parallel()

		done := task
		done.Complete = true

		delta := internal.TaskDelta{Complete: internal.Changed(false)}
		assert.False(t, delta.ApplyTo(done).Complete)
	})
}

func TestTaskDelta_JSON(t *testing.T) {
	t.Parallel()

	var delta internal.TaskDelta
	require.NoError(t, json.Unmarshal([]byte(`{"complete":{"Changed":true},"due_date":{"Changed":null}}`), &delta))

	assert.True(t, delta.Complete.Apply(false))
	assert.False(t, delta.Description.IsChanged())
	assert.False(t, delta.Priority.IsChanged())
	assert.True(t, delta.DueDate.IsChanged())

	b, err := json.Marshal(internal.TaskDelta{Priority: internal.Changed(internal.PriorityLow)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"complete":"Unchanged","description":"Unchanged","priority":{"Changed":"Low"},"due_date":"Unchanged"}`, string(b))
}

func TestTaskDelta_Validate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, internal.TaskDelta{}.Validate())
	assert.NoError(t, internal.TaskDelta{Description: internal.Changed("x")}.Validate())
	assert.Error(t, internal.TaskDelta{Description: internal.Changed("")}.Validate())
}
