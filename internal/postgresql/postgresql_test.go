package postgresql

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanLimbu/tasksync/internal"
	"github.com/sanLimbu/tasksync/internal/postgresql/db"
)

func TestPriority_Conversion(t *testing.T) {
	t.Parallel()

	for _, p := range internal.Priorities() {
		res, err := convertPriority(newPriority(p))
		require.NoError(t, err)
		assert.Equal(t, p, res)
		assert.Equal(t, p.String(), string(newPriority(p)))
	}

	_, err := convertPriority("urgent")
	assert.Error(t, err)
}

func TestConvertTask(t *testing.T) {
	t.Parallel()

	due := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	task, err := convertTask(db.Tasks{
		TaskID:      3,
		Complete:    true,
		Description: "water plants",
		Priority:    db.PriorityHigh,
		DueDate:     newTimestamptz(&due),
	})
	require.NoError(t, err)
	assert.Equal(t, internal.Task{
		ID:          3,
		Complete:    true,
		Description: "water plants",
		Priority:    internal.PriorityHigh,
		DueDate:     &due,
	}, task)

	task, err = convertTask(db.Tasks{TaskID: 4, Description: "no date", Priority: db.PriorityMedium})
	require.NoError(t, err)
	assert.Nil(t, task.DueDate)

	_, err = convertTask(db.Tasks{TaskID: 0, Priority: db.PriorityMedium})
	assert.Error(t, err)
}

func TestNewTimestamptz(t *testing.T) {
	t.Parallel()

	assert.Equal(t, pgtype.Timestamptz{}, newTimestamptz(nil))
	assert.Nil(t, convertTimestamptz(pgtype.Timestamptz{}))
}
