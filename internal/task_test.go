package internal_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanLimbu/tasksync/internal"
)

func TestNewTaskID(t *testing.T) {
	t.Parallel()

	_, err := internal.NewTaskID(0)
	require.Error(t, err)

	var ierr *internal.Error
	require.True(t, errors.As(err, &ierr))
	assert.Equal(t, internal.ErrorCodeInvalidArgument, ierr.Code())

	id, err := internal.NewTaskID(42)
	require.NoError(t, err)
	assert.Equal(t, internal.TaskID(42), id)
}

func TestParseTaskID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		output  internal.TaskID
		withErr bool
	}{
		{"OK", "7", 7, false},
		{"OK: spaces", " 12 ", 12, false},
		{"ERR: zero", "0", 0, true},
		{"ERR: negative", "-1", 0, true},
		{"ERR: overflow", "4294967296", 0, true},
		{"ERR: not a number", "seven", 0, true},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			id, err := internal.ParseTaskID(tt.input)
			if tt.withErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.output, id)
		})
	}
}

func TestTaskID_JSON(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(internal.TaskID(0))
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))

	b, err = json.Marshal(internal.TaskID(3))
	require.NoError(t, err)
	assert.Equal(t, "3", string(b))

	var id internal.TaskID
	require.NoError(t, json.Unmarshal([]byte("5"), &id))
	assert.Equal(t, internal.TaskID(5), id)

	require.NoError(t, json.Unmarshal([]byte("null"), &id))
	assert.Equal(t, internal.TaskID(0), id)

	assert.Error(t, json.Unmarshal([]byte("0"), &id))
	assert.Error(t, json.Unmarshal([]byte(`"5"`), &id))
}

func TestPriority_Order(t *testing.T) {
	t.Parallel()

	var zero internal.Priority
	assert.Equal(t, internal.PriorityMedium, zero)

	priorities := internal.Priorities()
	for i := 1; i < len(priorities); i++ {
		assert.Less(t, priorities[i-1], priorities[i])
	}
}

func TestParsePriority(t *testing.T) {
	t.Parallel()

	for _, p := range internal.Priorities() {
		res, err := internal.ParsePriority(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, res)

		res, err = internal.ParsePriority(strings.ToUpper(p.String()))
		require.NoError(t, err)
		assert.Equal(t, p, res)
	}

	_, err := internal.ParsePriority("urgent")
	require.Error(t, err)

	var perr *internal.UnknownPriorityError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "urgent", perr.Value)
}

func TestPriority_Validate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, internal.PriorityCritical.Validate())
	assert.Error(t, internal.Priority(-3).Validate())
	assert.Error(t, internal.Priority(3).Validate())
}

func TestPriority_JSON(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(internal.PriorityHigh)
	require.NoError(t, err)
	assert.Equal(t, `"High"`, string(b))

	var p internal.Priority
	require.NoError(t, json.Unmarshal([]byte(`"lowest"`), &p))
	assert.Equal(t, internal.PriorityLowest, p)

	err = json.Unmarshal([]byte(`"Urgent"`), &p)

	var perr *internal.UnknownPriorityError
	require.True(t, errors.As(err, &perr))

	_, err = json.Marshal(internal.Priority(9))
	assert.Error(t, err)
}

func TestTask_JSON(t *testing.T) {
	t.Parallel()

	due := time.Date(2024, 5, 1, 17, 30, 0, 0, time.UTC)

	b, err := json.Marshal(internal.Task{
		Description: "buy milk",
		DueDate:     &due,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":null,"complete":false,"description":"buy milk","priority":"Medium","due_date":"2024-05-01T17:30:00Z"}`, string(b))

	var task internal.Task
	require.NoError(t, json.Unmarshal([]byte(`{"id":9,"complete":true,"description":"x","priority":"Low","due_date":null}`), &task))
	assert.Equal(t, internal.Task{ID: 9, Complete: true, Description: "x", Priority: internal.PriorityLow}, task)
}

func TestTask_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   internal.Task
		withErr bool
	}{
		{
			"OK",
			internal.Task{Description: "complete this microservice", Priority: internal.PriorityHigh},
			false,
		},
		{
			"ERR: description",
			internal.Task{Priority: internal.PriorityHigh},
			true,
		},
		{
			"ERR: description too long",
			internal.Task{Description: strings.Repeat("a", internal.MaxDescriptionLength+1)},
			true,
		},
		{
			"OK: description at the limit",
			internal.Task{Description: strings.Repeat("a", internal.MaxDescriptionLength)},
			false,
		},
		{
			"ERR: multi-byte description over the byte limit",
			internal.Task{Description: strings.Repeat("é", internal.MaxDescriptionLength/2+1)},
			true,
		},
		{
			"ERR: priority",
			internal.Task{Description: "complete this microservice", Priority: internal.Priority(-1 << 7)},
			true,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.input.Validate()
			if !tt.withErr {
				assert.NoError(t, err)
				return
			}

			var ierr *internal.Error
			require.True(t, errors.As(err, &ierr))
			assert.Equal(t, internal.ErrorCodeInvalidArgument, ierr.Code())
		})
	}
}
