package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanLimbu/tasksync/internal"
	"github.com/sanLimbu/tasksync/internal/protocol"
)

func TestUpdateCommand(t *testing.T) {
	t.Parallel()

	due, err := ParseDueDate("2024-05-01", time.Local)
	require.NoError(t, err)

	tests := []struct {
		name string
		args []string
		want internal.TaskDelta
	}{
		{
			"complete",
			[]string{"update", "4", "--complete"},
			internal.TaskDelta{Complete: internal.Changed(true)},
		},
		{
			"reopen",
			[]string{"update", "4", "--complete=false"},
			internal.TaskDelta{Complete: internal.Changed(false)},
		},
		{
			"description and priority",
			[]string{"update", "4", "--description", "call mum", "-p", "Lowest"},
			internal.TaskDelta{
				Description: internal.Changed("call mum"),
				Priority:    internal.Changed(internal.PriorityLowest),
			},
		},
		{
			"due date",
			[]string{"update", "4", "-d", "2024-05-01"},
			internal.TaskDelta{DueDate: internal.Changed(&due)},
		},
		{
			"clear due date",
			[]string{"update", "4", "--clear-due"},
			internal.TaskDelta{DueDate: internal.Changed[*time.Time](nil)},
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sender := &fakeSender{}

			_, err := execute(t, sender, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, protocol.Update{ID: 4, Delta: tt.want}, lastSent(t, sender))
		})
	}
}

func TestUpdateCommand_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
	}{
		{"missing id", []string{"update", "--complete"}},
		{"zero id", []string{"update", "0", "--complete"}},
		{"nothing to update", []string{"update", "4"}},
		{"empty description", []string{"update", "4", "--description", ""}},
		{"unknown priority", []string{"update", "4", "-p", "urgent"}},
		{"due and clear", []string{"update", "4", "-d", "2024-05-01", "--clear-due"}},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sender := &fakeSender{}

			_, err := execute(t, sender, tt.args...)
			require.Error(t, err)
			assert.Empty(t, sender.sent)
		})
	}
}

func TestUpdateCommand_Missing(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{res: protocol.TaskDoesntExist(9)}

	_, err := execute(t, sender, "update", "9", "-c")
	require.Error(t, err)
	assert.Equal(t, ExitRPCError, ExitCode(err))
	assert.Equal(t, "task 9 does not exist", err.Error())
}

func TestRemoveCommand(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{}

	_, err := execute(t, sender, "rm", "12")
	require.NoError(t, err)
	assert.Equal(t, protocol.Remove{ID: 12}, lastSent(t, sender))

	_, err = execute(t, sender, "remove", "twelve")
	require.Error(t, err)
	assert.Len(t, sender.sent, 1)
}
