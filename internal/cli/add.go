package cli

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sanLimbu/tasksync/internal"
	"github.com/sanLimbu/tasksync/internal/protocol"
)

// AddOptions holds flags for the add command.
type AddOptions struct {
	*RootOptions
	Priority string
	Due      string
	Complete bool
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <description>...",
		Short: "Add a new task",
		Long: `Add a new task.

All arguments are joined into the description.

Example:
  tasksync add -p high -d "2024-05-01 5:00pm" file taxes`,
		Aliases:       []string{"new"},
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return addTask(cmd, opts, strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVarP(&opts.Priority, "priority", "p", "", "priority: lowest, low, medium, high or critical")
	cmd.Flags().StringVarP(&opts.Due, "due", "d", "", "date by which the task should be completed")
	cmd.Flags().BoolVar(&opts.Complete, "complete", false, "mark the task as already completed")

	return cmd
}

func addTask(cmd *cobra.Command, opts *AddOptions, description string) error {
	task := internal.Task{
		Complete:    opts.Complete,
		Description: description,
	}

	if opts.Priority != "" {
		p, err := internal.ParsePriority(opts.Priority)
		if err != nil {
			return err
		}

		task.Priority = p
	}

	if opts.Due != "" {
		due, err := ParseDueDate(opts.Due, time.Local)
		if err != nil {
			return err
		}

		task.DueDate = &due
	}

	if err := task.Validate(); err != nil {
		return err
	}

	_, err := opts.send(cmd.Context(), protocol.Add{Task: task})

	return err
}
