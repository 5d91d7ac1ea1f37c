package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/sanLimbu/tasksync/internal"
	"github.com/sanLimbu/tasksync/internal/protocol"
)

// UpdateOptions holds flags for the update command. Only flags given on the command line are
// sent, everything else is left unchanged.
type UpdateOptions struct {
	*RootOptions
	Complete    bool
	Description string
	Priority    string
	Due         string
	ClearDue    bool
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UpdateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "update <task-id>",
		Short: "Change fields of an existing task",
		Long: `Change fields of an existing task.

Example:
  tasksync update 4 --complete
  tasksync update 7 -p critical --clear-due`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := internal.ParseTaskID(args[0])
			if err != nil {
				return err
			}

			delta, err := opts.delta(cmd)
			if err != nil {
				return err
			}

			_, err = opts.send(cmd.Context(), protocol.Update{ID: id, Delta: delta})

			return err
		},
	}

	cmd.Flags().BoolVarP(&opts.Complete, "complete", "c", false, "mark the task as completed, --complete=false reopens it")
	cmd.Flags().StringVar(&opts.Description, "description", "", "new description")
	cmd.Flags().StringVarP(&opts.Priority, "priority", "p", "", "new priority")
	cmd.Flags().StringVarP(&opts.Due, "due", "d", "", "new due date")
	cmd.Flags().BoolVar(&opts.ClearDue, "clear-due", false, "remove the due date")

	cmd.MarkFlagsMutuallyExclusive("due", "clear-due")

	return cmd
}

func (o *UpdateOptions) delta(cmd *cobra.Command) (internal.TaskDelta, error) {
	var delta internal.TaskDelta

	flags := cmd.Flags()

	if flags.Changed("complete") {
		delta.Complete = internal.Changed(o.Complete)
	}

	if flags.Changed("description") {
		delta.Description = internal.Changed(o.Description)
	}

	if flags.Changed("priority") {
		p, err := internal.ParsePriority(o.Priority)
		if err != nil {
			return internal.TaskDelta{}, err
		}

		delta.Priority = internal.Changed(p)
	}

	if flags.Changed("due") {
		due, err := ParseDueDate(o.Due, time.Local)
		if err != nil {
			return internal.TaskDelta{}, err
		}

		delta.DueDate = internal.Changed(&due)
	}

	if o.ClearDue {
		delta.DueDate = internal.Changed[*time.Time](nil)
	}

	if delta.IsZero() {
		return internal.TaskDelta{}, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "nothing to update")
	}

	if err := delta.Validate(); err != nil {
		return internal.TaskDelta{}, err
	}

	return delta, nil
}
