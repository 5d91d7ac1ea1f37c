package cli

import (
	"github.com/spf13/cobra"

	"github.com/sanLimbu/tasksync/internal"
	"github.com/sanLimbu/tasksync/internal/protocol"
)

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "remove <task-id>",
		Short:         "Remove a task, removing a missing task succeeds",
		Aliases:       []string{"rm"},
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := internal.ParseTaskID(args[0])
			if err != nil {
				return err
			}

			_, err = rootOpts.send(cmd.Context(), protocol.Remove{ID: id})

			return err
		},
	}
}
