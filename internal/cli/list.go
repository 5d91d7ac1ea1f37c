package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/sanLimbu/tasksync/internal"
	"github.com/sanLimbu/tasksync/internal/protocol"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List all tasks",
		Aliases:       []string{"ls"},
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := rootOpts.send(cmd.Context(), protocol.List{})
			if err != nil {
				return err
			}

			tasks, ok := res.(protocol.Tasks)
			if !ok {
				return internal.NewErrorf(internal.ErrorCodeUnknown, "unexpected response %T", res)
			}

			return printTasks(cmd.OutOrStdout(), tasks, rootOpts.Color, time.Local)
		},
	}
}
