package cli

import (
	"context"
	"errors"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sanLimbu/tasksync/internal"
	"github.com/sanLimbu/tasksync/internal/protocol"
	"github.com/sanLimbu/tasksync/internal/tcp"
)

// Exit codes returned by ExitCode.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitRPCError = 2
)

// Sender sends one message and waits for its response.
type Sender interface {
	Send(ctx context.Context, m protocol.Message) (protocol.Response, error)
	Close() error
}

// DialFunc opens a connection to the task server.
type DialFunc func(ctx context.Context, address string) (Sender, error)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Server  string
	Timeout time.Duration
	Verbose bool
	Color   bool

	dial   DialFunc
	logger *zap.Logger
}

// NewRootCommand creates the root command for the tasksync CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(func(ctx context.Context, address string) (Sender, error) {
		return tcp.Dial(ctx, address)
	})
}

func newRootCommand(dial DialFunc) *cobra.Command {
	opts := &RootOptions{dial: dial, logger: zap.NewNop()}

	cmd := &cobra.Command{
		Use:   "tasksync",
		Short: "Manage tasks stored on a tasksync server",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Verbose {
				logger, err := zap.NewDevelopment()
				if err != nil {
					return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "zap.NewDevelopment")
				}

				opts.logger = logger
			}

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.Server, "server", "s", tcp.DefaultServerURL, "task server URL")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 10*time.Second, "time allowed for the request")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().BoolVar(&opts.Color, "color", !color.NoColor, "colorize output")

	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))

	return cmd
}

// send delivers m to the configured server. An RPCError response is returned as the error.
func (o *RootOptions) send(ctx context.Context, m protocol.Message) (protocol.Response, error) {
	address, err := tcp.ServerAddress(o.Server)
	if err != nil {
		return nil, err
	}

	if o.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}

	logger := o.logger.With(zap.String("server", address), zap.String("message", protocol.MessageName(m)))
	logger.Debug("Connecting")

	client, err := o.dial(ctx, address)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	res, err := client.Send(ctx, m)
	if err != nil {
		logger.Debug("Send failed", zap.Error(err))
		return nil, err
	}

	if rpcErr, ok := res.(protocol.RPCError); ok {
		logger.Debug("Server returned an error", zap.Error(rpcErr))
		return nil, rpcErr
	}

	logger.Debug("Response received")

	return res, nil
}

// ExitCode maps an error returned by a command to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var rpcErr protocol.RPCError
	if errors.As(err, &rpcErr) {
		return ExitRPCError
	}

	return ExitFailure
}
