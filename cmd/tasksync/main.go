package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/sanLimbu/tasksync/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := cli.NewRootCommand().ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "tasksync: %s\n", err)
	}

	os.Exit(cli.ExitCode(err))
}
