package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pid-provider/issuerctl/cmd/issuerctl/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := commands.RootCmd.ExecuteContext(ctx); err != nil {
		// A server that ran and exited non-zero has its status passed
		// through verbatim; launcher failures exit 1.
		var exitErr *commands.ExitStatusError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		if _, logErr := fmt.Fprintf(commands.RootCmd.ErrOrStderr(), "Error: %v\n", err); logErr != nil {
			// fall back to fmt.Print output if fmt.Fprintf fails
			fmt.Printf("failed to log error: %v\n", logErr)
		}
		os.Exit(1)
	}
}
