package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackzampolin/lessonkit/internal/failure"
)

func main() {
	// Cancel in-flight completion calls on Ctrl-C
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 when the request or static configuration is at fault and 1
// for everything that failed while running.
func exitCode(err error) int {
	switch failure.KindOf(err) {
	case failure.KindPrecondition, failure.KindConfiguration:
		return 2
	default:
		return 1
	}
}
