package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// etl runs the news pipeline, either stage by stage or end to end.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
