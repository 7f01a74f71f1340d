package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"crmdash/cmd"
)

// version is set at build time via -ldflags
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx, version); err != nil {
		stop()
		os.Exit(1)
	}
}
