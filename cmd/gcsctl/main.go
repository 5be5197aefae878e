package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/groundctl/groundctl/cmd/gcsctl/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := commands.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
