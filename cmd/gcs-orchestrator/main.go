package main

import (
	"os"

	_ "go.uber.org/automaxprocs"

	"github.com/groundctl/groundctl/cmd/gcs-orchestrator/app"
)

func main() {
	if err := app.NewCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
