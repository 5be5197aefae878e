// Package commands implements the gcsctl command tree.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	serverAddr string
	jsonOutput bool
)

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return newRootCommand().ExecuteContext(ctx)
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gcsctl",
		Short: "Command-line client for the GCS orchestrator",
		Long: `gcsctl inspects and drives a running GCS orchestrator over its HTTP API:
fleet and mission state, geofence zones, and the recent event log.`,
		SilenceUsage: true,
	}

	defaultServer := os.Getenv("GCSCTL_SERVER")
	if defaultServer == "" {
		defaultServer = "http://127.0.0.1:8080"
	}
	rootCmd.PersistentFlags().StringVarP(&serverAddr, "server", "s", defaultServer, "orchestrator HTTP address")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print raw JSON instead of tables")

	rootCmd.AddCommand(newStatusCommand())
	rootCmd.AddCommand(newVehiclesCommand())
	rootCmd.AddCommand(newMissionsCommand())
	rootCmd.AddCommand(newGeofencesCommand())
	rootCmd.AddCommand(newEventsCommand())
	rootCmd.AddCommand(newFleetCommand())

	return rootCmd
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
