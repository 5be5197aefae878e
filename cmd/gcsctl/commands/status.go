package commands

import (
	"fmt"
	"sort"
	"time"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/groundctl/groundctl/internal/orchestrator"
)

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show orchestrator status counters",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			var st orchestrator.Status
			if err := newClient(serverAddr).get("/api/v1/status", &st); err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(st)
			}

			table := uitable.New()
			table.AddRow("UPTIME", st.Uptime.Round(time.Second).String())
			table.AddRow("GEOFENCES", fmt.Sprintf("%d (%d active)", st.Geofences, st.ActiveGeofences))
			table.AddRow("WORKFLOWS", st.Workflows)
			table.AddRow("EVENTS", st.EventsProcessed)
			for _, status := range sortedKeys(st.Vehicles) {
				table.AddRow("VEHICLES/"+string(status), st.Vehicles[status])
			}
			for _, status := range sortedKeys(st.Missions) {
				table.AddRow("MISSIONS/"+string(status), st.Missions[status])
			}
			fmt.Println(table)
			return nil
		},
	}
}

func sortedKeys[K ~string, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func newFleetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fleet",
		Short: "Show aggregate fleet statistics",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			var fs orchestrator.FleetStats
			if err := newClient(serverAddr).get("/api/v1/fleet", &fs); err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(fs)
			}

			table := uitable.New()
			table.AddRow("TOTAL", fs.Total)
			table.AddRow("AVG BATTERY", fmt.Sprintf("%.1f%%", fs.AverageBattery))
			for _, typ := range sortedKeys(fs.ByType) {
				table.AddRow("TYPE/"+string(typ), fs.ByType[typ])
			}
			for _, status := range sortedKeys(fs.ByStatus) {
				table.AddRow("STATUS/"+string(status), fs.ByStatus[status])
			}
			fmt.Println(table)
			return nil
		},
	}
}
