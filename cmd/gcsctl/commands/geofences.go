package commands

import (
	"fmt"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/groundctl/groundctl/internal/orchestrator/core/model"
)

func newGeofencesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "geofences [NAME]",
		Short: "List geofence zones, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient(serverAddr)

			if len(args) == 1 {
				var z model.Geofence
				if err := c.get("/api/v1/geofences/"+args[0], &z); err != nil {
					return err
				}
				return printJSON(z)
			}

			var zones []*model.Geofence
			if err := c.get("/api/v1/geofences", &zones); err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(zones)
			}

			table := uitable.New()
			table.AddRow("NAME", "KIND", "PRIORITY", "VERTICES", "ALT BAND", "ACTIVE")
			for _, z := range zones {
				table.AddRow(z.Name, z.Kind, z.Priority, len(z.Polygon),
					fmt.Sprintf("%.0f-%.0fm", z.MinAltitude, z.MaxAltitude),
					z.Active)
			}
			fmt.Println(table)
			return nil
		},
	}
}
