package commands

import (
	"fmt"
	"time"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/groundctl/groundctl/internal/orchestrator/core/model"
)

func newVehiclesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "vehicles [ID]",
		Short: "List registered vehicles, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient(serverAddr)

			if len(args) == 1 {
				var v model.Vehicle
				if err := c.get("/api/v1/vehicles/"+args[0], &v); err != nil {
					return err
				}
				return printJSON(v)
			}

			var vehicles []*model.Vehicle
			if err := c.get("/api/v1/vehicles", &vehicles); err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(vehicles)
			}

			table := uitable.New()
			table.AddRow("ID", "TYPE", "STATUS", "BATTERY", "MISSION", "LAST SEEN")
			for _, v := range vehicles {
				table.AddRow(v.ID, v.Type, v.Status,
					fmt.Sprintf("%.0f%%", v.Battery),
					orDash(v.MissionID),
					v.LastSeen.Format(time.RFC3339))
			}
			fmt.Println(table)
			return nil
		},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
