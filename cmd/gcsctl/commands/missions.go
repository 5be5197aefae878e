package commands

import (
	"fmt"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/groundctl/groundctl/internal/orchestrator/core/model"
)

func newMissionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "missions [ID]",
		Short: "List missions, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient(serverAddr)

			if len(args) == 1 {
				var m model.Mission
				if err := c.get("/api/v1/missions/"+args[0], &m); err != nil {
					return err
				}
				return printJSON(m)
			}

			var missions []*model.Mission
			if err := c.get("/api/v1/missions", &missions); err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(missions)
			}

			table := uitable.New()
			table.AddRow("ID", "NAME", "TYPE", "STATUS", "VEHICLE", "PROGRESS", "DISTANCE")
			for _, m := range missions {
				table.AddRow(m.ID, m.Name, m.Type, m.Status,
					orDash(m.VehicleID),
					fmt.Sprintf("%d/%d", m.Progress.Reached, m.Progress.Total),
					fmt.Sprintf("%.0fm", m.Stats.Distance))
			}
			fmt.Println(table)
			return nil
		},
	}
}
