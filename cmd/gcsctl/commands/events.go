package commands

import (
	"fmt"
	"time"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/groundctl/groundctl/internal/orchestrator/core/model"
)

func newEventsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show the most recent orchestrator events",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			var events []model.Event
			path := fmt.Sprintf("/api/v1/events?limit=%d", limit)
			if err := newClient(serverAddr).get(path, &events); err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(events)
			}

			table := uitable.New()
			table.MaxColWidth = 60
			table.AddRow("SEQ", "TIME", "KIND", "SUBJECT", "PAYLOAD")
			for _, e := range events {
				table.AddRow(e.Seq, e.Timestamp.Format(time.RFC3339), e.Kind, e.Subject, string(e.Payload))
			}
			fmt.Println(table)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of events to show")
	return cmd
}
