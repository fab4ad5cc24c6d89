package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newEventsCommand() *cobra.Command {
	var (
		limit  int
		offset int
	)

	cmd := &cobra.Command{
		Use:   "events [stack-name]",
		Short: "Show orchestration events",
		Long: `Show orchestration events, newest first. With a stack name only that
stack's events are shown; without one, events from all stacks.`,
		Example: `  # Last 50 events across all stacks
  cloudsim events

  # Events for one stack
  cloudsim events web --limit 20`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			var stackID *string
			if len(args) == 1 {
				stack, err := rt.orchestrator.GetStack(cmd.Context(), accountID, args[0])
				if err != nil {
					return err
				}
				stackID = &stack.ID
			}

			events, err := rt.store.GetEvents(cmd.Context(), stackID, limit, offset)
			if err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(events)
			}

			if len(events) == 0 {
				fmt.Println("No events.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIMESTAMP\tLEVEL\tRESOURCE\tMESSAGE")
			for _, e := range events {
				logical := "-"
				if e.LogicalID != nil {
					logical = *e.LogicalID
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					e.Timestamp.Format("2006-01-02 15:04:05"), e.Level, logical, e.Message)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of events to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of events to skip")

	return cmd
}
