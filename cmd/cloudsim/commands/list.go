package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List stacks in the current account",
		Example: `  cloudsim list --account prod`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			stacks, err := rt.orchestrator.ListStacks(cmd.Context(), accountID)
			if err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(stacks)
			}

			if len(stacks) == 0 {
				fmt.Println("No stacks.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSTATUS\tCREATED")
			for _, s := range stacks {
				fmt.Fprintf(w, "%s\t%s\t%s\n", s.Name, s.Status, s.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}

	return cmd
}
