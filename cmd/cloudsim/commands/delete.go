package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <stack-name>",
		Short: "Delete a stack and its resources",
		Long: `Delete a stack by removing its resources in reverse creation order,
then marking the stack record as deleted. The stack name becomes
available for reuse afterwards.`,
		Example: `  cloudsim delete web`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			stack, err := rt.orchestrator.DeleteStack(cmd.Context(), accountID, args[0])
			if err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(stack)
			}
			fmt.Printf("Stack %s deleted.\n", args[0])
			return nil
		},
	}

	return cmd
}
