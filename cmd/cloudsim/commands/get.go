package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGetCommand() *cobra.Command {
	var showResources bool

	cmd := &cobra.Command{
		Use:   "get <stack-name>",
		Short: "Show a stack and its resources",
		Example: `  # Show stack status and outputs
  cloudsim get web

  # Include the resource table
  cloudsim get web --resources`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			stack, err := rt.orchestrator.GetStack(cmd.Context(), accountID, args[0])
			if err != nil {
				return err
			}

			if err := printStack(stack); err != nil {
				return err
			}

			if showResources {
				resources, err := rt.orchestrator.ListStackResources(cmd.Context(), accountID, args[0])
				if err != nil {
					return err
				}
				if !jsonOutput {
					fmt.Println()
				}
				return printResources(resources)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&showResources, "resources", "r", false, "also list stack resources")

	return cmd
}
