package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cloudsim/cloudsim/pkg/engine"
)

// parseKeyValues splits repeated key=value flags into a map.
func parseKeyValues(pairs []string, flag string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid --%s value %q, expected key=value", flag, pair)
		}
		out[key] = value
	}
	return out, nil
}

func newCreateCommand() *cobra.Command {
	var (
		templatePath    string
		parameters      []string
		tags            []string
		disableRollback bool
	)

	cmd := &cobra.Command{
		Use:   "create <stack-name>",
		Short: "Create a stack from a template",
		Long: `Create a stack by provisioning every resource a template declares,
in dependency order. If a resource fails, resources created so far are
deleted in reverse order unless --disable-rollback is set.`,
		Example: `  # Create a stack from a JSON template
  cloudsim create web --template web.json

  # Override a template parameter
  cloudsim create web --template web.yaml --parameter Env=prod

  # Keep partially created resources on failure
  cloudsim create web --template web.json --disable-rollback`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := os.ReadFile(templatePath)
			if err != nil {
				return fmt.Errorf("failed to read template: %w", err)
			}

			params, err := parseKeyValues(parameters, "parameter")
			if err != nil {
				return err
			}
			tagMap, err := parseKeyValues(tags, "tag")
			if err != nil {
				return err
			}

			rt, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			stack, err := rt.orchestrator.CreateStack(cmd.Context(), engine.CreateStackInput{
				AccountID:       accountID,
				StackName:       args[0],
				TemplateBody:    string(body),
				Parameters:      params,
				Tags:            tagMap,
				DisableRollback: disableRollback,
			})
			if err != nil {
				// A rolled back or failed stack still has a record
				// worth showing.
				if stack != nil {
					_ = printStack(stack)
				}
				return err
			}

			return printStack(stack)
		},
	}

	cmd.Flags().StringVarP(&templatePath, "template", "t", "", "template file path (required)")
	cmd.Flags().StringArrayVarP(&parameters, "parameter", "p", nil, "template parameter as key=value (repeatable)")
	cmd.Flags().StringArrayVar(&tags, "tag", nil, "stack tag as key=value (repeatable)")
	cmd.Flags().BoolVar(&disableRollback, "disable-rollback", false, "keep created resources when provisioning fails")
	_ = cmd.MarkFlagRequired("template")

	return cmd
}
