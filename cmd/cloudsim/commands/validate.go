package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cloudsim/cloudsim/pkg/engine"
	"github.com/cloudsim/cloudsim/pkg/providers/sim"
	"github.com/cloudsim/cloudsim/pkg/telemetry"
)

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <template-file>",
		Short: "Validate a template without creating anything",
		Long: `Validate a template: check the format, the resource declarations,
and the dependency graph. No stack record is created and no database
file is touched.`,
		Example: `  cloudsim validate web.json
  cloudsim validate web.yaml --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read template: %w", err)
			}

			logger, err := telemetry.NewLogger(telemetry.LoggingConfig{
				Level:  logLevel,
				Format: "console",
				Output: "stderr",
			})
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}

			registry := engine.NewRegistry()
			if err := sim.Register(registry, sim.Options{DataDir: dataDir, AccountID: accountID}); err != nil {
				return err
			}

			metrics, err := telemetry.NewMetrics(telemetry.MetricsConfig{Enabled: false})
			if err != nil {
				return err
			}
			tracer, err := telemetry.NewTracer(telemetry.TracingConfig{Enabled: false}, "cloudsim", "dev", "cli")
			if err != nil {
				return err
			}

			// Validation never reads or writes stack state, so no
			// store is wired in.
			orchestrator := engine.NewOrchestrator(nil, registry, logger, metrics, tracer)
			result := orchestrator.ValidateTemplate(string(body))

			if jsonOutput {
				if err := printJSON(result); err != nil {
					return err
				}
			} else if result.Valid {
				fmt.Printf("Template is valid (%s).\n", result.Format)
				if len(result.Parameters) > 0 {
					fmt.Println("Parameters:")
					for _, p := range result.Parameters {
						line := fmt.Sprintf("  %s (%s)", p.Name, p.Type)
						if p.HasDefault {
							line += " [default]"
						}
						fmt.Println(line)
					}
				}
				if len(result.ResourceKinds) > 0 {
					fmt.Println("Resource kinds:")
					for _, kind := range result.ResourceKinds {
						fmt.Printf("  %s\n", kind)
					}
				}
			} else {
				fmt.Printf("Template is invalid: %s\n", result.Error)
			}

			if !result.Valid {
				return fmt.Errorf("template validation failed")
			}
			return nil
		},
	}

	return cmd
}
