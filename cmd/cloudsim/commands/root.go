package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cloudsim/cloudsim/pkg/engine"
	"github.com/cloudsim/cloudsim/pkg/providers/sim"
	"github.com/cloudsim/cloudsim/pkg/stores"
	"github.com/cloudsim/cloudsim/pkg/telemetry"
)

var (
	// Global flags
	dbPath        string
	dataDir       string
	accountID     string
	logLevel      string
	jsonOutput    bool
	metricsListen string
	traceExporter string
	traceEndpoint string
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cloudsim",
		Short: "CloudSim - Simulated Cloud Stack Orchestrator",
		Long: `CloudSim provisions simulated cloud resources from declarative
stack templates, JSON or YAML.

A template declares resources with properties, explicit DependsOn
dependencies, and implicit Ref / Fn::GetAtt references. CloudSim
computes the dependency order, provisions resources one at a time,
and rolls back created resources in reverse order when a resource
fails.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "cloudsim.db", "SQLite database path")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "cloudsim-data", "directory for simulated resource state")
	rootCmd.PersistentFlags().StringVar(&accountID, "account", "default", "account ID for stack operations")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().StringVar(&metricsListen, "metrics-listen", "", "expose Prometheus metrics on this address (e.g. :9090); empty disables")
	rootCmd.PersistentFlags().StringVar(&traceExporter, "trace-exporter", "none", "trace exporter (none, stdout, otlp)")
	rootCmd.PersistentFlags().StringVar(&traceEndpoint, "trace-endpoint", "localhost:4317", "OTLP gRPC endpoint for the otlp exporter")

	// Add subcommands
	rootCmd.AddCommand(newCreateCommand())
	rootCmd.AddCommand(newDeleteCommand())
	rootCmd.AddCommand(newGetCommand())
	rootCmd.AddCommand(newListCommand())
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newEventsCommand())

	return rootCmd
}

// runtime bundles everything a command needs to talk to the engine.
type runtime struct {
	store        *stores.SQLiteStore
	orchestrator *engine.Orchestrator
	logger       *telemetry.Logger
	tracer       *telemetry.Tracer
}

// setup opens the store, runs migrations, and wires the simulated
// providers into an orchestrator.
func setup(ctx context.Context) (*runtime, error) {
	logger, err := telemetry.NewLogger(telemetry.LoggingConfig{
		Level:  logLevel,
		Format: "console",
		Output: "stderr",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	store, err := stores.NewSQLiteStore(stores.Config{Path: dbPath})
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	registry := engine.NewRegistry()
	if err := sim.Register(registry, sim.Options{DataDir: dataDir, AccountID: accountID}); err != nil {
		_ = store.Close()
		return nil, err
	}

	metrics, err := telemetry.NewMetrics(telemetry.MetricsConfig{
		Enabled:       metricsListen != "",
		ListenAddress: metricsListen,
		Path:          "/metrics",
		Namespace:     "cloudsim",
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if err := metrics.StartMetricsServer(logger); err != nil {
		_ = store.Close()
		return nil, err
	}

	tracer, err := telemetry.NewTracer(telemetry.TracingConfig{
		Enabled:      traceExporter != "" && traceExporter != "none",
		Exporter:     traceExporter,
		Endpoint:     traceEndpoint,
		SamplingRate: 1.0,
		Insecure:     true,
	}, "cloudsim", "dev", "cli")
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &runtime{
		store:        store,
		orchestrator: engine.NewOrchestrator(store, registry, logger, metrics, tracer),
		logger:       logger,
		tracer:       tracer,
	}, nil
}

// Close releases the runtime's resources and flushes pending spans.
func (r *runtime) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.tracer.Shutdown(ctx); err != nil {
		r.logger.WithError(err).Warn("failed to shut down tracer")
	}
	_ = r.store.Close()
}
