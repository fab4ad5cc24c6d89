// Package telemetry provides observability for the CloudSim stack
// orchestrator: structured logging with zerolog, Prometheus metrics,
// and OpenTelemetry tracing with pluggable exporters.
package telemetry
