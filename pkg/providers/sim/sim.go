// Package sim implements simulated resource providers for the CloudSim
// stack orchestrator. Each provider persists its resources as state
// under a local data directory: compute instances, databases, and
// functions as JSON documents, buckets as real directories that can
// hold objects.
package sim

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/cloudsim/cloudsim/pkg/engine"
)

// Resource kinds handled by the simulated providers.
const (
	KindComputeInstance  = "CloudSim::Compute::Instance"
	KindStorageBucket    = "CloudSim::Storage::Bucket"
	KindDatabaseInstance = "CloudSim::Database::Instance"
	KindFunction         = "CloudSim::Serverless::Function"
)

// Options configures the simulated providers.
type Options struct {
	// DataDir is the root directory for simulated resource state.
	DataDir string

	// AccountID scopes generated identifiers such as ARNs.
	AccountID string
}

// Register registers all simulated providers with a registry.
func Register(reg *engine.Registry, opts Options) error {
	if opts.DataDir == "" {
		return fmt.Errorf("data directory is required")
	}

	providers := []engine.Provider{
		NewComputeProvider(opts),
		NewBucketProvider(opts),
		NewDatabaseProvider(opts),
		NewFunctionProvider(opts),
	}
	for _, p := range providers {
		if err := reg.Register(p); err != nil {
			return err
		}
	}
	return nil
}

// shortID returns an 8-character random suffix for generated names.
func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// writeState persists a resource document as JSON under dir/<id>.json.
func writeState(dir, id string, state interface{}) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	path := filepath.Join(dir, id+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	return nil
}

// readState loads a resource document.
func readState(dir, id string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(dir, id+".json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read state: %w", err)
	}
	return data, nil
}

// removeState deletes a resource document. A missing document is not
// an error, so deletes stay idempotent.
func removeState(dir, id string) error {
	path := filepath.Join(dir, id+".json")
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove state: %w", err)
	}
	return nil
}
