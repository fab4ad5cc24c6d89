package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/cloudsim/cloudsim/pkg/engine"
	"github.com/cloudsim/cloudsim/pkg/template"
)

// computeState is the persisted form of a simulated compute instance.
type computeState struct {
	InstanceID   string            `json:"instance_id"`
	AccountID    string            `json:"account_id"`
	LogicalID    string            `json:"logical_id"`
	Image        string            `json:"image"`
	InstanceType string            `json:"instance_type"`
	PrivateIP    string            `json:"private_ip"`
	State        string            `json:"state"`
	Tags         map[string]string `json:"tags,omitempty"`
	UserData     string            `json:"user_data,omitempty"`
	LaunchedAt   time.Time         `json:"launched_at"`
}

// ComputeProvider simulates virtual machine instances.
type ComputeProvider struct {
	dataDir   string
	accountID string
}

// NewComputeProvider creates a compute instance provider.
func NewComputeProvider(opts Options) *ComputeProvider {
	return &ComputeProvider{
		dataDir:   filepath.Join(opts.DataDir, "instances"),
		accountID: opts.AccountID,
	}
}

// Kind returns the resource kind this provider handles.
func (p *ComputeProvider) Kind() string {
	return KindComputeInstance
}

// Create launches a simulated instance and returns its identifier.
func (p *ComputeProvider) Create(_ context.Context, logicalID string, props template.Value) (*engine.CreateResult, error) {
	instanceID := "i-" + shortID()
	privateIP := fmt.Sprintf("10.0.%d.%d", rand.Intn(256), 1+rand.Intn(254))

	state := computeState{
		InstanceID:   instanceID,
		AccountID:    p.accountID,
		LogicalID:    logicalID,
		Image:        props.FieldString("ImageId", "ubuntu:22.04"),
		InstanceType: props.FieldString("InstanceType", "t2.micro"),
		PrivateIP:    privateIP,
		State:        "running",
		UserData:     props.FieldString("UserData", ""),
		LaunchedAt:   time.Now().UTC(),
	}

	if tags, ok := props.Field("Tags"); ok && tags.Kind() == template.KindMap {
		state.Tags = make(map[string]string, len(tags.Fields()))
		for k, v := range tags.Fields() {
			state.Tags[k] = v.CoerceString()
		}
	}

	if err := writeState(p.dataDir, instanceID, state); err != nil {
		return nil, err
	}

	return &engine.CreateResult{
		PhysicalID: instanceID,
		Attributes: map[string]string{
			"PrivateIp": privateIP,
			"State":     state.State,
		},
	}, nil
}

// Delete terminates a simulated instance.
func (p *ComputeProvider) Delete(_ context.Context, physicalID string) error {
	return removeState(p.dataDir, physicalID)
}

// Get loads instance state, mostly for tests and inspection tooling.
func (p *ComputeProvider) Get(physicalID string) (*computeState, error) {
	data, err := readState(p.dataDir, physicalID)
	if err != nil {
		return nil, err
	}
	var state computeState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode instance state: %w", err)
	}
	return &state, nil
}
