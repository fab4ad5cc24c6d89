package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/cloudsim/cloudsim/pkg/engine"
	"github.com/cloudsim/cloudsim/pkg/template"
)

// functionState is the persisted form of a simulated function.
type functionState struct {
	FunctionName string            `json:"function_name"`
	AccountID    string            `json:"account_id"`
	LogicalID    string            `json:"logical_id"`
	Runtime      string            `json:"runtime"`
	Handler      string            `json:"handler"`
	Role         string            `json:"role"`
	Timeout      float64           `json:"timeout"`
	MemorySize   float64           `json:"memory_size"`
	Environment  map[string]string `json:"environment,omitempty"`
	Arn          string            `json:"arn"`
	CreatedAt    time.Time         `json:"created_at"`
}

// FunctionProvider simulates serverless functions.
type FunctionProvider struct {
	dataDir   string
	accountID string
}

// NewFunctionProvider creates a serverless function provider.
func NewFunctionProvider(opts Options) *FunctionProvider {
	return &FunctionProvider{
		dataDir:   filepath.Join(opts.DataDir, "functions"),
		accountID: opts.AccountID,
	}
}

// Kind returns the resource kind this provider handles.
func (p *FunctionProvider) Kind() string {
	return KindFunction
}

// Create provisions a simulated function. The function name doubles as
// the physical identifier.
func (p *FunctionProvider) Create(_ context.Context, logicalID string, props template.Value) (*engine.CreateResult, error) {
	name := props.FieldString("FunctionName", "sim-fn-"+shortID())
	arn := fmt.Sprintf("arn:cloudsim:serverless:%s:function/%s", p.accountID, name)

	state := functionState{
		FunctionName: name,
		AccountID:    p.accountID,
		LogicalID:    logicalID,
		Runtime:      props.FieldString("Runtime", "python3.11"),
		Handler:      props.FieldString("Handler", "index.handler"),
		Role:         props.FieldString("Role", fmt.Sprintf("arn:cloudsim:iam:%s:role/function-role", p.accountID)),
		Timeout:      3,
		MemorySize:   128,
		Arn:          arn,
		CreatedAt:    time.Now().UTC(),
	}

	if v, ok := props.Field("Timeout"); ok && v.Kind() == template.KindNumber {
		state.Timeout = v.NumberVal()
	}
	if v, ok := props.Field("MemorySize"); ok && v.Kind() == template.KindNumber {
		state.MemorySize = v.NumberVal()
	}

	if env, ok := props.Field("Environment"); ok {
		if vars, ok := env.Field("Variables"); ok && vars.Kind() == template.KindMap {
			state.Environment = make(map[string]string, len(vars.Fields()))
			for k, v := range vars.Fields() {
				state.Environment[k] = v.CoerceString()
			}
		}
	}

	if err := writeState(p.dataDir, name, state); err != nil {
		return nil, err
	}

	return &engine.CreateResult{
		PhysicalID: name,
		Attributes: map[string]string{
			"Arn": arn,
		},
	}, nil
}

// Delete removes a simulated function.
func (p *FunctionProvider) Delete(_ context.Context, physicalID string) error {
	return removeState(p.dataDir, physicalID)
}

// Get loads function state, mostly for tests and inspection tooling.
func (p *FunctionProvider) Get(physicalID string) (*functionState, error) {
	data, err := readState(p.dataDir, physicalID)
	if err != nil {
		return nil, err
	}
	var state functionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode function state: %w", err)
	}
	return &state, nil
}
