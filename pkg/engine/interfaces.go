package engine

import (
	"context"

	"github.com/cloudsim/cloudsim/pkg/stores"
)

// StateStore is the persistence surface the orchestrator needs. The
// SQLite store satisfies it; tests substitute an in-memory fake.
type StateStore interface {
	CreateStack(ctx context.Context, stack *stores.Stack) error
	GetStack(ctx context.Context, accountID, name string) (*stores.Stack, error)
	GetStackByID(ctx context.Context, id string) (*stores.Stack, error)
	ListStacks(ctx context.Context, accountID string) ([]*stores.Stack, error)
	UpdateStackStatus(ctx context.Context, id string, status stores.StackStatus, reason *string) error
	SetStackOutputs(ctx context.Context, id string, outputs string) error

	CreateStackResource(ctx context.Context, res *stores.StackResource) error
	UpdateStackResource(ctx context.Context, id string, status stores.ResourceStatus, physicalID, reason *string) error
	SetStackResourceProperties(ctx context.Context, id string, properties string) error
	ListStackResources(ctx context.Context, stackID string) ([]*stores.StackResource, error)

	AppendEvent(ctx context.Context, event *stores.Event) error
}
