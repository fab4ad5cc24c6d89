package stores

import (
	"context"
	"fmt"
	"time"
)

// StackStatus represents the lifecycle state of a stack.
type StackStatus string

const (
	// StackStatusCreating indicates the provisioning pass is running.
	StackStatusCreating StackStatus = "CREATING"

	// StackStatusComplete indicates all resources were provisioned and
	// outputs resolved.
	StackStatusComplete StackStatus = "COMPLETE"

	// StackStatusFailed indicates provisioning failed with rollback
	// disabled. Terminal.
	StackStatusFailed StackStatus = "FAILED"

	// StackStatusRollingBack indicates created resources are being
	// deleted after a mid-plan failure.
	StackStatusRollingBack StackStatus = "ROLLING_BACK"

	// StackStatusRolledBack indicates the rollback walk finished.
	// Individual resources may still be DELETE_FAILED.
	StackStatusRolledBack StackStatus = "ROLLED_BACK"

	// StackStatusDeleting indicates an explicit teardown is running.
	StackStatusDeleting StackStatus = "DELETING"

	// StackStatusDeleted indicates the stack was torn down. The record
	// is never removed; this terminal status is set instead.
	StackStatusDeleted StackStatus = "DELETED"
)

// IsTerminal returns true if the status represents a final state.
func (s StackStatus) IsTerminal() bool {
	return s == StackStatusComplete || s == StackStatusFailed ||
		s == StackStatusRolledBack || s == StackStatusDeleted
}

// Validate checks if the stack status is valid.
func (s StackStatus) Validate() error {
	switch s {
	case StackStatusCreating, StackStatusComplete, StackStatusFailed,
		StackStatusRollingBack, StackStatusRolledBack,
		StackStatusDeleting, StackStatusDeleted:
		return nil
	default:
		return fmt.Errorf("invalid stack status: %s", s)
	}
}

// ResourceStatus represents the per-resource provisioning state.
type ResourceStatus string

const (
	// ResourceStatusPending indicates the resource is in the plan but
	// its provisioning attempt has not started.
	ResourceStatusPending ResourceStatus = "PENDING"

	// ResourceStatusCreating indicates the provider call is in flight.
	ResourceStatusCreating ResourceStatus = "CREATING"

	// ResourceStatusCreateComplete indicates the provider returned a
	// physical identifier.
	ResourceStatusCreateComplete ResourceStatus = "CREATE_COMPLETE"

	// ResourceStatusCreateFailed indicates the provider call failed.
	ResourceStatusCreateFailed ResourceStatus = "CREATE_FAILED"

	// ResourceStatusDeleting indicates the resource is being deleted
	// during rollback or teardown.
	ResourceStatusDeleting ResourceStatus = "DELETING"

	// ResourceStatusDeleteComplete indicates the resource was deleted.
	ResourceStatusDeleteComplete ResourceStatus = "DELETE_COMPLETE"

	// ResourceStatusDeleteFailed indicates deletion failed. Rollback
	// continues past it; the status flags residual manual cleanup.
	ResourceStatusDeleteFailed ResourceStatus = "DELETE_FAILED"
)

// IsTerminal returns true if the status represents a final state.
func (s ResourceStatus) IsTerminal() bool {
	return s == ResourceStatusCreateComplete || s == ResourceStatusCreateFailed ||
		s == ResourceStatusDeleteComplete || s == ResourceStatusDeleteFailed
}

// Validate checks if the resource status is valid.
func (s ResourceStatus) Validate() error {
	switch s {
	case ResourceStatusPending, ResourceStatusCreating,
		ResourceStatusCreateComplete, ResourceStatusCreateFailed,
		ResourceStatusDeleting, ResourceStatusDeleteComplete,
		ResourceStatusDeleteFailed:
		return nil
	default:
		return fmt.Errorf("invalid resource status: %s", s)
	}
}

// EventLevel represents the severity level of an event.
type EventLevel string

const (
	EventLevelDebug   EventLevel = "debug"
	EventLevelInfo    EventLevel = "info"
	EventLevelWarning EventLevel = "warning"
	EventLevelError   EventLevel = "error"
)

// Stack represents a provisioned (or provisioning) stack record.
type Stack struct {
	ID              string      `json:"id"`
	AccountID       string      `json:"account_id"`
	Name            string      `json:"name"`
	Status          StackStatus `json:"status"`
	StatusReason    *string     `json:"status_reason,omitempty"`
	TemplateBody    string      `json:"template_body"`
	TemplateFormat  string      `json:"template_format"`
	Parameters      string      `json:"parameters"` // JSON blob
	Outputs         *string     `json:"outputs,omitempty"`
	Tags            string      `json:"tags"` // JSON blob
	DisableRollback bool        `json:"disable_rollback"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
	DeletedAt       *time.Time  `json:"deleted_at,omitempty"`
}

// StackResource represents one logical resource within a stack.
type StackResource struct {
	ID           string         `json:"id"`
	StackID      string         `json:"stack_id"`
	LogicalID    string         `json:"logical_id"`
	Kind         string         `json:"kind"`
	Status       ResourceStatus `json:"status"`
	StatusReason *string        `json:"status_reason,omitempty"`
	PhysicalID   *string        `json:"physical_id,omitempty"`
	Properties   string         `json:"properties"` // JSON blob
	// Seq is the plan position; listing by Seq reproduces the exact
	// creation attempt order, which rollback walks in reverse.
	Seq       int       `json:"seq"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Event represents an append-only log entry for a stack's lifecycle.
type Event struct {
	ID        int64      `json:"id"`
	StackID   *string    `json:"stack_id,omitempty"`
	LogicalID *string    `json:"logical_id,omitempty"`
	Level     EventLevel `json:"level"`
	Message   string     `json:"message"`
	Details   *string    `json:"details,omitempty"` // JSON blob
	Timestamp time.Time  `json:"timestamp"`
}

// Store defines the interface for the persistence layer.
type Store interface {
	// Lifecycle
	Init(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error

	// Stack operations
	CreateStack(ctx context.Context, stack *Stack) error
	GetStack(ctx context.Context, accountID, name string) (*Stack, error)
	GetStackByID(ctx context.Context, id string) (*Stack, error)
	ListStacks(ctx context.Context, accountID string) ([]*Stack, error)
	UpdateStackStatus(ctx context.Context, id string, status StackStatus, reason *string) error
	SetStackOutputs(ctx context.Context, id string, outputs string) error

	// StackResource operations
	CreateStackResource(ctx context.Context, res *StackResource) error
	UpdateStackResource(ctx context.Context, id string, status ResourceStatus, physicalID, reason *string) error
	SetStackResourceProperties(ctx context.Context, id string, properties string) error
	ListStackResources(ctx context.Context, stackID string) ([]*StackResource, error)

	// Event operations
	AppendEvent(ctx context.Context, event *Event) error
	GetEvents(ctx context.Context, stackID *string, limit, offset int) ([]*Event, error)

	// Utility
	HealthCheck(ctx context.Context) error
}
