package engine

import (
	"errors"
	"fmt"
	"strings"
)

// CircularDependencyError indicates that the template's dependency
// graph contains a cycle and no provisioning order exists.
type CircularDependencyError struct {
	// Remaining lists the logical IDs that could not be ordered,
	// in declaration order.
	Remaining []string
}

// Error implements the error interface.
func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency detected among resources: %s",
		strings.Join(e.Remaining, ", "))
}

// ProvisioningError indicates that a provider failed to create a
// resource during the provisioning pass.
type ProvisioningError struct {
	// LogicalID is the resource whose creation failed.
	LogicalID string

	// Kind is the resource kind being provisioned.
	Kind string

	// Err is the underlying provider error.
	Err error
}

// Error implements the error interface.
func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("failed to create resource %s (%s): %v", e.LogicalID, e.Kind, e.Err)
}

// Unwrap returns the underlying error for error chain inspection.
func (e *ProvisioningError) Unwrap() error {
	return e.Err
}

// RollbackError indicates that a resource could not be deleted during
// rollback. Rollback continues past it; the error is recorded against
// the resource.
type RollbackError struct {
	// LogicalID is the resource whose deletion failed.
	LogicalID string

	// PhysicalID is the identifier of the resource left behind.
	PhysicalID string

	// Err is the underlying provider error.
	Err error
}

// Error implements the error interface.
func (e *RollbackError) Error() string {
	return fmt.Sprintf("failed to delete resource %s (%s) during rollback: %v",
		e.LogicalID, e.PhysicalID, e.Err)
}

// Unwrap returns the underlying error for error chain inspection.
func (e *RollbackError) Unwrap() error {
	return e.Err
}

// StackNotFoundError indicates that no live stack with the given name
// exists in the account.
type StackNotFoundError struct {
	Name string
}

// Error implements the error interface.
func (e *StackNotFoundError) Error() string {
	return fmt.Sprintf("stack not found: %s", e.Name)
}

// StackExistsError indicates that a live stack with the given name
// already exists in the account.
type StackExistsError struct {
	Name string
}

// Error implements the error interface.
func (e *StackExistsError) Error() string {
	return fmt.Sprintf("stack already exists: %s", e.Name)
}

// IsCircularDependency returns true if the error is a dependency cycle.
func IsCircularDependency(err error) bool {
	var e *CircularDependencyError
	return errors.As(err, &e)
}

// IsStackNotFound returns true if the error is a missing-stack lookup.
func IsStackNotFound(err error) bool {
	var e *StackNotFoundError
	return errors.As(err, &e)
}

// IsStackExists returns true if the error is a duplicate stack name.
func IsStackExists(err error) bool {
	var e *StackExistsError
	return errors.As(err, &e)
}
