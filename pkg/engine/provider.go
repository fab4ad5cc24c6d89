package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cloudsim/cloudsim/pkg/template"
)

// CreateResult is what a provider reports after creating a resource.
type CreateResult struct {
	// PhysicalID is the identifier of the created resource.
	PhysicalID string

	// Attributes are named attributes resolvable through Fn::GetAtt.
	Attributes map[string]string
}

// Provider creates and deletes resources of one kind. Properties
// arrive fully resolved: no Ref or Fn::GetAtt values remain.
type Provider interface {
	// Kind returns the resource kind this provider handles.
	Kind() string

	// Create provisions a resource and returns its physical identifier
	// and attributes.
	Create(ctx context.Context, logicalID string, props template.Value) (*CreateResult, error)

	// Delete removes a resource by physical identifier. Deleting a
	// resource that no longer exists must succeed.
	Delete(ctx context.Context, physicalID string) error
}

// Registry dispatches resource kinds to their providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider for its kind. Registering a kind twice is
// an error.
func (r *Registry) Register(p Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kind := p.Kind()
	if kind == "" {
		return fmt.Errorf("provider has empty kind")
	}
	if _, exists := r.providers[kind]; exists {
		return fmt.Errorf("provider already registered for kind %s", kind)
	}

	r.providers[kind] = p
	return nil
}

// Get returns the provider for a kind.
func (r *Registry) Get(kind string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[kind]
	if !ok {
		return nil, fmt.Errorf("no provider registered for kind %s", kind)
	}
	return p, nil
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.providers))
	for kind := range r.providers {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// Supported returns the set of registered kinds, the shape template
// validation consumes.
func (r *Registry) Supported() map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	supported := make(map[string]bool, len(r.providers))
	for kind := range r.providers {
		supported[kind] = true
	}
	return supported
}
