package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/cloudsim/cloudsim/pkg/stores"
	"github.com/cloudsim/cloudsim/pkg/telemetry"
	"github.com/cloudsim/cloudsim/pkg/template"
)

// CreateStackInput describes a stack creation request.
type CreateStackInput struct {
	// AccountID scopes the stack to an account.
	AccountID string `validate:"required"`

	// StackName names the stack within the account.
	StackName string `validate:"required,min=1,max=128"`

	// TemplateBody is the raw template, JSON or YAML.
	TemplateBody string `validate:"required"`

	// Parameters are caller-supplied parameter values.
	Parameters map[string]string

	// Tags are free-form labels stored on the stack record.
	Tags map[string]string

	// DisableRollback leaves created resources in place on failure.
	DisableRollback bool
}

// ParameterSummary describes one declared template parameter.
type ParameterSummary struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	HasDefault  bool   `json:"has_default"`
	Description string `json:"description,omitempty"`
}

// ValidationResult is the outcome of a validate-only template check.
type ValidationResult struct {
	Valid         bool               `json:"valid"`
	Format        template.Format    `json:"format,omitempty"`
	Error         string             `json:"error,omitempty"`
	Parameters    []ParameterSummary `json:"parameters,omitempty"`
	ResourceKinds []string           `json:"resource_kinds,omitempty"`
}

// Orchestrator drives the stack lifecycle: template parsing, planning,
// sequential provisioning, rollback, and teardown.
type Orchestrator struct {
	store    StateStore
	registry *Registry
	logger   *telemetry.Logger
	metrics  *telemetry.Metrics
	tracer   *telemetry.Tracer
	validate *validator.Validate
}

// NewOrchestrator creates an orchestrator over the given store and
// provider registry.
func NewOrchestrator(store StateStore, registry *Registry, logger *telemetry.Logger, metrics *telemetry.Metrics, tracer *telemetry.Tracer) *Orchestrator {
	return &Orchestrator{
		store:    store,
		registry: registry,
		logger:   logger.NewComponentLogger("orchestrator"),
		metrics:  metrics,
		tracer:   tracer,
		validate: validator.New(),
	}
}

// newStackID builds a stack identifier in the simulated ARN shape.
func newStackID(accountID, name string) string {
	return fmt.Sprintf("arn:cloudsim:orchestrator:%s:stack/%s/%s", accountID, name, uuid.New().String())
}

// plan is the fully prepared provisioning plan for a template: the
// parsed template, the ordered logical IDs, and the effective
// parameters. Building it has no side effects.
type plan struct {
	tpl    *template.Template
	format template.Format
	order  []string
	params map[string]template.Value
}

// buildPlan parses and validates a template and computes the
// provisioning order. All failure modes here leave no records behind.
func (o *Orchestrator) buildPlan(body string, supplied map[string]string) (*plan, error) {
	tpl, format, err := template.Parse(body)
	if err != nil {
		return nil, err
	}

	if err := tpl.Validate(o.registry.Supported()); err != nil {
		return nil, err
	}

	graph, err := BuildGraph(tpl)
	if err != nil {
		return nil, err
	}

	order, err := Sort(graph)
	if err != nil {
		return nil, err
	}

	return &plan{
		tpl:    tpl,
		format: format,
		order:  order,
		params: EffectiveParameters(tpl, supplied),
	}, nil
}

// CreateStack provisions a stack from a template. Resources are
// created one at a time in dependency order; the first failure stops
// the pass and, unless rollback is disabled, deletes everything
// created so far in reverse order. The returned stack record reflects
// the terminal status.
func (o *Orchestrator) CreateStack(ctx context.Context, input CreateStackInput) (*stores.Stack, error) {
	if err := o.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("invalid create stack input: %w", err)
	}

	ctx, span := o.tracer.StartStackSpan(ctx, "create", input.StackName)
	defer span.End()

	logger := o.logger.WithStackName(input.StackName)
	if traceID := telemetry.TraceID(ctx); traceID != "" {
		logger = logger.WithField("trace_id", traceID)
	}
	started := time.Now()

	// Plan first: a template that fails to parse, validate, or order
	// must not leave any stack record.
	p, err := o.buildPlan(input.TemplateBody, input.Parameters)
	if err != nil {
		telemetry.RecordError(span, err)
		logger.WithError(err).Warn("stack creation rejected")
		return nil, err
	}

	if _, err := o.store.GetStack(ctx, input.AccountID, input.StackName); err == nil {
		return nil, &StackExistsError{Name: input.StackName}
	}

	paramsJSON, err := json.Marshal(input.Parameters)
	if err != nil {
		return nil, fmt.Errorf("failed to encode parameters: %w", err)
	}
	tagsJSON, err := json.Marshal(input.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tags: %w", err)
	}

	now := time.Now().UTC()
	stack := &stores.Stack{
		ID:              newStackID(input.AccountID, input.StackName),
		AccountID:       input.AccountID,
		Name:            input.StackName,
		Status:          stores.StackStatusCreating,
		TemplateBody:    input.TemplateBody,
		TemplateFormat:  string(p.format),
		Parameters:      string(paramsJSON),
		Tags:            string(tagsJSON),
		DisableRollback: input.DisableRollback,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := o.store.CreateStack(ctx, stack); err != nil {
		return nil, fmt.Errorf("failed to create stack record: %w", err)
	}

	logger = logger.WithStackID(stack.ID)
	logger.Infof("creating stack with %d resources", len(p.order))
	o.metrics.RecordStackCreated(input.AccountID)
	o.appendEvent(ctx, stack.ID, "", stores.EventLevelInfo, "stack creation started", nil)

	// Record the whole plan up front: every resource starts PENDING,
	// so the plan is visible before provisioning begins and resources
	// never reached stay PENDING after a failure.
	records := make(map[string]*stores.StackResource, len(p.order))
	for seq, logicalID := range p.order {
		decl := p.tpl.Resources[logicalID]
		propsJSON, err := json.Marshal(decl.Properties)
		if err != nil {
			return o.failStack(ctx, stack, nil, fmt.Errorf("failed to encode properties for %s: %w", logicalID, err), started)
		}
		recordNow := time.Now().UTC()
		record := &stores.StackResource{
			ID:         uuid.New().String(),
			StackID:    stack.ID,
			LogicalID:  logicalID,
			Kind:       decl.Kind,
			Status:     stores.ResourceStatusPending,
			Properties: string(propsJSON),
			Seq:        seq,
			CreatedAt:  recordNow,
			UpdatedAt:  recordNow,
		}
		if err := o.store.CreateStackResource(ctx, record); err != nil {
			return o.failStack(ctx, stack, nil, fmt.Errorf("failed to record resource %s: %w", logicalID, err), started)
		}
		records[logicalID] = record
	}

	resolver := &Resolver{
		Parameters: p.params,
		Resources:  make(ResourceTable, len(p.order)),
	}

	// created tracks resource records that reached CREATE_COMPLETE, in
	// creation order, for reverse-order rollback.
	var created []*stores.StackResource

	for _, logicalID := range p.order {
		decl := p.tpl.Resources[logicalID]
		if err := o.provisionResource(ctx, stack, records[logicalID], decl, resolver, &created); err != nil {
			return o.failStack(ctx, stack, created, err, started)
		}
	}

	if err := o.resolveOutputs(ctx, stack, p.tpl, resolver); err != nil {
		return o.failStack(ctx, stack, created, err, started)
	}

	if err := o.store.UpdateStackStatus(ctx, stack.ID, stores.StackStatusComplete, nil); err != nil {
		return nil, fmt.Errorf("failed to finalize stack: %w", err)
	}

	o.appendEvent(ctx, stack.ID, "", stores.EventLevelInfo, "stack creation complete", nil)
	o.metrics.RecordStackCompleted("create", string(stores.StackStatusComplete), time.Since(started))
	telemetry.RecordSuccess(span)
	logger.Info("stack creation complete")

	return o.store.GetStackByID(ctx, stack.ID)
}

// provisionResource creates one resource: resolves its properties
// against everything created so far, moves its PENDING record to
// CREATING, and dispatches to the provider. On success the resolver's
// table gains an entry.
func (o *Orchestrator) provisionResource(ctx context.Context, stack *stores.Stack, record *stores.StackResource, decl *template.ResourceDecl, resolver *Resolver, created *[]*stores.StackResource) error {
	logicalID := record.LogicalID

	ctx, span := o.tracer.StartResourceSpan(ctx, logicalID, decl.Kind)
	defer span.End()

	logger := o.logger.WithStackID(stack.ID).WithLogicalID(logicalID).WithKind(decl.Kind)
	started := time.Now()

	resolved := resolver.Resolve(decl.Properties)
	propsJSON, err := json.Marshal(resolved)
	if err != nil {
		return fmt.Errorf("failed to encode properties for %s: %w", logicalID, err)
	}

	if err := o.store.SetStackResourceProperties(ctx, record.ID, string(propsJSON)); err != nil {
		return fmt.Errorf("failed to record resource %s: %w", logicalID, err)
	}
	if err := o.store.UpdateStackResource(ctx, record.ID, stores.ResourceStatusCreating, nil, nil); err != nil {
		return fmt.Errorf("failed to record resource %s: %w", logicalID, err)
	}

	provider, err := o.registry.Get(decl.Kind)
	if err != nil {
		reason := err.Error()
		_ = o.store.UpdateStackResource(ctx, record.ID, stores.ResourceStatusCreateFailed, nil, &reason)
		return &ProvisioningError{LogicalID: logicalID, Kind: decl.Kind, Err: err}
	}

	result, err := provider.Create(ctx, logicalID, resolved)
	if err != nil {
		reason := err.Error()
		_ = o.store.UpdateStackResource(ctx, record.ID, stores.ResourceStatusCreateFailed, nil, &reason)
		o.appendEvent(ctx, stack.ID, logicalID, stores.EventLevelError, "resource creation failed: "+reason,
			eventDetails(map[string]string{"kind": decl.Kind, "error": reason}))
		o.metrics.RecordResourceProvisioned(decl.Kind, string(stores.ResourceStatusCreateFailed), time.Since(started))
		o.metrics.RecordProviderError(decl.Kind, "create")
		telemetry.RecordError(span, err)
		logger.WithError(err).Error("resource creation failed")
		return &ProvisioningError{LogicalID: logicalID, Kind: decl.Kind, Err: err}
	}

	if err := o.store.UpdateStackResource(ctx, record.ID, stores.ResourceStatusCreateComplete, &result.PhysicalID, nil); err != nil {
		return fmt.Errorf("failed to record resource %s: %w", logicalID, err)
	}
	record.Status = stores.ResourceStatusCreateComplete
	record.PhysicalID = &result.PhysicalID
	*created = append(*created, record)

	resolver.Resources[logicalID] = ResourceEntry{
		PhysicalID: result.PhysicalID,
		Attributes: result.Attributes,
	}

	var details *string
	if len(result.Attributes) > 0 {
		details = eventDetails(result.Attributes)
	}
	o.appendEvent(ctx, stack.ID, logicalID, stores.EventLevelInfo, "resource created: "+result.PhysicalID, details)
	o.metrics.RecordResourceProvisioned(decl.Kind, string(stores.ResourceStatusCreateComplete), time.Since(started))
	telemetry.RecordSuccess(span)
	logger.Infof("resource created: %s", result.PhysicalID)

	return nil
}

// failStack handles a mid-plan failure: rollback unless disabled, then
// the terminal status update. It returns the final stack record along
// with the original error.
func (o *Orchestrator) failStack(ctx context.Context, stack *stores.Stack, created []*stores.StackResource, cause error, started time.Time) (*stores.Stack, error) {
	reason := cause.Error()
	logger := o.logger.WithStackID(stack.ID)

	if stack.DisableRollback {
		logger.WithError(cause).Error("stack creation failed, rollback disabled")
		if err := o.store.UpdateStackStatus(ctx, stack.ID, stores.StackStatusFailed, &reason); err != nil {
			return nil, fmt.Errorf("failed to record stack failure: %w", err)
		}
		o.appendEvent(ctx, stack.ID, "", stores.EventLevelError, "stack creation failed: "+reason, nil)
		o.metrics.RecordStackCompleted("create", string(stores.StackStatusFailed), time.Since(started))
		final, _ := o.store.GetStackByID(ctx, stack.ID)
		return final, cause
	}

	logger.WithError(cause).Error("stack creation failed, rolling back")
	if err := o.store.UpdateStackStatus(ctx, stack.ID, stores.StackStatusRollingBack, &reason); err != nil {
		return nil, fmt.Errorf("failed to record rollback start: %w", err)
	}
	o.appendEvent(ctx, stack.ID, "", stores.EventLevelWarning, "rolling back: "+reason, nil)
	o.metrics.RecordRollback()

	o.rollback(ctx, stack, created)

	if err := o.store.UpdateStackStatus(ctx, stack.ID, stores.StackStatusRolledBack, &reason); err != nil {
		return nil, fmt.Errorf("failed to record rollback completion: %w", err)
	}
	o.appendEvent(ctx, stack.ID, "", stores.EventLevelInfo, "rollback complete", nil)
	o.metrics.RecordStackCompleted("create", string(stores.StackStatusRolledBack), time.Since(started))

	final, _ := o.store.GetStackByID(ctx, stack.ID)
	return final, cause
}

// rollback deletes created resources in reverse creation order. A
// failed delete is recorded and skipped; rollback always reaches the
// first resource.
func (o *Orchestrator) rollback(ctx context.Context, stack *stores.Stack, created []*stores.StackResource) {
	for i := len(created) - 1; i >= 0; i-- {
		record := created[i]
		o.deleteResource(ctx, stack, record, "rollback")
	}
}

// deleteResource dispatches one delete to the resource's provider and
// records the outcome. Errors are recorded, never propagated, so
// rollback and teardown walk every resource.
func (o *Orchestrator) deleteResource(ctx context.Context, stack *stores.Stack, record *stores.StackResource, operation string) {
	logger := o.logger.WithStackID(stack.ID).WithLogicalID(record.LogicalID)

	if record.PhysicalID == nil {
		_ = o.store.UpdateStackResource(ctx, record.ID, stores.ResourceStatusDeleteComplete, nil, nil)
		return
	}
	physicalID := *record.PhysicalID

	_ = o.store.UpdateStackResource(ctx, record.ID, stores.ResourceStatusDeleting, nil, nil)

	provider, err := o.registry.Get(record.Kind)
	if err == nil {
		err = provider.Delete(ctx, physicalID)
	}

	if err != nil {
		rbErr := &RollbackError{LogicalID: record.LogicalID, PhysicalID: physicalID, Err: err}
		reason := rbErr.Error()
		_ = o.store.UpdateStackResource(ctx, record.ID, stores.ResourceStatusDeleteFailed, nil, &reason)
		o.appendEvent(ctx, stack.ID, record.LogicalID, stores.EventLevelError, reason,
			eventDetails(map[string]string{"physical_id": physicalID, "error": err.Error()}))
		o.metrics.RecordRollbackDelete("failed")
		o.metrics.RecordProviderError(record.Kind, "delete")
		logger.WithError(err).Warnf("failed to delete %s during %s", physicalID, operation)
		return
	}

	_ = o.store.UpdateStackResource(ctx, record.ID, stores.ResourceStatusDeleteComplete, nil, nil)
	o.appendEvent(ctx, stack.ID, record.LogicalID, stores.EventLevelInfo, "resource deleted: "+physicalID, nil)
	o.metrics.RecordRollbackDelete("complete")
	logger.Infof("resource deleted: %s", physicalID)
}

// resolveOutputs resolves each template output against the completed
// resource table and stores them on the stack record.
func (o *Orchestrator) resolveOutputs(ctx context.Context, stack *stores.Stack, tpl *template.Template, resolver *Resolver) error {
	if len(tpl.Outputs) == 0 {
		return nil
	}

	outputs := make(map[string]string, len(tpl.Outputs))
	for name, out := range tpl.Outputs {
		outputs[name] = resolver.ResolveString(out.Value)
	}

	outputsJSON, err := json.Marshal(outputs)
	if err != nil {
		return fmt.Errorf("failed to encode outputs: %w", err)
	}

	return o.store.SetStackOutputs(ctx, stack.ID, string(outputsJSON))
}

// DeleteStack tears down a stack: every resource is deleted in reverse
// plan order, best effort, and the stack record ends DELETED.
func (o *Orchestrator) DeleteStack(ctx context.Context, accountID, name string) (*stores.Stack, error) {
	ctx, span := o.tracer.StartStackSpan(ctx, "delete", name)
	defer span.End()

	started := time.Now()

	stack, err := o.store.GetStack(ctx, accountID, name)
	if err != nil {
		return nil, &StackNotFoundError{Name: name}
	}

	logger := o.logger.WithStackID(stack.ID).WithStackName(name)
	logger.Info("deleting stack")

	if err := o.store.UpdateStackStatus(ctx, stack.ID, stores.StackStatusDeleting, nil); err != nil {
		return nil, fmt.Errorf("failed to record stack deletion: %w", err)
	}
	o.appendEvent(ctx, stack.ID, "", stores.EventLevelInfo, "stack deletion started", nil)

	resources, err := o.store.ListStackResources(ctx, stack.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stack resources: %w", err)
	}

	for i := len(resources) - 1; i >= 0; i-- {
		record := resources[i]
		if record.Status == stores.ResourceStatusDeleteComplete {
			continue
		}
		o.deleteResource(ctx, stack, record, "teardown")
	}

	if err := o.store.UpdateStackStatus(ctx, stack.ID, stores.StackStatusDeleted, nil); err != nil {
		return nil, fmt.Errorf("failed to finalize stack deletion: %w", err)
	}
	o.appendEvent(ctx, stack.ID, "", stores.EventLevelInfo, "stack deleted", nil)
	o.metrics.RecordStackCompleted("delete", string(stores.StackStatusDeleted), time.Since(started))
	telemetry.RecordSuccess(span)
	logger.Info("stack deleted")

	return o.store.GetStackByID(ctx, stack.ID)
}

// GetStack returns a live stack by name.
func (o *Orchestrator) GetStack(ctx context.Context, accountID, name string) (*stores.Stack, error) {
	stack, err := o.store.GetStack(ctx, accountID, name)
	if err != nil {
		return nil, &StackNotFoundError{Name: name}
	}
	return stack, nil
}

// ListStacks returns the live stacks in an account.
func (o *Orchestrator) ListStacks(ctx context.Context, accountID string) ([]*stores.Stack, error) {
	return o.store.ListStacks(ctx, accountID)
}

// ListStackResources returns a stack's resources in plan order.
func (o *Orchestrator) ListStackResources(ctx context.Context, accountID, name string) ([]*stores.StackResource, error) {
	stack, err := o.store.GetStack(ctx, accountID, name)
	if err != nil {
		return nil, &StackNotFoundError{Name: name}
	}
	return o.store.ListStackResources(ctx, stack.ID)
}

// ValidateTemplate checks a template without provisioning anything and
// without touching the store. The result reports the detected format,
// the declared parameters, and the distinct resource kinds.
func (o *Orchestrator) ValidateTemplate(body string) ValidationResult {
	tpl, format, err := template.Parse(body)
	if err != nil {
		o.metrics.RecordValidation("invalid")
		return ValidationResult{Valid: false, Error: err.Error()}
	}

	if err := tpl.Validate(o.registry.Supported()); err != nil {
		o.metrics.RecordValidation("invalid")
		return ValidationResult{Valid: false, Format: format, Error: err.Error()}
	}

	graph, err := BuildGraph(tpl)
	if err == nil {
		_, err = Sort(graph)
	}
	if err != nil {
		o.metrics.RecordValidation("invalid")
		return ValidationResult{Valid: false, Format: format, Error: err.Error()}
	}

	params := make([]ParameterSummary, 0, len(tpl.Parameters))
	for name, decl := range tpl.Parameters {
		params = append(params, ParameterSummary{
			Name:        name,
			Type:        decl.Type,
			HasDefault:  decl.HasDefault(),
			Description: decl.Description,
		})
	}
	sort.Slice(params, func(i, j int) bool { return params[i].Name < params[j].Name })

	o.metrics.RecordValidation("valid")
	return ValidationResult{
		Valid:         true,
		Format:        format,
		Parameters:    params,
		ResourceKinds: tpl.Kinds(),
	}
}

// appendEvent writes to the stack event log, best effort. details is
// an optional JSON payload for machine consumers.
func (o *Orchestrator) appendEvent(ctx context.Context, stackID, logicalID string, level stores.EventLevel, message string, details *string) {
	event := &stores.Event{
		StackID:   &stackID,
		Level:     level,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
	if logicalID != "" {
		event.LogicalID = &logicalID
	}
	if err := o.store.AppendEvent(ctx, event); err != nil {
		o.logger.WithError(err).Warn("failed to append event")
	}
}

// eventDetails encodes an event detail payload, best effort.
func eventDetails(v interface{}) *string {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	s := string(data)
	return &s
}
