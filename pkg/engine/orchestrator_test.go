package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/cloudsim/cloudsim/pkg/stores"
	"github.com/cloudsim/cloudsim/pkg/telemetry"
	"github.com/cloudsim/cloudsim/pkg/template"
)

// memStore is an in-memory StateStore for orchestrator tests.
type memStore struct {
	mu        sync.Mutex
	stacks    map[string]*stores.Stack
	resources map[string]*stores.StackResource
	events    []*stores.Event
}

func newMemStore() *memStore {
	return &memStore{
		stacks:    make(map[string]*stores.Stack),
		resources: make(map[string]*stores.StackResource),
	}
}

func (m *memStore) CreateStack(_ context.Context, stack *stores.Stack) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *stack
	m.stacks[stack.ID] = &cp
	return nil
}

func (m *memStore) GetStack(_ context.Context, accountID, name string) (*stores.Stack, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.stacks {
		if s.AccountID == accountID && s.Name == name && s.Status != stores.StackStatusDeleted {
			cp := *s
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("stack %s: not found", name)
}

func (m *memStore) GetStackByID(_ context.Context, id string) (*stores.Stack, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stacks[id]
	if !ok {
		return nil, fmt.Errorf("stack %s: not found", id)
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) ListStacks(_ context.Context, accountID string) ([]*stores.Stack, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*stores.Stack
	for _, s := range m.stacks {
		if s.AccountID == accountID && s.Status != stores.StackStatusDeleted {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) UpdateStackStatus(_ context.Context, id string, status stores.StackStatus, reason *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stacks[id]
	if !ok {
		return fmt.Errorf("stack %s: not found", id)
	}
	s.Status = status
	s.StatusReason = reason
	return nil
}

func (m *memStore) SetStackOutputs(_ context.Context, id string, outputs string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stacks[id]
	if !ok {
		return fmt.Errorf("stack %s: not found", id)
	}
	s.Outputs = &outputs
	return nil
}

func (m *memStore) CreateStackResource(_ context.Context, res *stores.StackResource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *res
	m.resources[res.ID] = &cp
	return nil
}

func (m *memStore) UpdateStackResource(_ context.Context, id string, status stores.ResourceStatus, physicalID, reason *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.resources[id]
	if !ok {
		return fmt.Errorf("resource %s: not found", id)
	}
	r.Status = status
	if physicalID != nil {
		r.PhysicalID = physicalID
	}
	r.StatusReason = reason
	return nil
}

func (m *memStore) SetStackResourceProperties(_ context.Context, id string, properties string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.resources[id]
	if !ok {
		return fmt.Errorf("resource %s: not found", id)
	}
	r.Properties = properties
	return nil
}

func (m *memStore) ListStackResources(_ context.Context, stackID string) ([]*stores.StackResource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*stores.StackResource
	for _, r := range m.resources {
		if r.StackID == stackID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (m *memStore) AppendEvent(_ context.Context, event *stores.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *event
	m.events = append(m.events, &cp)
	return nil
}

// fakeProvider records create and delete calls in a shared journal.
type fakeProvider struct {
	kind      string
	journal   *[]string
	createErr map[string]error
	deleteErr map[string]error
	counter   int
}

func (p *fakeProvider) Kind() string { return p.kind }

func (p *fakeProvider) Create(_ context.Context, logicalID string, props template.Value) (*CreateResult, error) {
	if err := p.createErr[logicalID]; err != nil {
		*p.journal = append(*p.journal, "create-fail:"+logicalID)
		return nil, err
	}
	p.counter++
	physicalID := fmt.Sprintf("%s-%s-%d", "phys", logicalID, p.counter)
	*p.journal = append(*p.journal, "create:"+logicalID)
	return &CreateResult{
		PhysicalID: physicalID,
		Attributes: map[string]string{"Name": logicalID},
	}, nil
}

func (p *fakeProvider) Delete(_ context.Context, physicalID string) error {
	if err := p.deleteErr[physicalID]; err != nil {
		*p.journal = append(*p.journal, "delete-fail:"+physicalID)
		return err
	}
	*p.journal = append(*p.journal, "delete:"+physicalID)
	return nil
}

const testKind = "CloudSim::Compute::Instance"

func newTestOrchestrator(t *testing.T, store StateStore, providers ...Provider) *Orchestrator {
	t.Helper()

	reg := NewRegistry()
	for _, p := range providers {
		if err := reg.Register(p); err != nil {
			t.Fatalf("failed to register provider: %v", err)
		}
	}

	metrics, err := telemetry.NewMetrics(telemetry.MetricsConfig{Enabled: false})
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	tracer, err := telemetry.NewTracer(telemetry.TracingConfig{Enabled: false}, "test", "dev", "test")
	if err != nil {
		t.Fatalf("failed to create tracer: %v", err)
	}

	return NewOrchestrator(store, reg, telemetry.NewNopLogger(), metrics, tracer)
}

func TestCreateStackSuccess(t *testing.T) {
	store := newMemStore()
	var journal []string
	provider := &fakeProvider{kind: testKind, journal: &journal}
	o := newTestOrchestrator(t, store, provider)

	stack, err := o.CreateStack(context.Background(), CreateStackInput{
		AccountID: "acct-001",
		StackName: "web",
		TemplateBody: `{
			"Resources": {
				"Net": {"Type": "CloudSim::Compute::Instance"},
				"App": {
					"Type": "CloudSim::Compute::Instance",
					"Properties": {"Network": {"Ref": "Net"}}
				}
			},
			"Outputs": {
				"AppId": {"Value": {"Ref": "App"}}
			}
		}`,
	})
	if err != nil {
		t.Fatalf("failed to create stack: %v", err)
	}

	if stack.Status != stores.StackStatusComplete {
		t.Errorf("expected status COMPLETE, got %s", stack.Status)
	}
	if stack.TemplateFormat != "JSON" {
		t.Errorf("expected format JSON, got %s", stack.TemplateFormat)
	}

	want := []string{"create:Net", "create:App"}
	if fmt.Sprint(journal) != fmt.Sprint(want) {
		t.Errorf("expected calls %v, got %v", want, journal)
	}

	resources, _ := store.ListStackResources(context.Background(), stack.ID)
	if len(resources) != 2 {
		t.Fatalf("expected 2 resources, got %d", len(resources))
	}
	for _, r := range resources {
		if r.Status != stores.ResourceStatusCreateComplete {
			t.Errorf("resource %s: expected CREATE_COMPLETE, got %s", r.LogicalID, r.Status)
		}
		if r.PhysicalID == nil {
			t.Errorf("resource %s: missing physical id", r.LogicalID)
		}
	}

	// The dependent resource saw the dependency's physical id.
	var appProps map[string]interface{}
	if err := json.Unmarshal([]byte(resources[1].Properties), &appProps); err != nil {
		t.Fatalf("failed to decode properties: %v", err)
	}
	if appProps["Network"] != *resources[0].PhysicalID {
		t.Errorf("expected resolved network %s, got %v", *resources[0].PhysicalID, appProps["Network"])
	}

	if stack.Outputs == nil {
		t.Fatal("expected outputs")
	}
	var outputs map[string]string
	if err := json.Unmarshal([]byte(*stack.Outputs), &outputs); err != nil {
		t.Fatalf("failed to decode outputs: %v", err)
	}
	if outputs["AppId"] != *resources[1].PhysicalID {
		t.Errorf("expected output %s, got %s", *resources[1].PhysicalID, outputs["AppId"])
	}
}

func TestCreateStackRollbackReverseOrder(t *testing.T) {
	store := newMemStore()
	var journal []string
	provider := &fakeProvider{
		kind:      testKind,
		journal:   &journal,
		createErr: map[string]error{"Third": errors.New("boom")},
	}
	o := newTestOrchestrator(t, store, provider)

	stack, err := o.CreateStack(context.Background(), CreateStackInput{
		AccountID: "acct-001",
		StackName: "doomed",
		TemplateBody: `{
			"Resources": {
				"First": {"Type": "CloudSim::Compute::Instance"},
				"Second": {"Type": "CloudSim::Compute::Instance", "DependsOn": "First"},
				"Third": {"Type": "CloudSim::Compute::Instance", "DependsOn": "Second"}
			}
		}`,
	})
	if err == nil {
		t.Fatal("expected provisioning error")
	}
	var provErr *ProvisioningError
	if !errors.As(err, &provErr) || provErr.LogicalID != "Third" {
		t.Fatalf("expected provisioning error for Third, got %v", err)
	}

	if stack == nil || stack.Status != stores.StackStatusRolledBack {
		t.Fatalf("expected ROLLED_BACK stack, got %+v", stack)
	}

	resources, _ := store.ListStackResources(context.Background(), stack.ID)
	if len(resources) != 3 {
		t.Fatalf("expected 3 resource records, got %d", len(resources))
	}

	// Deletes ran strictly in reverse creation order.
	want := []string{
		"create:First",
		"create:Second",
		"create-fail:Third",
		"delete:" + *resources[1].PhysicalID,
		"delete:" + *resources[0].PhysicalID,
	}
	if fmt.Sprint(journal) != fmt.Sprint(want) {
		t.Errorf("expected calls %v, got %v", want, journal)
	}

	if resources[0].Status != stores.ResourceStatusDeleteComplete {
		t.Errorf("First: expected DELETE_COMPLETE, got %s", resources[0].Status)
	}
	if resources[1].Status != stores.ResourceStatusDeleteComplete {
		t.Errorf("Second: expected DELETE_COMPLETE, got %s", resources[1].Status)
	}
	if resources[2].Status != stores.ResourceStatusCreateFailed {
		t.Errorf("Third: expected CREATE_FAILED, got %s", resources[2].Status)
	}
}

func TestCreateStackRecordsPlanUpFront(t *testing.T) {
	store := newMemStore()
	var journal []string
	provider := &fakeProvider{
		kind:      testKind,
		journal:   &journal,
		createErr: map[string]error{"B": errors.New("boom")},
	}
	o := newTestOrchestrator(t, store, provider)

	stack, err := o.CreateStack(context.Background(), CreateStackInput{
		AccountID: "acct-001",
		StackName: "planned",
		TemplateBody: `{
			"Resources": {
				"A": {"Type": "CloudSim::Compute::Instance"},
				"B": {"Type": "CloudSim::Compute::Instance", "DependsOn": "A"},
				"C": {"Type": "CloudSim::Compute::Instance", "DependsOn": "B"}
			}
		}`,
	})
	if err == nil {
		t.Fatal("expected provisioning error")
	}
	if stack == nil || stack.Status != stores.StackStatusRolledBack {
		t.Fatalf("expected ROLLED_BACK stack, got %+v", stack)
	}

	// All three plan rows exist even though C was never attempted.
	resources, _ := store.ListStackResources(context.Background(), stack.ID)
	if len(resources) != 3 {
		t.Fatalf("expected 3 resource records, got %d", len(resources))
	}
	if resources[0].Status != stores.ResourceStatusDeleteComplete {
		t.Errorf("A: expected DELETE_COMPLETE, got %s", resources[0].Status)
	}
	if resources[1].Status != stores.ResourceStatusCreateFailed {
		t.Errorf("B: expected CREATE_FAILED, got %s", resources[1].Status)
	}
	if resources[2].Status != stores.ResourceStatusPending {
		t.Errorf("C: expected PENDING, got %s", resources[2].Status)
	}

	// C's provider was never called.
	for _, call := range journal {
		if call == "create:C" || call == "create-fail:C" {
			t.Errorf("resource C must not reach the provider, journal: %v", journal)
		}
	}

	// The failure event carries a structured details payload.
	var failureDetails *string
	for _, e := range store.events {
		if e.Level == stores.EventLevelError && e.LogicalID != nil && *e.LogicalID == "B" {
			failureDetails = e.Details
		}
	}
	if failureDetails == nil {
		t.Fatal("expected details on the failure event")
	}
	var payload map[string]string
	if err := json.Unmarshal([]byte(*failureDetails), &payload); err != nil {
		t.Fatalf("failed to decode event details: %v", err)
	}
	if payload["kind"] != testKind || payload["error"] == "" {
		t.Errorf("unexpected details payload: %v", payload)
	}
}

func TestCreateStackRollbackSurvivesDeleteFailure(t *testing.T) {
	store := newMemStore()
	var journal []string
	provider := &fakeProvider{
		kind:      testKind,
		journal:   &journal,
		createErr: map[string]error{"C": errors.New("boom")},
		deleteErr: map[string]error{"phys-B-2": errors.New("stuck")},
	}
	o := newTestOrchestrator(t, store, provider)

	stack, err := o.CreateStack(context.Background(), CreateStackInput{
		AccountID: "acct-001",
		StackName: "stuck",
		TemplateBody: `{
			"Resources": {
				"A": {"Type": "CloudSim::Compute::Instance"},
				"B": {"Type": "CloudSim::Compute::Instance", "DependsOn": "A"},
				"C": {"Type": "CloudSim::Compute::Instance", "DependsOn": "B"}
			}
		}`,
	})
	if err == nil {
		t.Fatal("expected provisioning error")
	}

	// Rollback still finishes and the stack still ends ROLLED_BACK.
	if stack.Status != stores.StackStatusRolledBack {
		t.Errorf("expected ROLLED_BACK, got %s", stack.Status)
	}

	resources, _ := store.ListStackResources(context.Background(), stack.ID)
	if resources[1].Status != stores.ResourceStatusDeleteFailed {
		t.Errorf("B: expected DELETE_FAILED, got %s", resources[1].Status)
	}
	if resources[0].Status != stores.ResourceStatusDeleteComplete {
		t.Errorf("A: expected DELETE_COMPLETE after earlier failure, got %s", resources[0].Status)
	}
}

func TestCreateStackDisableRollback(t *testing.T) {
	store := newMemStore()
	var journal []string
	provider := &fakeProvider{
		kind:      testKind,
		journal:   &journal,
		createErr: map[string]error{"B": errors.New("boom")},
	}
	o := newTestOrchestrator(t, store, provider)

	stack, err := o.CreateStack(context.Background(), CreateStackInput{
		AccountID:       "acct-001",
		StackName:       "keep",
		DisableRollback: true,
		TemplateBody: `{
			"Resources": {
				"A": {"Type": "CloudSim::Compute::Instance"},
				"B": {"Type": "CloudSim::Compute::Instance", "DependsOn": "A"}
			}
		}`,
	})
	if err == nil {
		t.Fatal("expected provisioning error")
	}

	if stack.Status != stores.StackStatusFailed {
		t.Errorf("expected FAILED, got %s", stack.Status)
	}
	if stack.StatusReason == nil {
		t.Error("expected a status reason")
	}

	// No deletes happened.
	for _, call := range journal {
		if call == "delete:phys-A-1" {
			t.Errorf("unexpected delete in journal: %v", journal)
		}
	}

	resources, _ := store.ListStackResources(context.Background(), stack.ID)
	if resources[0].Status != stores.ResourceStatusCreateComplete {
		t.Errorf("A: expected CREATE_COMPLETE to survive, got %s", resources[0].Status)
	}
}

func TestCreateStackCycleLeavesNoRecords(t *testing.T) {
	store := newMemStore()
	var journal []string
	provider := &fakeProvider{kind: testKind, journal: &journal}
	o := newTestOrchestrator(t, store, provider)

	_, err := o.CreateStack(context.Background(), CreateStackInput{
		AccountID: "acct-001",
		StackName: "cyclic",
		TemplateBody: `{
			"Resources": {
				"A": {"Type": "CloudSim::Compute::Instance", "DependsOn": "B"},
				"B": {"Type": "CloudSim::Compute::Instance", "DependsOn": "A"}
			}
		}`,
	})
	if !IsCircularDependency(err) {
		t.Fatalf("expected circular dependency error, got %v", err)
	}

	if len(store.stacks) != 0 {
		t.Errorf("expected no stack records, got %d", len(store.stacks))
	}
	if len(journal) != 0 {
		t.Errorf("expected no provider calls, got %v", journal)
	}
}

func TestCreateStackRejectsBadTemplates(t *testing.T) {
	store := newMemStore()
	var journal []string
	provider := &fakeProvider{kind: testKind, journal: &journal}
	o := newTestOrchestrator(t, store, provider)

	cases := []struct {
		name string
		body string
		chk  func(error) bool
	}{
		{"unparseable", "{{{not json or yaml: [", template.IsFormat},
		{"no resources", `{"Resources": {}}`, template.IsValidation},
		{"missing type", `{"Resources": {"A": {}}}`, template.IsValidation},
		{"unsupported kind", `{"Resources": {"A": {"Type": "CloudSim::Quantum::Entangler"}}}`, template.IsValidation},
	}

	for _, tc := range cases {
		_, err := o.CreateStack(context.Background(), CreateStackInput{
			AccountID:    "acct-001",
			StackName:    "bad-" + tc.name,
			TemplateBody: tc.body,
		})
		if err == nil || !tc.chk(err) {
			t.Errorf("%s: unexpected error %v", tc.name, err)
		}
	}

	if len(store.stacks) != 0 {
		t.Errorf("expected no stack records, got %d", len(store.stacks))
	}
}

func TestCreateStackDuplicateName(t *testing.T) {
	store := newMemStore()
	var journal []string
	provider := &fakeProvider{kind: testKind, journal: &journal}
	o := newTestOrchestrator(t, store, provider)

	body := `{"Resources": {"A": {"Type": "CloudSim::Compute::Instance"}}}`
	input := CreateStackInput{AccountID: "acct-001", StackName: "dup", TemplateBody: body}

	if _, err := o.CreateStack(context.Background(), input); err != nil {
		t.Fatalf("first creation failed: %v", err)
	}

	_, err := o.CreateStack(context.Background(), input)
	if !IsStackExists(err) {
		t.Fatalf("expected StackExistsError, got %v", err)
	}
}

func TestCreateStackParameterResolution(t *testing.T) {
	store := newMemStore()
	var journal []string
	provider := &fakeProvider{kind: testKind, journal: &journal}
	o := newTestOrchestrator(t, store, provider)

	stack, err := o.CreateStack(context.Background(), CreateStackInput{
		AccountID:  "acct-001",
		StackName:  "params",
		Parameters: map[string]string{"Size": "t2.large"},
		TemplateBody: `{
			"Parameters": {
				"Size": {"Type": "String", "Default": "t2.micro"},
				"Image": {"Type": "String", "Default": "ubuntu:22.04"}
			},
			"Resources": {
				"Server": {
					"Type": "CloudSim::Compute::Instance",
					"Properties": {
						"InstanceType": {"Ref": "Size"},
						"ImageId": {"Ref": "Image"},
						"Zone": {"Ref": "NoSuchThing"}
					}
				}
			}
		}`,
	})
	if err != nil {
		t.Fatalf("failed to create stack: %v", err)
	}

	resources, _ := store.ListStackResources(context.Background(), stack.ID)
	var props map[string]interface{}
	if err := json.Unmarshal([]byte(resources[0].Properties), &props); err != nil {
		t.Fatalf("failed to decode properties: %v", err)
	}
	if props["InstanceType"] != "t2.large" {
		t.Errorf("supplied parameter should win, got %v", props["InstanceType"])
	}
	if props["ImageId"] != "ubuntu:22.04" {
		t.Errorf("default parameter should apply, got %v", props["ImageId"])
	}
	if props["Zone"] != "NoSuchThing" {
		t.Errorf("unknown ref should fall through as literal, got %v", props["Zone"])
	}
}

func TestDeleteStack(t *testing.T) {
	store := newMemStore()
	var journal []string
	provider := &fakeProvider{kind: testKind, journal: &journal}
	o := newTestOrchestrator(t, store, provider)

	ctx := context.Background()
	created, err := o.CreateStack(ctx, CreateStackInput{
		AccountID: "acct-001",
		StackName: "teardown",
		TemplateBody: `{
			"Resources": {
				"A": {"Type": "CloudSim::Compute::Instance"},
				"B": {"Type": "CloudSim::Compute::Instance", "DependsOn": "A"}
			}
		}`,
	})
	if err != nil {
		t.Fatalf("failed to create stack: %v", err)
	}

	resources, _ := store.ListStackResources(ctx, created.ID)
	journal = journal[:0]

	deleted, err := o.DeleteStack(ctx, "acct-001", "teardown")
	if err != nil {
		t.Fatalf("failed to delete stack: %v", err)
	}
	if deleted.Status != stores.StackStatusDeleted {
		t.Errorf("expected DELETED, got %s", deleted.Status)
	}

	want := []string{
		"delete:" + *resources[1].PhysicalID,
		"delete:" + *resources[0].PhysicalID,
	}
	if fmt.Sprint(journal) != fmt.Sprint(want) {
		t.Errorf("expected reverse-order deletes %v, got %v", want, journal)
	}

	if _, err := o.GetStack(ctx, "acct-001", "teardown"); !IsStackNotFound(err) {
		t.Errorf("expected StackNotFoundError after delete, got %v", err)
	}
}

func TestDeleteStackNotFound(t *testing.T) {
	store := newMemStore()
	o := newTestOrchestrator(t, store)

	_, err := o.DeleteStack(context.Background(), "acct-001", "ghost")
	if !IsStackNotFound(err) {
		t.Fatalf("expected StackNotFoundError, got %v", err)
	}
}

func TestValidateTemplate(t *testing.T) {
	store := newMemStore()
	var journal []string
	provider := &fakeProvider{kind: testKind, journal: &journal}
	o := newTestOrchestrator(t, store, provider)

	result := o.ValidateTemplate(`{
		"Parameters": {
			"Env": {"Type": "String", "Default": "dev", "Description": "environment"},
			"Size": {"Type": "String"}
		},
		"Resources": {
			"A": {"Type": "CloudSim::Compute::Instance"},
			"B": {"Type": "CloudSim::Compute::Instance", "DependsOn": "A"}
		}
	}`)

	if !result.Valid {
		t.Fatalf("expected valid, got error %q", result.Error)
	}
	if result.Format != template.FormatJSON {
		t.Errorf("expected JSON format, got %s", result.Format)
	}
	if len(result.Parameters) != 2 {
		t.Fatalf("expected 2 parameters, got %v", result.Parameters)
	}
	if result.Parameters[0].Name != "Env" || !result.Parameters[0].HasDefault {
		t.Errorf("unexpected parameter summary: %+v", result.Parameters[0])
	}
	if result.Parameters[1].Name != "Size" || result.Parameters[1].HasDefault {
		t.Errorf("unexpected parameter summary: %+v", result.Parameters[1])
	}
	if len(result.ResourceKinds) != 1 || result.ResourceKinds[0] != testKind {
		t.Errorf("unexpected resource kinds: %v", result.ResourceKinds)
	}

	// Validation never touches the store or the providers.
	if len(store.stacks) != 0 || len(journal) != 0 {
		t.Error("validation must have no side effects")
	}

	invalid := o.ValidateTemplate(`{"Resources": {"A": {"Type": "CloudSim::Quantum::Entangler"}}}`)
	if invalid.Valid || invalid.Error == "" {
		t.Errorf("expected invalid result, got %+v", invalid)
	}

	cyclic := o.ValidateTemplate(`{
		"Resources": {
			"A": {"Type": "CloudSim::Compute::Instance", "DependsOn": "B"},
			"B": {"Type": "CloudSim::Compute::Instance", "DependsOn": "A"}
		}
	}`)
	if cyclic.Valid {
		t.Error("expected cycle to be reported as invalid")
	}

	selfRef := o.ValidateTemplate(`{
		"Resources": {
			"A": {
				"Type": "CloudSim::Compute::Instance",
				"Properties": {"Peer": {"Ref": "A"}}
			}
		}
	}`)
	if selfRef.Valid {
		t.Error("expected self reference to be reported as invalid")
	}

	garbled := o.ValidateTemplate("{{{")
	if garbled.Valid || garbled.Format != "" {
		t.Errorf("expected format failure, got %+v", garbled)
	}
}

func TestValidateTemplateYAML(t *testing.T) {
	store := newMemStore()
	var journal []string
	provider := &fakeProvider{kind: testKind, journal: &journal}
	o := newTestOrchestrator(t, store, provider)

	result := o.ValidateTemplate(`
Resources:
  Server:
    Type: CloudSim::Compute::Instance
    Properties:
      InstanceType: t2.micro
`)
	if !result.Valid {
		t.Fatalf("expected valid, got error %q", result.Error)
	}
	if result.Format != template.FormatYAML {
		t.Errorf("expected YAML format, got %s", result.Format)
	}
}
