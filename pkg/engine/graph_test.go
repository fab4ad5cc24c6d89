package engine

import (
	"errors"
	"testing"

	"github.com/cloudsim/cloudsim/pkg/template"
)

// mustParse parses a template body or fails the test.
func mustParse(t *testing.T, body string) *template.Template {
	t.Helper()
	tpl, _, err := template.Parse(body)
	if err != nil {
		t.Fatalf("failed to parse template: %v", err)
	}
	return tpl
}

func TestBuildGraphExplicitDependsOn(t *testing.T) {
	tpl := mustParse(t, `{
		"Resources": {
			"A": {"Type": "CloudSim::Compute::Instance"},
			"B": {"Type": "CloudSim::Compute::Instance", "DependsOn": "A"},
			"C": {"Type": "CloudSim::Compute::Instance", "DependsOn": ["A", "B"]}
		}
	}`)

	g, err := BuildGraph(tpl)
	if err != nil {
		t.Fatalf("failed to build graph: %v", err)
	}

	if len(g.Nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(g.Nodes))
	}
	if !g.Deps["B"]["A"] {
		t.Error("expected B to depend on A")
	}
	if !g.Deps["C"]["A"] || !g.Deps["C"]["B"] {
		t.Errorf("expected C to depend on A and B, got %v", g.Deps["C"])
	}
	if len(g.Deps["A"]) != 0 {
		t.Errorf("expected A to have no dependencies, got %v", g.Deps["A"])
	}
}

func TestBuildGraphImplicitReferences(t *testing.T) {
	tpl := mustParse(t, `{
		"Resources": {
			"Bucket": {"Type": "CloudSim::Storage::Bucket"},
			"Fn": {
				"Type": "CloudSim::Serverless::Function",
				"Properties": {
					"Environment": {
						"Variables": {
							"BUCKET": {"Ref": "Bucket"},
							"BUCKET_ARN": {"Fn::GetAtt": ["Bucket", "Arn"]}
						}
					}
				}
			}
		}
	}`)

	g, err := BuildGraph(tpl)
	if err != nil {
		t.Fatalf("failed to build graph: %v", err)
	}

	if !g.Deps["Fn"]["Bucket"] {
		t.Error("expected Fn to depend on Bucket via Ref and Fn::GetAtt")
	}
	if len(g.Deps["Fn"]) != 1 {
		t.Errorf("expected exactly one dependency, got %v", g.Deps["Fn"])
	}
}

func TestBuildGraphParameterRefIsNotADependency(t *testing.T) {
	tpl := mustParse(t, `{
		"Parameters": {"Env": {"Type": "String", "Default": "dev"}},
		"Resources": {
			"Server": {
				"Type": "CloudSim::Compute::Instance",
				"Properties": {"InstanceType": {"Ref": "Env"}}
			}
		}
	}`)

	g, err := BuildGraph(tpl)
	if err != nil {
		t.Fatalf("failed to build graph: %v", err)
	}
	if len(g.Deps["Server"]) != 0 {
		t.Errorf("expected no dependencies for parameter ref, got %v", g.Deps["Server"])
	}
}

func TestBuildGraphUnknownExplicitDependency(t *testing.T) {
	tpl := mustParse(t, `{
		"Resources": {
			"A": {"Type": "CloudSim::Compute::Instance", "DependsOn": "Nope"}
		}
	}`)

	_, err := BuildGraph(tpl)
	if err == nil {
		t.Fatal("expected error for unknown explicit dependency")
	}
	if !template.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestBuildGraphSelfDependency(t *testing.T) {
	tpl := mustParse(t, `{
		"Resources": {
			"A": {"Type": "CloudSim::Compute::Instance", "DependsOn": "A"}
		}
	}`)

	if _, err := BuildGraph(tpl); err == nil {
		t.Fatal("expected error for self dependency")
	}
}

func TestBuildGraphSelfReferenceIsCycle(t *testing.T) {
	// A resource referencing itself in properties forms a self edge,
	// which can never be satisfied.
	tpl := mustParse(t, `{
		"Resources": {
			"A": {
				"Type": "CloudSim::Compute::Instance",
				"Properties": {"Peer": {"Ref": "A"}}
			}
		}
	}`)

	g, err := BuildGraph(tpl)
	if err != nil {
		t.Fatalf("failed to build graph: %v", err)
	}
	if !g.Deps["A"]["A"] {
		t.Errorf("expected self edge on A, got %v", g.Deps["A"])
	}

	_, err = Sort(g)
	if !IsCircularDependency(err) {
		t.Fatalf("expected circular dependency error, got %v", err)
	}
	var cdErr *CircularDependencyError
	errors.As(err, &cdErr)
	if len(cdErr.Remaining) != 1 || cdErr.Remaining[0] != "A" {
		t.Errorf("expected remaining [A], got %v", cdErr.Remaining)
	}
}

func TestDependents(t *testing.T) {
	tpl := mustParse(t, `{
		"Resources": {
			"A": {"Type": "CloudSim::Compute::Instance"},
			"B": {"Type": "CloudSim::Compute::Instance", "DependsOn": "A"},
			"C": {"Type": "CloudSim::Compute::Instance", "DependsOn": "A"}
		}
	}`)

	g, err := BuildGraph(tpl)
	if err != nil {
		t.Fatalf("failed to build graph: %v", err)
	}

	deps := g.Dependents("A")
	if len(deps) != 2 || deps[0] != "B" || deps[1] != "C" {
		t.Errorf("expected [B C], got %v", deps)
	}
}
