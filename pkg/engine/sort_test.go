package engine

import (
	"reflect"
	"testing"
)

func TestSortRespectsDependencies(t *testing.T) {
	tpl := mustParse(t, `{
		"Resources": {
			"C": {"Type": "CloudSim::Compute::Instance", "DependsOn": "B"},
			"B": {"Type": "CloudSim::Compute::Instance", "DependsOn": "A"},
			"A": {"Type": "CloudSim::Compute::Instance"}
		}
	}`)

	g, err := BuildGraph(tpl)
	if err != nil {
		t.Fatalf("failed to build graph: %v", err)
	}

	order, err := Sort(g)
	if err != nil {
		t.Fatalf("failed to sort: %v", err)
	}

	want := []string{"A", "B", "C"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("expected %v, got %v", want, order)
	}
}

func TestSortDeclarationOrderTieBreak(t *testing.T) {
	// No dependencies at all: the plan is exactly declaration order.
	tpl := mustParse(t, `{
		"Resources": {
			"Zebra": {"Type": "CloudSim::Compute::Instance"},
			"Apple": {"Type": "CloudSim::Compute::Instance"},
			"Mango": {"Type": "CloudSim::Compute::Instance"}
		}
	}`)

	g, err := BuildGraph(tpl)
	if err != nil {
		t.Fatalf("failed to build graph: %v", err)
	}

	order, err := Sort(g)
	if err != nil {
		t.Fatalf("failed to sort: %v", err)
	}

	want := []string{"Zebra", "Apple", "Mango"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("expected declaration order %v, got %v", want, order)
	}
}

func TestSortDiamond(t *testing.T) {
	tpl := mustParse(t, `{
		"Resources": {
			"Top": {"Type": "CloudSim::Compute::Instance"},
			"Left": {"Type": "CloudSim::Compute::Instance", "DependsOn": "Top"},
			"Right": {"Type": "CloudSim::Compute::Instance", "DependsOn": "Top"},
			"Bottom": {"Type": "CloudSim::Compute::Instance", "DependsOn": ["Left", "Right"]}
		}
	}`)

	g, err := BuildGraph(tpl)
	if err != nil {
		t.Fatalf("failed to build graph: %v", err)
	}

	order, err := Sort(g)
	if err != nil {
		t.Fatalf("failed to sort: %v", err)
	}

	want := []string{"Top", "Left", "Right", "Bottom"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("expected %v, got %v", want, order)
	}
}

func TestSortIsDeterministic(t *testing.T) {
	tpl := mustParse(t, `{
		"Resources": {
			"N1": {"Type": "CloudSim::Compute::Instance"},
			"N2": {"Type": "CloudSim::Compute::Instance"},
			"N3": {"Type": "CloudSim::Compute::Instance", "DependsOn": "N1"},
			"N4": {"Type": "CloudSim::Compute::Instance", "DependsOn": "N2"},
			"N5": {"Type": "CloudSim::Compute::Instance", "DependsOn": ["N3", "N4"]}
		}
	}`)

	g, err := BuildGraph(tpl)
	if err != nil {
		t.Fatalf("failed to build graph: %v", err)
	}

	first, err := Sort(g)
	if err != nil {
		t.Fatalf("failed to sort: %v", err)
	}
	for i := 0; i < 20; i++ {
		again, err := Sort(g)
		if err != nil {
			t.Fatalf("failed to sort: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("ordering not deterministic: %v vs %v", first, again)
		}
	}
}

func TestSortDetectsCycle(t *testing.T) {
	tpl := mustParse(t, `{
		"Resources": {
			"A": {"Type": "CloudSim::Compute::Instance", "DependsOn": "B"},
			"B": {"Type": "CloudSim::Compute::Instance", "DependsOn": "A"},
			"Free": {"Type": "CloudSim::Compute::Instance"}
		}
	}`)

	g, err := BuildGraph(tpl)
	if err != nil {
		t.Fatalf("failed to build graph: %v", err)
	}

	_, err = Sort(g)
	if err == nil {
		t.Fatal("expected cycle error")
	}
	if !IsCircularDependency(err) {
		t.Fatalf("expected circular dependency error, got %v", err)
	}

	cycleErr := err.(*CircularDependencyError)
	want := []string{"A", "B"}
	if !reflect.DeepEqual(cycleErr.Remaining, want) {
		t.Errorf("expected remaining %v, got %v", want, cycleErr.Remaining)
	}
}

func TestSortImplicitCycle(t *testing.T) {
	tpl := mustParse(t, `{
		"Resources": {
			"A": {
				"Type": "CloudSim::Compute::Instance",
				"Properties": {"Peer": {"Ref": "B"}}
			},
			"B": {
				"Type": "CloudSim::Compute::Instance",
				"Properties": {"Peer": {"Ref": "A"}}
			}
		}
	}`)

	g, err := BuildGraph(tpl)
	if err != nil {
		t.Fatalf("failed to build graph: %v", err)
	}

	if _, err := Sort(g); !IsCircularDependency(err) {
		t.Fatalf("expected circular dependency error, got %v", err)
	}
}

func TestSortEmptyGraph(t *testing.T) {
	g := &Graph{Deps: map[string]map[string]bool{}}
	order, err := Sort(g)
	if err != nil {
		t.Fatalf("failed to sort empty graph: %v", err)
	}
	if len(order) != 0 {
		t.Errorf("expected empty order, got %v", order)
	}
}
