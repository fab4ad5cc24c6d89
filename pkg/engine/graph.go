package engine

import (
	"fmt"

	"github.com/cloudsim/cloudsim/pkg/template"
)

// Graph is the dependency graph of a template's resources. Edges point
// from a resource to the resources it depends on; a resource cannot be
// provisioned until all of its dependencies exist.
type Graph struct {
	// Nodes lists the logical IDs in declaration order.
	Nodes []string

	// Deps maps each logical ID to the set of logical IDs it depends on.
	Deps map[string]map[string]bool
}

// BuildGraph constructs the dependency graph for a template. Explicit
// DependsOn entries and implicit references (Ref and Fn::GetAtt inside
// Properties) both contribute edges. An explicit dependency on an
// undeclared name is a validation error; an implicit reference to an
// undeclared name is not an edge, since it may name a parameter or
// fall through as a literal at resolution time.
func BuildGraph(tpl *template.Template) (*Graph, error) {
	g := &Graph{
		Nodes: append([]string(nil), tpl.ResourceOrder...),
		Deps:  make(map[string]map[string]bool, len(tpl.Resources)),
	}

	for _, name := range g.Nodes {
		g.Deps[name] = make(map[string]bool)
	}

	for _, name := range g.Nodes {
		decl := tpl.Resources[name]

		for _, dep := range decl.DependsOn {
			if _, declared := tpl.Resources[dep]; !declared {
				return nil, template.NewValidationError(
					"depends on undeclared resource %s", dep,
				).WithResource(name)
			}
			if dep == name {
				return nil, template.NewValidationError(
					"depends on itself",
				).WithResource(name)
			}
			g.Deps[name][dep] = true
		}

		collectReferences(decl.Properties, func(target string) {
			// A declared target always contributes an edge, including
			// the resource itself: a self reference is a self edge and
			// surfaces as a cycle during ordering.
			if _, declared := tpl.Resources[target]; declared {
				g.Deps[name][target] = true
			}
		})
	}

	return g, nil
}

// collectReferences walks a value tree and invokes fn with the target
// of every Ref and Fn::GetAtt it finds.
func collectReferences(v template.Value, fn func(target string)) {
	switch v.Kind() {
	case template.KindRef, template.KindGetAtt:
		fn(v.Target())
	case template.KindList:
		for _, item := range v.Items() {
			collectReferences(item, fn)
		}
	case template.KindMap:
		for _, field := range v.Fields() {
			collectReferences(field, fn)
		}
	}
}

// DependencyCounts returns the number of dependencies per node. The
// map is a fresh copy safe for the caller to consume.
func (g *Graph) DependencyCounts() map[string]int {
	counts := make(map[string]int, len(g.Nodes))
	for _, name := range g.Nodes {
		counts[name] = len(g.Deps[name])
	}
	return counts
}

// Dependents returns the logical IDs that depend on the given node, in
// declaration order.
func (g *Graph) Dependents(name string) []string {
	var out []string
	for _, candidate := range g.Nodes {
		if g.Deps[candidate][name] {
			out = append(out, candidate)
		}
	}
	return out
}

// String renders the graph for debug logging.
func (g *Graph) String() string {
	s := ""
	for _, name := range g.Nodes {
		deps := make([]string, 0, len(g.Deps[name]))
		for _, candidate := range g.Nodes {
			if g.Deps[name][candidate] {
				deps = append(deps, candidate)
			}
		}
		s += fmt.Sprintf("%s -> %v\n", name, deps)
	}
	return s
}
