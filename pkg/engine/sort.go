package engine

// Sort computes the provisioning order for a dependency graph using
// Kahn's algorithm. When several resources are simultaneously ready,
// template declaration order breaks the tie, so a given template always
// yields the same plan. A cycle leaves nodes that can never become
// ready; those are reported in declaration order.
func Sort(g *Graph) ([]string, error) {
	counts := g.DependencyCounts()

	placed := make(map[string]bool, len(g.Nodes))
	order := make([]string, 0, len(g.Nodes))

	for len(order) < len(g.Nodes) {
		next := ""
		for _, name := range g.Nodes {
			if !placed[name] && counts[name] == 0 {
				next = name
				break
			}
		}

		if next == "" {
			remaining := make([]string, 0, len(g.Nodes)-len(order))
			for _, name := range g.Nodes {
				if !placed[name] {
					remaining = append(remaining, name)
				}
			}
			return nil, &CircularDependencyError{Remaining: remaining}
		}

		placed[next] = true
		order = append(order, next)

		for _, dependent := range g.Nodes {
			if g.Deps[dependent][next] {
				counts[dependent]--
			}
		}
	}

	return order, nil
}
