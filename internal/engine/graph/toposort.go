package graph

import (
	"fmt"
	"sort"
)

// CycleError reports the node at which a back-edge into the current DFS
// path was found. It aborts the topological sort on the main pipeline path;
// DetectCycles provides the advisory enumeration.
type CycleError struct {
	Node FileIdentity
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("circular dependency detected at %s", e.Node)
}

// TopologicalSort orders files so that every dependency precedes its
// dependents. It fails the instant a back-edge into the visiting set is
// found, naming the offending node.
func (g *Graph) TopologicalSort() ([]FileIdentity, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	const (
		unvisited = iota
		visiting
		visited
	)

	state := make(map[FileIdentity]int, len(g.nodes))
	order := make([]FileIdentity, 0, len(g.nodes))

	roots := make([]FileIdentity, 0, len(g.nodes))
	for n := range g.nodes {
		roots = append(roots, n)
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })

	var visit func(FileIdentity) error
	visit = func(node FileIdentity) error {
		switch state[node] {
		case visited:
			return nil
		case visiting:
			return &CycleError{Node: node}
		}
		state[node] = visiting

		deps := sortedKeys(g.imports[node])
		for _, dep := range deps {
			if err := visit(dep); err != nil {
				return err
			}
		}

		state[node] = visited
		order = append(order, node)
		return nil
	}

	for _, root := range roots {
		if err := visit(root); err != nil {
			return nil, err
		}
	}

	return order, nil
}

// HasCircularDependencies is defined as "does TopologicalSort fail". It is
// deliberately a different detector from DetectCycles: this one is fatal on
// the main path, the other is advisory enumeration.
func (g *Graph) HasCircularDependencies() bool {
	_, err := g.TopologicalSort()
	return err != nil
}
