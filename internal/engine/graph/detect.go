package graph

import "sort"

// DetectCycles enumerates import cycles using a DFS with an explicit path
// stack. When a back-edge closes a cycle the closing node is appended to the
// discovered path and the scan continues, so several distinct entry points
// into the same cyclic region can each report an overlapping cycle.
func (g *Graph) DetectCycles() [][]FileIdentity {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var cycles [][]FileIdentity
	visited := make(map[FileIdentity]bool)
	onStack := make(map[FileIdentity]bool)

	roots := make([]FileIdentity, 0, len(g.nodes))
	for n := range g.nodes {
		roots = append(roots, n)
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })

	for _, root := range roots {
		if !visited[root] {
			g.findCycles(root, visited, onStack, []FileIdentity{}, &cycles)
		}
	}

	return cycles
}

func (g *Graph) findCycles(curr FileIdentity, visited, onStack map[FileIdentity]bool, path []FileIdentity, cycles *[][]FileIdentity) {
	visited[curr] = true
	onStack[curr] = true
	path = append(path, curr)

	for _, next := range sortedKeys(g.imports[curr]) {
		if onStack[next] {
			cycleStart := -1
			for i, node := range path {
				if node == next {
					cycleStart = i
					break
				}
			}
			if cycleStart != -1 {
				cycle := make([]FileIdentity, len(path)-cycleStart, len(path)-cycleStart+1)
				copy(cycle, path[cycleStart:])
				cycle = append(cycle, next)
				*cycles = append(*cycles, cycle)
			}
		} else if !visited[next] {
			g.findCycles(next, visited, onStack, path, cycles)
		}
	}

	onStack[curr] = false
}
