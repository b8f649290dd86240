package analyzer

import (
	"dartbridge/internal/engine/graph"
)

// PlanBatches groups the dirty files into dependency-ordered batches.
// The topological order is scanned repeatedly: files that are not dirty
// count as satisfied from the start, and a dirty file is admitted into
// the current batch once every direct dependency is satisfied. A batch
// closes when it reaches maxParallelism, and batches form a full
// barrier: nothing admitted in a batch counts as satisfied until the
// whole batch has run.
func PlanBatches(order []graph.FileIdentity, dirty map[graph.FileIdentity]bool, g *graph.Graph, maxParallelism int) [][]graph.FileIdentity {
	if maxParallelism < 1 {
		maxParallelism = 1
	}
	satisfied := make(map[graph.FileIdentity]bool, len(order))
	remaining := make([]graph.FileIdentity, 0, len(dirty))
	for _, f := range order {
		if dirty[f] {
			remaining = append(remaining, f)
		} else {
			satisfied[f] = true
		}
	}

	var batches [][]graph.FileIdentity
	for len(remaining) > 0 {
		batch := make([]graph.FileIdentity, 0, maxParallelism)
		deferred := remaining[:0]
		for _, f := range remaining {
			if len(batch) >= maxParallelism {
				deferred = append(deferred, f)
				continue
			}
			ready := true
			for _, dep := range g.DependenciesOf(f) {
				if !satisfied[dep] {
					ready = false
					break
				}
			}
			if ready {
				batch = append(batch, f)
			} else {
				deferred = append(deferred, f)
			}
		}
		if len(batch) == 0 {
			// Unsatisfiable dependencies among the dirty set. The sort
			// already rejected cycles, so this only happens when an edge
			// points at a file outside the scanned set; force progress
			// rather than spin.
			batch = append(batch, deferred[0])
			deferred = deferred[1:]
		}
		for _, f := range batch {
			satisfied[f] = true
		}
		batches = append(batches, batch)
		remaining = deferred
	}
	return batches
}
