package graph

import (
	"path/filepath"
	"sort"
	"sync"

	"dartbridge/internal/shared/observability"
)

// FileIdentity is a canonicalized absolute path. It is the unit of
// dependency, caching and invalidation throughout the pipeline.
type FileIdentity string

// Identify canonicalizes a path into a FileIdentity.
func Identify(path string) (FileIdentity, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return FileIdentity(filepath.Clean(abs)), nil
}

// Graph is the project dependency graph. Nodes are file identities, edges
// are "imports" relations. It is mutated only while the graph is being
// built; after phase 1 of a run it is read-only.
type Graph struct {
	mu sync.RWMutex

	nodes      map[FileIdentity]bool
	imports    map[FileIdentity]map[FileIdentity]bool // from -> to
	importedBy map[FileIdentity]map[FileIdentity]bool // to -> from
}

func NewGraph() *Graph {
	return &Graph{
		nodes:      make(map[FileIdentity]bool),
		imports:    make(map[FileIdentity]map[FileIdentity]bool),
		importedBy: make(map[FileIdentity]map[FileIdentity]bool),
	}
}

func (g *Graph) AddNode(file FileIdentity) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.addNodeLocked(file)
}

func (g *Graph) addNodeLocked(file FileIdentity) {
	if !g.nodes[file] {
		g.nodes[file] = true
		observability.GraphNodes.Set(float64(len(g.nodes)))
	}
}

// AddEdge records "from imports to". It is idempotent and implicitly adds
// missing endpoints.
func (g *Graph) AddEdge(from, to FileIdentity) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.addNodeLocked(from)
	g.addNodeLocked(to)

	if g.imports[from] == nil {
		g.imports[from] = make(map[FileIdentity]bool)
	}
	if g.imports[from][to] {
		return
	}
	g.imports[from][to] = true

	if g.importedBy[to] == nil {
		g.importedBy[to] = make(map[FileIdentity]bool)
	}
	g.importedBy[to][from] = true

	observability.GraphEdges.Set(float64(g.edgeCountLocked()))
}

func (g *Graph) HasNode(file FileIdentity) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes[file]
}

func (g *Graph) Nodes() []FileIdentity {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]FileIdentity, 0, len(g.nodes))
	for n := range g.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edgeCountLocked()
}

func (g *Graph) edgeCountLocked() int {
	count := 0
	for _, targets := range g.imports {
		count += len(targets)
	}
	return count
}

// DependenciesOf returns the files that file imports directly.
func (g *Graph) DependenciesOf(file FileIdentity) []FileIdentity {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return sortedKeys(g.imports[file])
}

// DependentsOf returns the files that import file directly.
func (g *Graph) DependentsOf(file FileIdentity) []FileIdentity {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return sortedKeys(g.importedBy[file])
}

// TransitiveDependentsOf walks reverse edges breadth-first and returns every
// file that directly or indirectly imports file. The file itself is not
// included.
func (g *Graph) TransitiveDependentsOf(file FileIdentity) []FileIdentity {
	g.mu.RLock()
	defer g.mu.RUnlock()

	seen := map[FileIdentity]bool{file: true}
	queue := []FileIdentity{file}
	out := make([]FileIdentity, 0)

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for dep := range g.importedBy[curr] {
			if seen[dep] {
				continue
			}
			seen[dep] = true
			out = append(out, dep)
			queue = append(queue, dep)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortedKeys(set map[FileIdentity]bool) []FileIdentity {
	out := make([]FileIdentity, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
