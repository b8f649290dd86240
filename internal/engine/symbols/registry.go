package symbols

import (
	"sort"
	"sync"

	"dartbridge/internal/engine/graph"
	"dartbridge/internal/shared/observability"
)

// Registry is the process-scoped table of declared types. Names are unique
// across the project; the last registration wins. Cross-file shadowing is
// deliberately unsupported.
//
// Registration of unrelated files in the same batch may race on the shared
// maps, so every method takes the lock.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*TypeDescriptor
	byFile map[graph.FileIdentity]map[string]bool
}

func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*TypeDescriptor),
		byFile: make(map[graph.FileIdentity]map[string]bool),
	}
}

// Register inserts or overwrites a descriptor by name and indexes it by
// owning file.
func (r *Registry) Register(desc *TypeDescriptor) {
	if desc == nil || desc.Name == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byName[desc.Name] = desc
	if r.byFile[desc.File] == nil {
		r.byFile[desc.File] = make(map[string]bool)
	}
	r.byFile[desc.File][desc.Name] = true

	observability.RegisteredSymbols.Set(float64(len(r.byName)))
}

// RemoveAllForFile drops every descriptor owned by file. It must run before
// a changed file's symbols are re-registered, so a renamed or deleted type
// leaves no stale entry behind.
func (r *Registry) RemoveAllForFile(file graph.FileIdentity) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name := range r.byFile[file] {
		// Only drop the name if this file is still the owner; a later
		// registration from another file wins.
		if d, ok := r.byName[name]; ok && d.File == file {
			delete(r.byName, name)
		}
	}
	delete(r.byFile, file)

	observability.RegisteredSymbols.Set(float64(len(r.byName)))
}

// Lookup returns the descriptor for name, or nil and false.
func (r *Registry) Lookup(name string) (*TypeDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byName[name]
	return d, ok
}

// HasFile reports whether any descriptor is registered for file.
func (r *Registry) HasFile(file graph.FileIdentity) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byFile[file]) > 0
}

// NamesForFile returns the sorted type names owned by file.
func (r *Registry) NamesForFile(file graph.FileIdentity) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byFile[file]))
	for name := range r.byFile[file] {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// IsAvailableIn reports whether name is visible from fromFile: either the
// descriptor lives in the same file, or one of fromFile's imports resolves
// to the descriptor's owning file. No fuzzy or scoped resolution.
func (r *Registry) IsAvailableIn(name string, fromFile graph.FileIdentity, imports []graph.FileIdentity) bool {
	r.mu.RLock()
	d, ok := r.byName[name]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if d.File == fromFile {
		return true
	}
	for _, imp := range imports {
		if imp == d.File {
			return true
		}
	}
	return false
}

// Len returns the number of registered names.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}

const maxChainDepth = 32

// DeriveRoles walks desc's supertype chain through the registry until a
// well-known framework root is reached and sets the domain role flags.
// Unresolvable supertypes terminate the walk silently.
func (r *Registry) DeriveRoles(desc *TypeDescriptor) {
	if desc == nil {
		return
	}

	seen := make(map[string]bool)
	name := desc.Supertype
	for depth := 0; name != "" && depth < maxChainDepth; depth++ {
		switch name {
		case RootStatelessComponent:
			desc.IsComponent = true
			desc.IsStatelessComponent = true
			return
		case RootStatefulComponent:
			desc.IsComponent = true
			desc.IsStatefulComponent = true
			return
		case RootStateHolder:
			desc.IsStateHolder = true
			return
		}
		if seen[name] {
			return
		}
		seen[name] = true

		next, ok := r.Lookup(name)
		if !ok {
			return
		}
		name = next.Supertype
	}
}
