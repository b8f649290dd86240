// Package resolver performs the lexical import/export scan that orders
// files. It never parses: a directive-level scan is enough to build the
// dependency graph and avoids forcing a full parse of unchanged files.
package resolver

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"dartbridge/internal/engine/graph"
)

type ReferenceKind int

const (
	RefImport ReferenceKind = iota
	RefExport
)

// Reference is one import or export directive as written in source.
type Reference struct {
	Kind     ReferenceKind
	URI      string
	Prefix   string
	Deferred bool
	Line     int
}

// ResolvedImport pairs a reference with its resolution result. External
// references (dart: and foreign packages) stay unresolved and never reach
// the graph.
type ResolvedImport struct {
	Reference Reference
	Target    graph.FileIdentity
	Resolved  bool
}

var directiveRe = regexp.MustCompile(`^\s*(import|export)\s+['"]([^'"]+)['"]\s*([^;]*);`)

type cacheKey struct {
	file graph.FileIdentity
	uri  string
}

// Resolver resolves directive URIs to file identities inside one project.
type Resolver struct {
	root    string // project root
	pkg     string // package name from the manifest
	libRoot string

	mu    sync.Mutex
	cache map[cacheKey]graph.FileIdentity // "" means unresolvable
}

func NewResolver(root, packageName string) *Resolver {
	return &Resolver{
		root:    filepath.Clean(root),
		pkg:     packageName,
		libRoot: filepath.Join(filepath.Clean(root), "lib"),
		cache:   make(map[cacheKey]graph.FileIdentity),
	}
}

// ScanReferences extracts import/export directives from raw file content.
func (r *Resolver) ScanReferences(content []byte) []Reference {
	refs := make([]Reference, 0, 8)
	lines := strings.Split(string(content), "\n")
	for i, line := range lines {
		m := directiveRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		ref := Reference{URI: m[2], Line: i + 1}
		if m[1] == "export" {
			ref.Kind = RefExport
		}
		rest := m[3]
		if strings.Contains(rest, "deferred") {
			ref.Deferred = true
		}
		if idx := strings.Index(rest, " as "); idx >= 0 {
			prefix := strings.TrimSpace(rest[idx+4:])
			if cut := strings.IndexAny(prefix, " \t"); cut >= 0 {
				prefix = prefix[:cut]
			}
			ref.Prefix = prefix
		} else if strings.HasPrefix(strings.TrimSpace(rest), "as ") {
			prefix := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rest), "as "))
			if cut := strings.IndexAny(prefix, " \t"); cut >= 0 {
				prefix = prefix[:cut]
			}
			ref.Prefix = prefix
		}
		refs = append(refs, ref)
	}
	return refs
}

// Resolve maps a directive URI to a file identity. The second return is
// false for external references. Results are cached per (file, uri).
func (r *Resolver) Resolve(from graph.FileIdentity, ref Reference) (graph.FileIdentity, bool) {
	key := cacheKey{file: from, uri: ref.URI}

	r.mu.Lock()
	if cached, ok := r.cache[key]; ok {
		r.mu.Unlock()
		return cached, cached != ""
	}
	r.mu.Unlock()

	target := r.resolveURI(from, ref.URI)

	r.mu.Lock()
	r.cache[key] = target
	r.mu.Unlock()

	return target, target != ""
}

func (r *Resolver) resolveURI(from graph.FileIdentity, uri string) graph.FileIdentity {
	switch {
	case strings.HasPrefix(uri, "dart:"):
		return ""
	case strings.HasPrefix(uri, "package:"):
		rest := strings.TrimPrefix(uri, "package:")
		slash := strings.Index(rest, "/")
		if slash < 0 {
			return ""
		}
		pkg, rel := rest[:slash], rest[slash+1:]
		if pkg != r.pkg {
			// Third-party package: silently dropped from the graph.
			return ""
		}
		return r.existingIdentity(filepath.Join(r.libRoot, filepath.FromSlash(rel)))
	default:
		dir := filepath.Dir(string(from))
		return r.existingIdentity(filepath.Join(dir, filepath.FromSlash(uri)))
	}
}

func (r *Resolver) existingIdentity(path string) graph.FileIdentity {
	id, err := graph.Identify(path)
	if err != nil {
		return ""
	}
	info, err := os.Stat(string(id))
	if err != nil || info.IsDir() {
		return ""
	}
	return id
}

// Populate scans content, resolves every directive and adds the resulting
// edges to g. The file itself is always added as a node, so import-free
// files still participate in ordering.
func (r *Resolver) Populate(g *graph.Graph, file graph.FileIdentity, content []byte) []ResolvedImport {
	g.AddNode(file)

	refs := r.ScanReferences(content)
	out := make([]ResolvedImport, 0, len(refs))
	for _, ref := range refs {
		target, ok := r.Resolve(file, ref)
		ri := ResolvedImport{Reference: ref, Target: target, Resolved: ok}
		if ok && target != file {
			g.AddEdge(file, target)
		}
		out = append(out, ri)
	}
	return out
}
