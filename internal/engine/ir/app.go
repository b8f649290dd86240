package ir

import "sort"

type NodeKind int

const (
	NodeComponent NodeKind = iota
	NodeStateHolder
	NodeObservableState
)

func (k NodeKind) String() string {
	switch k {
	case NodeStateHolder:
		return "state-holder"
	case NodeObservableState:
		return "observable-state"
	default:
		return "component"
	}
}

type EdgeKind int

const (
	EdgeHasState EdgeKind = iota
	EdgeComposes
	EdgeDependsOn
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeComposes:
		return "composes"
	case EdgeDependsOn:
		return "depends-on"
	default:
		return "has-state"
	}
}

type ComponentEdge struct {
	From string
	To   string
	Kind EdgeKind
}

// ComponentGraph is the component-level relationship graph built during
// linking. Node keys are declaration names.
type ComponentGraph struct {
	Nodes map[string]NodeKind
	Edges []ComponentEdge
}

func NewComponentGraph() *ComponentGraph {
	return &ComponentGraph{Nodes: make(map[string]NodeKind)}
}

func (g *ComponentGraph) AddNode(name string, kind NodeKind) {
	g.Nodes[name] = kind
}

func (g *ComponentGraph) AddEdge(from, to string, kind EdgeKind) {
	for _, e := range g.Edges {
		if e.From == from && e.To == to && e.Kind == kind {
			return
		}
	}
	g.Edges = append(g.Edges, ComponentEdge{From: from, To: to, Kind: kind})
}

// EdgesFrom returns the edges leaving from, optionally filtered by kind
// (pass a negative kind for all).
func (g *ComponentGraph) EdgesFrom(from string, kind EdgeKind) []ComponentEdge {
	out := make([]ComponentEdge, 0)
	for _, e := range g.Edges {
		if e.From == from && (kind < 0 || e.Kind == kind) {
			out = append(out, e)
		}
	}
	return out
}

// Sort orders edges deterministically: identical inputs must produce an
// identical graph byte-for-byte.
func (g *ComponentGraph) Sort() {
	sort.Slice(g.Edges, func(i, j int) bool {
		a, b := g.Edges[i], g.Edges[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.To != b.To {
			return a.To < b.To
		}
		return a.Kind < b.Kind
	})
}

// ApplicationDeclaration is the link-phase output: the union of every file's
// IR plus derived observables and the component graph.
type ApplicationDeclaration struct {
	Components       []*ComponentDeclaration
	StateHolders     []*StateHolderDeclaration
	ObservableStates []*ObservableStateDeclaration
	Types            []*PlainTypeDeclaration
	Functions        []*FunctionDeclaration
	Imports          []ImportRecord
	Graph            *ComponentGraph
}

func (a *ApplicationDeclaration) Component(name string) *ComponentDeclaration {
	for _, c := range a.Components {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (a *ApplicationDeclaration) StateHolder(name string) *StateHolderDeclaration {
	for _, s := range a.StateHolders {
		if s.Name == name {
			return s
		}
	}
	return nil
}

func (a *ApplicationDeclaration) ObservableState(name string) *ObservableStateDeclaration {
	for _, o := range a.ObservableStates {
		if o.Name == name {
			return o
		}
	}
	return nil
}
