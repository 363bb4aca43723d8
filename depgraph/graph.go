package depgraph

import (
	"sort"
	"sync"

	"github.com/fshlint/maki/location"
)

// DependencyType classifies why one definition depends on another.
type DependencyType int

const (
	DependencyUnspecified DependencyType = iota

	// Parent is a Profile/Extension/ValueSet/CodeSystem/Logical's Parent
	// clause.
	Parent

	// InstanceOf is an Instance's InstanceOf clause.
	InstanceOf

	// ValueSetBinding is a ValuesetRule's "from" target.
	ValueSetBinding

	// ExtensionReference is a ContainsRule item naming an extension slice.
	ExtensionReference

	// TypeReference is a non-primitive type named in an OnlyRule, including
	// a Reference(...)/Canonical(...) aggregation's inner types, or a bare
	// identifier on the right-hand side of a FixedValueRule/CaretValueRule.
	TypeReference

	// ProfileReference is an ObeysRule's invariant id or an InsertRule's
	// rule set name.
	ProfileReference

	// CodeSystemReference is a ValuesetRule binding owned by a CodeSystem
	// resource (a code system supplementing another code system), as
	// distinct from an ordinary value set binding.
	CodeSystemReference
)

func (d DependencyType) String() string {
	switch d {
	case Parent:
		return "Parent"
	case InstanceOf:
		return "InstanceOf"
	case ValueSetBinding:
		return "ValueSetBinding"
	case ExtensionReference:
		return "ExtensionReference"
	case TypeReference:
		return "TypeReference"
	case ProfileReference:
		return "ProfileReference"
	case CodeSystemReference:
		return "CodeSystemReference"
	default:
		return "Unspecified"
	}
}

// Edge is one dependency: From depends on To, for the reason named by Type,
// declared at Span.
type Edge struct {
	From string
	To   string
	Type DependencyType
	Span location.Span
}

// Graph is a directed dependency graph over definition names, built from
// one or more parsed files' semantic models. Safe for concurrent reads;
// construction (BuildGraph) happens before any concurrent use begins.
type Graph struct {
	mu    sync.RWMutex
	nodes map[string]bool
	order []string // node insertion order, for deterministic iteration
	out   map[string][]*Edge
	in    map[string][]*Edge
}

func newGraph() *Graph {
	return &Graph{
		nodes: make(map[string]bool),
		out:   make(map[string][]*Edge),
		in:    make(map[string][]*Edge),
	}
}

func (g *Graph) addNode(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.addNodeLocked(name)
}

func (g *Graph) addNodeLocked(name string) {
	if g.nodes[name] {
		return
	}
	g.nodes[name] = true
	g.order = append(g.order, name)
}

func (g *Graph) addEdge(from, to string, depType DependencyType, span location.Span) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.addNodeLocked(from)
	g.addNodeLocked(to)
	edge := &Edge{From: from, To: to, Type: depType, Span: span}
	g.out[from] = append(g.out[from], edge)
	g.in[to] = append(g.in[to], edge)
}

// Nodes returns every node name, in insertion order.
func (g *Graph) Nodes() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// NodeCount returns the number of distinct nodes.
func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n := 0
	for _, edges := range g.out {
		n += len(edges)
	}
	return n
}

// HasNode reports whether name was added as a node (directly or as an
// edge's endpoint).
func (g *Graph) HasNode(name string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes[name]
}

// Dependencies returns the names that name directly depends on (outgoing
// edge targets).
func (g *Graph) Dependencies(name string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	edges := g.out[name]
	out := make([]string, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.To)
	}
	return out
}

// Dependents returns the names that directly depend on name (incoming edge
// sources).
func (g *Graph) Dependents(name string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	edges := g.in[name]
	out := make([]string, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.From)
	}
	return out
}

// Edges returns every edge in the graph, ordered by From then To then Type
// for determinism.
func (g *Graph) Edges() []*Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []*Edge
	for _, name := range g.order {
		out = append(out, g.out[name]...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		if out[i].To != out[j].To {
			return out[i].To < out[j].To
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// HasPath reports whether to is reachable from from by following
// dependency edges forward (from -> ... -> to).
func (g *Graph) HasPath(from, to string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if !g.nodes[from] || !g.nodes[to] {
		return false
	}
	visited := map[string]bool{from: true}
	stack := []string{from}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == to {
			return true
		}
		for _, e := range g.out[n] {
			if !visited[e.To] {
				visited[e.To] = true
				stack = append(stack, e.To)
			}
		}
	}
	return false
}
