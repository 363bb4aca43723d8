package depgraph

import (
	"fmt"
	"sort"
	"strings"
)

// CycleReport describes a circular dependency discovered during topological
// sort. It implements error so TopologicalSort can return it as the error
// value; callers that need the raw cycle can type-assert.
type CycleReport struct {
	Cycle []string
}

func (c *CycleReport) Error() string {
	return fmt.Sprintf("circular dependency: %s", strings.Join(append(append([]string{}, c.Cycle...), c.Cycle[0]), " -> "))
}

// TopologicalSort orders every node so that for every edge (a -> b), b
// appears before a (dependencies before dependents). It fails with a
// *CycleReport if any strongly connected component has more than one node
// or contains a self-loop.
func (g *Graph) TopologicalSort() ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, scc := range g.stronglyConnectedComponentsLocked() {
		if len(scc) > 1 || (len(scc) == 1 && g.hasSelfLoopLocked(scc[0])) {
			sort.Strings(scc)
			return nil, &CycleReport{Cycle: scc}
		}
	}

	// Kahn's algorithm over the reversed edge direction: an edge (a -> b)
	// means a depends on b, so b must be emitted first. We repeatedly emit
	// nodes whose dependencies (outgoing edges) have all already been
	// emitted.
	remaining := make(map[string]map[string]bool, len(g.nodes))
	for _, n := range g.order {
		deps := make(map[string]bool)
		for _, e := range g.out[n] {
			deps[e.To] = true
		}
		remaining[n] = deps
	}

	var result []string
	for len(result) < len(g.order) {
		progressed := false
		for _, n := range g.order {
			if contains(result, n) {
				continue
			}
			deps := remaining[n]
			ready := true
			for dep := range deps {
				if !contains(result, dep) {
					ready = false
					break
				}
			}
			if ready {
				result = append(result, n)
				progressed = true
			}
		}
		if !progressed {
			// Cycle detection above should have already caught this; this
			// is an unreachable safety net against a miscounted SCC.
			return nil, &CycleReport{Cycle: g.order}
		}
	}
	return result, nil
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func (g *Graph) hasSelfLoopLocked(name string) bool {
	for _, e := range g.out[name] {
		if e.To == name {
			return true
		}
	}
	return false
}

// FindCycles returns every strongly connected component that constitutes a
// cycle (more than one node, or a single node with a self-loop), each
// listed with its first node repeated at the end to show the loop.
func (g *Graph) FindCycles() [][]string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var cycles [][]string
	for _, scc := range g.stronglyConnectedComponentsLocked() {
		if len(scc) > 1 || (len(scc) == 1 && g.hasSelfLoopLocked(scc[0])) {
			cycle := append(append([]string{}, scc...), scc[0])
			cycles = append(cycles, cycle)
		}
	}
	return cycles
}

// StronglyConnectedComponents returns every strongly connected component in
// the graph, each a set of mutually reachable node names.
func (g *Graph) StronglyConnectedComponents() [][]string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.stronglyConnectedComponentsLocked()
}

// stronglyConnectedComponentsLocked implements Tarjan's algorithm
// iteratively to avoid recursion depth limits on large graphs.
func (g *Graph) stronglyConnectedComponentsLocked() [][]string {
	type frame struct {
		node     string
		edgeIdx  int
		children []string
	}

	index := make(map[string]int)
	lowlink := make(map[string]int)
	onStack := make(map[string]bool)
	var stack []string
	var sccs [][]string
	counter := 0

	for _, root := range g.order {
		if _, seen := index[root]; seen {
			continue
		}
		var call []*frame
		call = append(call, &frame{node: root})
		index[root] = counter
		lowlink[root] = counter
		counter++
		stack = append(stack, root)
		onStack[root] = true

		for len(call) > 0 {
			top := call[len(call)-1]
			edges := g.out[top.node]
			if top.edgeIdx < len(edges) {
				next := edges[top.edgeIdx].To
				top.edgeIdx++
				if _, seen := index[next]; !seen {
					index[next] = counter
					lowlink[next] = counter
					counter++
					stack = append(stack, next)
					onStack[next] = true
					call = append(call, &frame{node: next})
				} else if onStack[next] {
					if index[next] < lowlink[top.node] {
						lowlink[top.node] = index[next]
					}
				}
				continue
			}

			call = call[:len(call)-1]
			if len(call) > 0 {
				parent := call[len(call)-1]
				if lowlink[top.node] < lowlink[parent.node] {
					lowlink[parent.node] = lowlink[top.node]
				}
			}

			if lowlink[top.node] == index[top.node] {
				var scc []string
				for {
					n := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[n] = false
					scc = append(scc, n)
					if n == top.node {
						break
					}
				}
				sccs = append(sccs, scc)
			}
		}
	}
	return sccs
}
