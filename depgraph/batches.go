package depgraph

import "sort"

// ProcessingBatches groups every node by the longest distance from any root
// (a node with no outgoing dependency edges, i.e. nothing it depends on).
// All nodes in the same batch are independent of each other and can be
// processed in parallel; batch 0 holds the roots, batch 1 holds nodes whose
// dependencies are all satisfied by batch 0, and so on.
//
// ProcessingBatches assumes the graph is acyclic; call TopologicalSort first
// if that has not already been established. A cyclic graph still yields a
// batch for every node, but the edge that closes each cycle is ignored, so
// those batches do not respect the cycle's dependencies.
func (g *Graph) ProcessingBatches() [][]string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	distance := make(map[string]int, len(g.order))
	var longestDistance func(name string, visiting map[string]bool) int
	longestDistance = func(name string, visiting map[string]bool) int {
		if d, ok := distance[name]; ok {
			return d
		}
		if visiting[name] {
			// Part of a cycle; treat as a root so the rest of the graph can
			// still be batched.
			return 0
		}
		deps := g.out[name]
		if len(deps) == 0 {
			distance[name] = 0
			return 0
		}
		visiting[name] = true
		best := 0
		for _, e := range deps {
			if d := longestDistance(e.To, visiting) + 1; d > best {
				best = d
			}
		}
		delete(visiting, name)
		distance[name] = best
		return best
	}

	maxDistance := 0
	for _, n := range g.order {
		d := longestDistance(n, make(map[string]bool))
		if d > maxDistance {
			maxDistance = d
		}
	}

	batches := make([][]string, maxDistance+1)
	for _, n := range g.order {
		d := distance[n]
		batches[d] = append(batches[d], n)
	}
	for _, batch := range batches {
		sort.Strings(batch)
	}
	return batches
}
