package autofix

import (
	"strings"

	"github.com/fshlint/maki/location"
)

// score ranks a fix for conflict resolution: higher wins. Safe fixes are
// weighted far above anything else, then the caller-assigned priority,
// then a preference for smaller (less invasive) replacements, then a small
// bump for fixes attached to an error-level rule over a warning-level one.
func score(f Fix) int {
	s := 0
	if f.IsSafe() {
		s += 100
	}
	s += f.Priority

	replacementLen := len(f.Replacement)
	if replacementLen > 100 {
		replacementLen = 100
	}
	s += 100 - replacementLen

	if strings.Contains(f.RuleID, "error") {
		s += 50
	}
	return s
}

// ResolveConflicts partitions fixes by source file, groups each file's
// fixes into overlap clusters, and keeps only the highest-scoring fix from
// each cluster. Ties keep whichever fix was encountered first in fixes —
// the input's source order — since clusters are scanned left to right and
// a later fix only displaces the current best on a strict score increase.
func ResolveConflicts(fixes []Fix) []Fix {
	bySource := make(map[location.SourceID][]Fix)
	var order []location.SourceID
	for _, f := range fixes {
		if _, seen := bySource[f.Span.Source]; !seen {
			order = append(order, f.Span.Source)
		}
		bySource[f.Span.Source] = append(bySource[f.Span.Source], f)
	}

	var resolved []Fix
	for _, src := range order {
		resolved = append(resolved, resolveFileConflicts(bySource[src])...)
	}
	return resolved
}

// resolveFileConflicts clusters one file's fixes by transitive overlap and
// keeps the best-scoring fix per cluster.
func resolveFileConflicts(fixes []Fix) []Fix {
	n := len(fixes)
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if fixes[i].ConflictsWith(fixes[j]) {
				union(i, j)
			}
		}
	}

	clusters := make(map[int][]int)
	var clusterOrder []int
	for i := 0; i < n; i++ {
		root := find(i)
		if _, ok := clusters[root]; !ok {
			clusterOrder = append(clusterOrder, root)
		}
		clusters[root] = append(clusters[root], i)
	}

	var out []Fix
	for _, root := range clusterOrder {
		members := clusters[root]
		best := members[0]
		bestScore := score(fixes[best])
		for _, idx := range members[1:] {
			if s := score(fixes[idx]); s > bestScore {
				best, bestScore = idx, s
			}
		}
		out = append(out, fixes[best])
	}
	return out
}
