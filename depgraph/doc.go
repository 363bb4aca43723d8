// Package depgraph builds a dependency graph over a run's [semantic.Model]s
// and exposes the two operations downstream processing needs: a
// topological ordering (dependencies before dependents) and a batching of
// that ordering into groups that can be processed in parallel.
//
// An edge runs from a dependent definition to the definition it depends on:
// a Profile's Parent, a ValuesetRule's binding target, a ContainsRule item
// naming an extension, and so on. Nodes are identified by resource name, not
// by canonical URL — resolving a name to a URL is the canonical resolver's
// job, not the graph's.
package depgraph
