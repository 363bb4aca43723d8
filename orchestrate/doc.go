// Package orchestrate schedules the two parallel phases of a linter run:
// independent file-level work (parse, analyze, lint, format) distributed
// across a worker pool, and dependency-ordered export, which walks a
// [github.com/fshlint/maki/depgraph.Graph]'s processing batches and runs
// every export within a batch concurrently before moving to the next.
//
// Cancellation is cooperative throughout: a cancelled context stops new
// work from starting between files and between export batches, but never
// interrupts work already in flight.
package orchestrate
