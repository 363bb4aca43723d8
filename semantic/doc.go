// Package semantic builds the semantic model for a single parsed FSH
// source: one [FhirResource] per top-level definition, a symbol table
// keyed by resource name, an alias table keyed by alias name, and a flat
// list of every identifier reference the document contains.
//
// [BuildSemanticModel] walks a [cst.Node] document exactly once. It never
// resolves an identifier against another file or an external package —
// that is the canonical resolver's job (see the canonical package) — and
// it never rejects a duplicate name or alias, since duplicate detection is
// itself a lint rule rather than a construction-time invariant. The model
// it produces is immutable; re-parsing the source produces a new one.
package semantic
