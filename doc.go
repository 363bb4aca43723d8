// Package maki provides linting, formatting, and profile export for FHIR
// Shorthand (FSH).
//
// FSH is the authoring language SUSHI compiles into FHIR conformance
// resources (StructureDefinition, ValueSet, CodeSystem, and the rest of an
// Implementation Guide's canonical artifacts). This module implements the
// toolchain around that language directly, rather than around SUSHI's own
// output, so a project's diagnostics are available before (and without)
// running a full IG build.
//
// # Architecture Overview
//
// The module is organized into tiers with one-directional dependencies:
//
//	Foundation tier (no dependencies outside the tier; diag imports location):
//	  - location: source positions, spans, and canonical paths
//	  - diag: structured diagnostics with stable error codes
//
//	Syntax tier:
//	  - lexer: hand-written, trivia-preserving FSH tokenizer
//	  - cst: lossless concrete syntax tree node/token types
//	  - parser: hierarchical recursive-descent parser over the lexer's tokens
//	  - sourcemap: byte-offset to line/column conversion
//
//	Semantic tier:
//	  - semantic: single-file semantic model (definitions, rules, symbols)
//	  - depgraph: cross-file dependency graph and processing batches
//	  - canonical: three-tier resource resolution (package, tank, external)
//	  - pathresolve: FHIR element path resolution against StructureDefinitions
//
//	Analysis and output tier:
//	  - rule: built-in and configured lint rules
//	  - export: Profile to StructureDefinition compilation
//	  - format: canonical FSH layout
//	  - autofix: safe and unsafe fix application
//
//	Orchestration tier:
//	  - orchestrate: worker-pool file pipeline and dependency-batched export
//	  - config: .makirc discovery and layered loading
//	  - lspbridge: diagnostic conversion to Language Server Protocol types
//
//	Entry point:
//	  - cmd/makilint: the lint/fmt/rules/config command-line tool
//
// Supporting internal packages (internal/ident, internal/textlit,
// internal/trace, internal/hygiene) carry identifier case conversion,
// string literal unescaping, operation-boundary logging, and the test that
// enforces the foundation tier's import constraints, respectively.
package maki
