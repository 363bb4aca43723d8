// Package hygiene provides programmatic verification of architectural invariants.
//
// This package contains tests that enforce layering constraints across the
// module. These tests serve as the authoritative gate for dependency hygiene;
// prose about package layering elsewhere is for convenience only.
//
// # Foundation Tier Import Rules
//
// The module has a tiered architecture where foundation packages must not
// import upper-tier packages:
//
//   - location: stdlib + golang.org/x/text/unicode/norm (no other packages)
//   - diag: stdlib + location + github.com/mattn/go-runewidth and
//     github.com/owenrumney/go-sarif (no upper-tier packages)
//
// Upper-tier packages that foundation packages must NOT import: lexer,
// parser, cst, sourcemap, semantic, depgraph, canonical, pathresolve, rule,
// export, format, autofix, orchestrate, config, lspbridge, internal/trace.
//
// # Test Coverage
//
// [TestFoundationImports] verifies these constraints using `go list -deps
// -test`, which includes both production and test dependencies. This
// catches cases where test files violate layering even if production code
// is clean.
package hygiene
