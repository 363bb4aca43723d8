// Package export transforms a parsed Profile definition into a FHIR
// StructureDefinition, following SUSHI's resolve-seed-apply-differential
// pipeline: fish the parent definition, clear what a profile must not
// inherit, apply each rule against the inherited snapshot, then author a
// differential directly from the rules rather than diffing snapshots.
package export
