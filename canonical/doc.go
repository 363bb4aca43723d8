// Package canonical resolves FHIR resource identifiers (bare names, ids, or
// canonical URLs) against a run's own definitions and against externally
// installed FHIR packages, following SUSHI's three-tier fishing pattern:
// already-exported resources first, then FSH definitions parsed in this
// run, then external FHIR packages. The tank tier is special: finding an
// identifier there blocks tier three even when nothing is returned, so a
// local definition that has not been exported yet still shadows an
// external definition sharing its name.
package canonical
