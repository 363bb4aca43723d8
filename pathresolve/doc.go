// Package pathresolve implements SUSHI's findElementByPath algorithm: it
// navigates an FSH element path (e.g. "name.given", "deceased[x]",
// "component[systolic].value") to the FHIR ElementDefinition it names
// inside a StructureDefinition snapshot or differential, fetching and
// splicing in a referenced complex type's own elements ("unfolding")
// whenever the current snapshot doesn't yet contain the path being asked
// for.
package pathresolve
