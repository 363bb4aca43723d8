package depgraph

import (
	"strings"

	"github.com/fshlint/maki/semantic"
)

// primitiveTypes are FHIR's built-in primitive data types. A dependency on
// one of these is never worth a graph edge: primitives have no definition
// of their own to order processing around.
var primitiveTypes = map[string]bool{
	"boolean": true, "integer": true, "string": true, "decimal": true,
	"uri": true, "url": true, "canonical": true, "base64Binary": true,
	"instant": true, "date": true, "dateTime": true, "time": true,
	"code": true, "oid": true, "id": true, "markdown": true,
	"unsignedInt": true, "positiveInt": true, "uuid": true,
	"xhtml": true, "integer64": true,
}

// IsPrimitiveType reports whether name is a FHIR primitive data type, as
// opposed to a named resource, profile, or complex type.
func IsPrimitiveType(name string) bool {
	return primitiveTypes[name]
}

// builtinResources are the core FHIR resource and base types that every
// implementation guide can assume exist without defining them locally. A
// target name in this set resolves outside the run's own definitions, so
// the canonical resolver should not flag it as a missing dependency.
var builtinResources = map[string]bool{
	"Resource": true, "DomainResource": true, "Element": true, "BackboneElement": true,
	"Patient": true, "Practitioner": true, "PractitionerRole": true, "Organization": true,
	"Observation": true, "Condition": true, "Procedure": true, "Encounter": true,
	"Medication": true, "MedicationRequest": true, "MedicationStatement": true,
	"AllergyIntolerance": true, "DiagnosticReport": true, "CarePlan": true,
	"CareTeam": true, "Goal": true, "Immunization": true, "Location": true,
	"Device": true, "DeviceRequest": true, "ServiceRequest": true, "Specimen": true,
	"Coverage": true, "Claim": true, "ExplanationOfBenefit": true,
	"RelatedPerson": true, "Person": true, "Group": true, "HealthcareService": true,
	"Bundle": true, "Composition": true, "DocumentReference": true,
	"Provenance": true, "AuditEvent": true, "Consent": true,
	"Questionnaire": true, "QuestionnaireResponse": true,
	"StructureDefinition": true, "ValueSet": true, "CodeSystem": true,
	"ConceptMap": true, "ImplementationGuide": true, "CapabilityStatement": true,
	"OperationDefinition": true, "SearchParameter": true,
	"Extension": true, "Identifier": true, "HumanName": true, "Address": true,
	"ContactPoint": true, "Period": true, "Quantity": true, "Range": true,
	"Ratio": true, "Attachment": true, "CodeableConcept": true, "Coding": true,
	"Reference": true, "Annotation": true, "Signature": true, "Timing": true,
	"Dosage": true, "Money": true, "Duration": true, "Age": true, "Count": true,
	"Distance": true, "SampledData": true, "ContactDetail": true, "Meta": true,
	"Narrative": true, "UsageContext": true, "Expression": true, "Population": true,
}

// IsBuiltinResource reports whether name is one of the FHIR core resources
// or base/complex types that the run does not need a local definition for.
func IsBuiltinResource(name string) bool {
	return builtinResources[name]
}

// BuildGraph derives a dependency graph from one or more parsed files'
// semantic models. Every resource across every model becomes a node (by
// name; duplicates under the same name share one node, and the graph does
// not adjudicate which definition of a name "wins"); every field that names
// another definition becomes an edge, with alias names resolved against
// the owning model's alias table before the edge is recorded.
func BuildGraph(models []*semantic.Model) *Graph {
	g := newGraph()

	for _, m := range models {
		for _, res := range m.Resources() {
			g.addNodeLocked(res.Name)
		}
	}

	for _, m := range models {
		for _, res := range m.Resources() {
			analyzeResource(g, m, res)
		}
	}

	return g
}

func analyzeResource(g *Graph, m *semantic.Model, res *semantic.FhirResource) {
	if res.Parent != "" {
		target := resolveAlias(m, res.Parent)
		if !IsPrimitiveType(target) {
			depType := Parent
			if res.Kind == semantic.KindInstance {
				depType = InstanceOf
			}
			g.addEdge(res.Name, target, depType, res.ParentSpan)
		}
	}

	for _, rule := range res.Rules {
		switch rule.Kind {
		case semantic.RuleOnly:
			for _, raw := range rule.OnlyTypes {
				for _, name := range onlyTypeNames(raw) {
					target := resolveAlias(m, name)
					if !IsPrimitiveType(target) {
						g.addEdge(res.Name, target, TypeReference, rule.PathSpan)
					}
				}
			}

		case semantic.RuleValueset:
			if rule.ValuesetTarget == "" {
				continue
			}
			target := resolveAlias(m, rule.ValuesetTarget)
			depType := ValueSetBinding
			if res.Kind == semantic.KindCodeSystem {
				depType = CodeSystemReference
			}
			g.addEdge(res.Name, target, depType, rule.PathSpan)

		case semantic.RuleObeys:
			for _, inv := range rule.Invariants {
				g.addEdge(res.Name, resolveAlias(m, inv), ProfileReference, rule.PathSpan)
			}

		case semantic.RuleContains:
			for _, item := range rule.ContainsItems {
				g.addEdge(res.Name, resolveAlias(m, item.Name), ExtensionReference, item.NameSpan)
			}

		case semantic.RuleFixedValue, semantic.RuleCaretValue:
			if name, ok := bareIdentifierValue(rule.Value); ok {
				target := resolveAlias(m, name)
				if !IsPrimitiveType(target) {
					g.addEdge(res.Name, target, TypeReference, rule.Span)
				}
			}

		case semantic.RuleInsert:
			if rule.RuleSetName != "" {
				g.addEdge(res.Name, resolveAlias(m, rule.RuleSetName), ProfileReference, rule.Span)
			}
		}
	}
}

// resolveAlias expands name if it is a declared alias ("$sct" ->
// "http://snomed.info/sct"); otherwise it returns name unchanged.
func resolveAlias(m *semantic.Model, name string) string {
	if !strings.HasPrefix(name, "$") {
		return name
	}
	if resolved, ok := m.Aliases().Resolve(name); ok {
		return resolved
	}
	return name
}

// onlyTypeNames extracts the underlying type name(s) referenced by one
// OnlyRule type entry: a bare type ("Quantity"), or the comma/or-separated
// inner types of a Reference(...)/Canonical(...) aggregation.
func onlyTypeNames(raw string) []string {
	open := strings.IndexByte(raw, '(')
	if open < 0 || !strings.HasSuffix(raw, ")") {
		return []string{raw}
	}
	inner := raw[open+1 : len(raw)-1]
	var names []string
	for _, word := range strings.Fields(inner) {
		if word == "or" {
			continue
		}
		names = append(names, word)
	}
	return names
}

// bareIdentifierValue reports whether value (a FixedValueRule/CaretValueRule
// right-hand side) is a bare identifier rather than a code, string, number,
// or boolean literal, returning that identifier if so.
func bareIdentifierValue(value string) (string, bool) {
	if value == "" {
		return "", false
	}
	switch value[0] {
	case '#', '"', '\'', '+', '-', '.':
		return "", false
	}
	if value[0] >= '0' && value[0] <= '9' {
		return "", false
	}
	if value == "true" || value == "false" {
		return "", false
	}
	for _, r := range value {
		if !(r == '_' || r == '-' || r == '.' || r == ':' || r == '/' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return "", false
		}
	}
	return value, true
}
