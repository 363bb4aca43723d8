package semantic

import "github.com/fshlint/maki/location"

// ResourceKind identifies which of the nine top-level FSH definition forms
// a [FhirResource] was materialized from.
type ResourceKind int

const (
	KindUnspecified ResourceKind = iota
	KindProfile
	KindExtension
	KindValueSet
	KindCodeSystem
	KindInstance
	KindInvariant
	KindRuleSet
	KindMapping
	KindLogical
)

func (k ResourceKind) String() string {
	switch k {
	case KindProfile:
		return "Profile"
	case KindExtension:
		return "Extension"
	case KindValueSet:
		return "ValueSet"
	case KindCodeSystem:
		return "CodeSystem"
	case KindInstance:
		return "Instance"
	case KindInvariant:
		return "Invariant"
	case KindRuleSet:
		return "RuleSet"
	case KindMapping:
		return "Mapping"
	case KindLogical:
		return "Logical"
	default:
		return "Unspecified"
	}
}

// FhirResource is one top-level FSH definition: a Profile, Extension,
// ValueSet, CodeSystem, Instance, Invariant, RuleSet, Mapping, or Logical.
//
// Fields that a given resource kind does not use are left at their zero
// value — an Invariant has no Parent, a ValueSet has no InstanceOf, and so
// on. Metadata holds clause values that don't warrant their own field
// (Severity, XPath, Expression, Source, Target, Context, Usage) keyed by
// the clause name.
type FhirResource struct {
	Kind ResourceKind

	// Name is the identifier following the definition keyword, e.g. the
	// "MyPatient" in "Profile: MyPatient". Every resource has one.
	Name     string
	NameSpan location.Span

	Id          string
	IdSpan      location.Span
	Title       string
	TitleSpan   location.Span
	Description string

	// Parent is the identifier or canonical URL named by a Parent clause
	// (Profile, Extension, ValueSet, CodeSystem, Logical, Resource) or, for
	// an Instance, its InstanceOf clause. Empty when the resource has
	// neither.
	Parent     string
	ParentSpan location.Span

	// Metadata holds clause values not promoted to their own field:
	// "Usage", "Source", "Target", "Severity", "XPath", "Expression",
	// "Context".
	Metadata map[string]string

	// Rules holds every rule line in the resource's body, in source order.
	Rules []Rule

	// Location spans the entire definition, from its keyword through its
	// last rule.
	Location location.Span
}

// MetadataValue returns the value of a metadata clause by name (e.g.
// "Severity", "XPath"), or "" if the resource has no such clause.
func (r *FhirResource) MetadataValue(key string) string {
	return r.Metadata[key]
}
