package semantic

import "github.com/fshlint/maki/location"

// ReferenceContext classifies where a [Reference] was found.
type ReferenceContext int

const (
	RefUnspecified ReferenceContext = iota

	// RefPath marks an identifier occurring in a rule's element path (a
	// path segment's base name, excluding the "*" wildcard segment).
	RefPath

	// RefParentClause marks the identifier named by a Parent or InstanceOf
	// clause.
	RefParentClause

	// RefValue marks an identifier occurring on the right-hand side of a
	// rule: an OnlyRule type, a ValuesetRule target, an ObeysRule
	// invariant id, a ContainsRule item name, an InsertRule RuleSet name,
	// or a bare identifier value in a FixedValueRule/CaretValueRule.
	RefValue
)

func (c ReferenceContext) String() string {
	switch c {
	case RefPath:
		return "path"
	case RefParentClause:
		return "parent-clause"
	case RefValue:
		return "value"
	default:
		return "unspecified"
	}
}

// Reference is one identifier occurrence recorded while building the
// semantic model, independent of whether it resolves to anything. The
// rule engine and the LSP bridge use the reference list for go-to-definition
// and find-references; the dependency graph derives its edges directly from
// FhirResource fields rather than replaying this list.
type Reference struct {
	Name string
	Span location.Span

	// Resource is the FhirResource whose body this reference occurred in.
	Resource *FhirResource

	Context ReferenceContext
}
