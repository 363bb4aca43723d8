package semantic

import (
	"strconv"

	"github.com/fshlint/maki/location"
)

// RuleKind identifies which FSH rule form a [Rule] was built from.
type RuleKind int

const (
	RuleUnspecified RuleKind = iota
	RuleCard
	RuleFlag
	RuleOnly
	RuleValueset
	RuleFixedValue
	RuleContains
	RuleObeys
	RuleCaretValue
	RuleInsert
)

func (k RuleKind) String() string {
	switch k {
	case RuleCard:
		return "CardRule"
	case RuleFlag:
		return "FlagRule"
	case RuleOnly:
		return "OnlyRule"
	case RuleValueset:
		return "ValuesetRule"
	case RuleFixedValue:
		return "FixedValueRule"
	case RuleContains:
		return "ContainsRule"
	case RuleObeys:
		return "ObeysRule"
	case RuleCaretValue:
		return "CaretValueRule"
	case RuleInsert:
		return "InsertRule"
	default:
		return "Unspecified"
	}
}

// Cardinality is a parsed "min..max" constraint, from a CardRule or a
// ContainsItem's inline cardinality. Max of "*" is represented as
// MaxUnbounded with Max left at its zero value.
type Cardinality struct {
	Min          int
	Max          int
	MaxUnbounded bool
	Span         location.Span
}

// MaxString renders Max the way it appeared in source: "*" if unbounded,
// otherwise the integer.
func (c Cardinality) MaxString() string {
	if c.MaxUnbounded {
		return "*"
	}
	return strconv.Itoa(c.Max)
}

// ContainsItem is one named slice in a ContainsRule's item list, e.g. the
// "systolic 1..1 MS" in "* component contains systolic 1..1 MS and
// diastolic 1..1 MS".
type ContainsItem struct {
	Name        string
	NameSpan    location.Span
	Cardinality *Cardinality // nil if the item carried no inline cardinality
	MustSupport bool
	IsSummary   bool
}

// InsertParam is one parameter passed to an inserted RuleSet, either
// positional ("foo") or a bracketed soft-indexed value ("{foo}").
type InsertParam struct {
	Text string
	Span location.Span
}

// Rule is one rule line within a [FhirResource]'s body. Fields that the
// rule's Kind doesn't use are left at their zero value: an OnlyRule has no
// Cardinality, a CardRule has no OnlyTypes, and so on.
type Rule struct {
	Kind RuleKind

	// Path is the dotted element path the rule applies to, reconstructed
	// verbatim from the CST (e.g. "component.value[x]", "^extension[FMM]").
	// Empty for InsertRule, which names a RuleSet instead of a path.
	Path     string
	PathSpan location.Span

	Span location.Span

	// CardRule / inline flags shared with ContainsItem.
	Cardinality *Cardinality
	MustSupport bool
	IsSummary   bool

	// FlagRule carries only flags, no cardinality; MustSupport/IsSummary
	// above cover it.

	// MustSupportCount and IsSummaryCount record how many MS/SU tokens
	// this rule's flag run actually held, so a rule line that spells a
	// flag more than once ("1..1 MS MS") can be told apart from one that
	// spells it exactly once; MustSupport/IsSummary only capture "at
	// least one".
	MustSupportCount int
	IsSummaryCount   int

	// OnlyRule: the allowed type list.
	OnlyTypes []string

	// ValuesetRule: the bound value set identifier or URL, and the
	// parenthesized binding strength if present (required, extensible,
	// preferred, example). BindingStrength is empty when the source
	// omitted it.
	ValuesetTarget  string
	BindingStrength string

	// FixedValueRule / CaretValueRule: the operator ("=" or "+=") and the
	// right-hand value's raw source text, already unquoted if it was a
	// string literal. ValueIsString distinguishes a quoted string from a
	// bare code/identifier of the same shape once the quotes are gone.
	Operator      string
	Value         string
	ValueIsString bool

	// ObeysRule: the invariant ids named.
	Invariants []string

	// ContainsRule: the slice items.
	ContainsItems []ContainsItem

	// InsertRule: the RuleSet name and its parameters, if any.
	RuleSetName   string
	RuleSetParams []InsertParam
}
