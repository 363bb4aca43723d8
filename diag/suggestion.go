package diag

import "github.com/fshlint/maki/location"

// Applicability classifies how safe a [Suggestion] is to apply without
// review.
type Applicability uint8

const (
	// ApplicabilityUnspecified means no applicability was set; renderers
	// treat this the same as MaybeIncorrect.
	ApplicabilityUnspecified Applicability = iota

	// ApplicabilityAutomatic means the fix is safe to apply without review
	// (e.g. swapping a cardinality's min and max when min > max).
	ApplicabilityAutomatic

	// ApplicabilityMaybeIncorrect means the fix is plausible but may change
	// behavior in ways the rule cannot verify; a reviewer should confirm it.
	ApplicabilityMaybeIncorrect
)

// String returns a short label suitable for rendering next to a suggestion.
func (a Applicability) String() string {
	switch a {
	case ApplicabilityAutomatic:
		return "safe"
	case ApplicabilityMaybeIncorrect:
		return "unsafe"
	default:
		return "unsafe"
	}
}

// Suggestion is a proposed source-text edit attached to an Issue.
//
// Suggestions come from a rule's autofix template once its captures are
// interpolated; Replacement is the literal text that should replace the
// content at Span. A diagnostic may carry more than one suggestion when a
// rule offers alternatives.
type Suggestion struct {
	Span          location.Span
	Replacement   string
	Message       string
	Applicability Applicability
}

// IsZero reports whether the suggestion is unset.
func (s Suggestion) IsZero() bool {
	return s.Span.IsZero() && s.Replacement == "" && s.Message == ""
}
