package diag

import "github.com/fshlint/maki/location"

// Issue represents a single diagnostic issue.
//
// Issue is immutable after construction. All fields are unexported to preserve
// immutability; use accessor methods to read values. Construct Issues using
// [NewIssue] and [IssueBuilder].
//
// Direct struct literal construction bypasses validity checks and will cause
// panics when the issue is collected via [Collector.Collect].
//
// Zero-value note: The Go zero value for Severity is Fatal (value 0). When
// constructing Issue literals in tests, set severity explicitly to avoid
// unintentionally creating Fatal issues.
type Issue struct {
	span        location.Span          // source location; check HasSpan() or span.IsZero()
	sourceName  string                 // export-time artifact label (e.g. a canonical URL)
	path        string                 // FHIR element path (e.g., "Patient.name.given")
	severity    Severity               // issue severity level
	code        Code                   // stable programmatic identifier
	message     string                 // human-readable description (no embedded locations)
	hint        string                 // optional resolution suggestion
	related     []location.RelatedInfo // additional locations (e.g., "previous definition here")
	details     []Detail               // additional key-value context
	suggestions []Suggestion           // proposed autofix edits, if any
}

// Severity returns the issue's severity level.
func (i Issue) Severity() Severity {
	return i.severity
}

// Code returns the issue's stable programmatic identifier.
func (i Issue) Code() Code {
	return i.code
}

// Message returns the human-readable description.
//
// Messages should not contain embedded locations; use [Span], [SourceName],
// and [Path] for location information.
func (i Issue) Message() string {
	return i.message
}

// Span returns the source location span.
//
// Use [HasSpan] to check if the span is present, or check span.IsZero().
func (i Issue) Span() location.Span {
	return i.span
}

// SourceName returns the export-time artifact label.
//
// This is typically a StructureDefinition canonical URL or an exported file
// name, used for diagnostics raised during path resolution or export rather
// than during FSH parsing.
func (i Issue) SourceName() string {
	return i.sourceName
}

// Path returns the FHIR element path.
//
// This identifies a location within a resolved structure
// (e.g., "Patient.name.given") for diagnostics that are not anchored to a
// span in FSH source text.
func (i Issue) Path() string {
	return i.path
}

// Hint returns the optional resolution suggestion.
func (i Issue) Hint() string {
	return i.hint
}

// HasSpan reports whether the issue has a non-zero span.
//
// Use this instead of manually checking Span().IsZero() for clarity.
func (i Issue) HasSpan() bool {
	return !i.span.IsZero()
}

// IsZero reports whether the issue is a zero value.
//
// A zero-value issue has no code, no message, and no provenance.
func (i Issue) IsZero() bool {
	return i.code.IsZero() && i.message == "" && i.span.IsZero() &&
		i.sourceName == "" && i.path == ""
}

// IsValid reports whether the issue has the minimum required fields set.
//
// An issue is valid if it has:
//   - A valid code (not zero)
//   - A non-empty message
//   - A valid severity (not an undefined value like Severity(255))
//
// This method exists for documentation and testing; production code using
// [IssueBuilder] never needs to call it because the builder guarantees validity.
// The severity check catches diag-internal mistakes where issues are constructed
// directly rather than via the builder pattern.
func (i Issue) IsValid() bool {
	return !i.code.IsZero() &&
		i.message != "" &&
		i.severity <= Hint // Hint (4) is the highest valid severity value
}

// IsSchemaOnly reports whether the issue has span provenance but no FHIR
// element path.
//
// Schema-only issues are typically from lexing, parsing, or rule execution
// against FSH source text, and carry a source location but no export-time
// element path.
//
// Note: SourceName without Path provides artifact-level provenance but is
// not sufficient for path-specific classification. This method only checks
// Span and Path—issues with only SourceName return false.
func (i Issue) IsSchemaOnly() bool {
	return i.HasSpan() && i.path == ""
}

// IsInstanceOnly reports whether the issue has a FHIR element path but no
// span.
//
// Path-only issues are typically raised during path resolution or profile
// export, where the diagnostic concerns a resolved StructureDefinition
// element rather than a location in FSH source text.
//
// Note: SourceName without Path provides artifact-level provenance but is
// not considered path-specific. This method requires a non-empty Path.
func (i Issue) IsInstanceOnly() bool {
	return !i.HasSpan() && i.path != ""
}

// IsHybrid reports whether the issue has both span and path information.
//
// Hybrid issues occur when a rule diagnostic raised against FSH source text
// is enriched with the resolved FHIR element path it targets (e.g. an
// obeys-rule violation annotated with both the rule's span and the
// invariant's element path).
func (i Issue) IsHybrid() bool {
	return i.HasSpan() && i.path != ""
}

// Related returns a copy of the related location information.
//
// Returns nil if no related info is present. The returned slice is a defensive
// copy; modifications do not affect the original issue.
//
// Ordering contract: When related locations represent an ordered sequence
// (e.g., import cycles, call chains), slice order is significant: index 0
// is the first step, index N-1 is the last. For unordered collections,
// order is arbitrary but stable.
func (i Issue) Related() []location.RelatedInfo {
	if len(i.related) == 0 {
		return nil
	}
	cp := make([]location.RelatedInfo, len(i.related))
	copy(cp, i.related)
	return cp
}

// Details returns a copy of the detail key-value pairs.
//
// Returns nil if no details are present. The returned slice is a defensive
// copy; modifications do not affect the original issue.
func (i Issue) Details() []Detail {
	if len(i.details) == 0 {
		return nil
	}
	cp := make([]Detail, len(i.details))
	copy(cp, i.details)
	return cp
}

// Suggestions returns a copy of the proposed autofix edits.
//
// Returns nil if no suggestions are present. The returned slice is a
// defensive copy; modifications do not affect the original issue.
func (i Issue) Suggestions() []Suggestion {
	if len(i.suggestions) == 0 {
		return nil
	}
	cp := make([]Suggestion, len(i.suggestions))
	copy(cp, i.suggestions)
	return cp
}

// HasSuggestions reports whether the issue carries at least one autofix
// suggestion.
func (i Issue) HasSuggestions() bool {
	return len(i.suggestions) > 0
}

// Clone returns a deep copy of the issue.
//
// INVARIANT: All slice element types (RelatedInfo, Detail) must not contain
// mutable reference fields (maps, slices, pointers, funcs, chans). Strings
// are permitted (immutable). If mutable reference fields are ever added to
// these types, this method must be updated to deep-copy their targets to
// preserve immutability guarantees.
func (i Issue) Clone() Issue {
	clone := i
	if len(i.related) > 0 {
		clone.related = make([]location.RelatedInfo, len(i.related))
		copy(clone.related, i.related)
	}
	if len(i.details) > 0 {
		clone.details = make([]Detail, len(i.details))
		copy(clone.details, i.details)
	}
	if len(i.suggestions) > 0 {
		clone.suggestions = make([]Suggestion, len(i.suggestions))
		copy(clone.suggestions, i.suggestions)
	}
	return clone
}
