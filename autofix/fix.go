package autofix

import (
	"fmt"

	"github.com/fshlint/maki/diag"
	"github.com/fshlint/maki/location"
)

// Fix is one concrete text edit derived from a diagnostic's suggestion.
type Fix struct {
	ID            string
	RuleID        string
	Description   string
	Span          location.Span
	Replacement   string
	Applicability diag.Applicability
	Priority      int
}

// priorityFor assigns a default conflict-resolution weight by how safe the
// suggestion is: safe fixes should win over unsafe ones covering the same
// span whenever both are in play (interactive/unsafe mode), without needing
// a rule author to set a priority explicitly.
func priorityFor(a diag.Applicability) int {
	if a == diag.ApplicabilityAutomatic {
		return 10
	}
	return 5
}

// IsSafe reports whether this fix can be applied without the unsafe flag.
func (f Fix) IsSafe() bool {
	return f.Applicability == diag.ApplicabilityAutomatic
}

// span returns the fix's byte range as [start, end).
func (f Fix) span() (int, int) {
	return f.Span.Start.Byte, f.Span.End.Byte
}

// ConflictsWith reports whether f and other edit overlapping byte ranges
// in the same source, per the linter's conflict contract:
// a.end > b.start && b.end > a.start. Ranges that only share a boundary
// (one ends where the other starts) do not conflict.
func (f Fix) ConflictsWith(other Fix) bool {
	if f.Span.Source != other.Span.Source {
		return false
	}
	aStart, aEnd := f.span()
	bStart, bEnd := other.span()
	return aEnd > bStart && bEnd > aStart
}

// FromIssues generates one Fix per suggestion carried by each issue, in
// issue order and then suggestion order. Issues with no suggestions
// contribute nothing: not every diagnostic is autofixable.
func FromIssues(issues []diag.Issue) []Fix {
	var fixes []Fix
	for i, issue := range issues {
		for j, s := range issue.Suggestions() {
			fixes = append(fixes, Fix{
				ID:            fmt.Sprintf("%s-%d-%d", issue.Code().String(), i, j),
				RuleID:        issue.Code().String(),
				Description:   s.Message,
				Span:          s.Span,
				Replacement:   s.Replacement,
				Applicability: s.Applicability,
				Priority:      priorityFor(s.Applicability),
			})
		}
	}
	return fixes
}
