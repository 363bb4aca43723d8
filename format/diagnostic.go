package format

import (
	"strings"

	"github.com/fshlint/maki/diag"
	"github.com/fshlint/maki/location"
)

// NeedsFormattingIssue reports the formatter/needs-formatting diagnostic for
// a file whose formatted form differs from its current content. It returns
// false if result reflects no change. The issue's span covers the whole
// file and carries a safe suggestion whose replacement is the formatted
// text, so a fix-all pass can apply it without review.
func NeedsFormattingIssue(source location.SourceID, original string, result Result) (diag.Issue, bool) {
	if !result.Changed {
		return diag.Issue{}, false
	}

	lines := strings.Count(original, "\n") + 1
	lastLineLen := len(original)
	if idx := strings.LastIndexByte(original, '\n'); idx >= 0 {
		lastLineLen = len(original) - idx - 1
	}
	span := location.RangeWithBytes(source, 1, 1, 0, lines, lastLineLen+1, len(original))

	issue := diag.NewIssue(diag.Info, diag.NewRuleCode("formatter/needs-formatting"), "file is not formatted").
		WithSpan(span).
		WithHint("run the formatter to apply the suggested layout").
		WithSuggestion(diag.Suggestion{
			Span:          span,
			Replacement:   result.Formatted,
			Message:       "format file",
			Applicability: diag.ApplicabilityAutomatic,
		}).
		Build()

	return issue, true
}
