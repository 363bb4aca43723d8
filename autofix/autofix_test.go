package autofix_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fshlint/maki/autofix"
	"github.com/fshlint/maki/diag"
	"github.com/fshlint/maki/location"
)

var src = location.MustNewSourceID("patient.fsh")

func span(startByte, endByte int) location.Span {
	return location.RangeWithBytes(src, 1, startByte+1, startByte, 1, endByte+1, endByte)
}

func TestFromIssues_GeneratesOneFixPerSuggestion(t *testing.T) {
	issue := diag.NewIssue(diag.Warning, diag.NewRuleCode("style/spacing"), "bad spacing").
		WithSuggestion(diag.Suggestion{
			Span:          span(0, 3),
			Replacement:   "foo",
			Applicability: diag.ApplicabilityAutomatic,
		}).
		Build()

	fixes := autofix.FromIssues([]diag.Issue{issue})
	require.Len(t, fixes, 1)
	assert.Equal(t, "foo", fixes[0].Replacement)
	assert.True(t, fixes[0].IsSafe())
	assert.Equal(t, 10, fixes[0].Priority)
}

func TestFix_ConflictsWith_Overlap(t *testing.T) {
	a := autofix.Fix{Span: span(0, 5)}
	overlapping := autofix.Fix{Span: span(3, 8)}
	adjacent := autofix.Fix{Span: span(5, 10)} // shares a boundary but no byte range in common
	separate := autofix.Fix{Span: span(10, 15)}

	assert.True(t, a.ConflictsWith(overlapping))
	assert.False(t, a.ConflictsWith(adjacent))
	assert.False(t, a.ConflictsWith(separate))
}

func TestResolveConflicts_KeepsHighestScoringFixPerCluster(t *testing.T) {
	safe := autofix.Fix{ID: "safe", Span: span(0, 5), Replacement: "x", Applicability: diag.ApplicabilityAutomatic, Priority: 10}
	unsafe := autofix.Fix{ID: "unsafe", Span: span(2, 7), Replacement: "y", Applicability: diag.ApplicabilityMaybeIncorrect, Priority: 5}
	unrelated := autofix.Fix{ID: "unrelated", Span: span(20, 25), Replacement: "z", Applicability: diag.ApplicabilityAutomatic, Priority: 10}

	resolved := autofix.ResolveConflicts([]autofix.Fix{safe, unsafe, unrelated})

	ids := make([]string, len(resolved))
	for i, f := range resolved {
		ids[i] = f.ID
	}
	assert.ElementsMatch(t, []string{"safe", "unrelated"}, ids)
}

func TestResolveConflicts_TieBreaksToSourceOrder(t *testing.T) {
	first := autofix.Fix{ID: "first", Span: span(0, 5), Replacement: "xx", Applicability: diag.ApplicabilityAutomatic, Priority: 10}
	second := autofix.Fix{ID: "second", Span: span(0, 5), Replacement: "xx", Applicability: diag.ApplicabilityAutomatic, Priority: 10}

	resolved := autofix.ResolveConflicts([]autofix.Fix{first, second})
	require.Len(t, resolved, 1)
	assert.Equal(t, "first", resolved[0].ID)
}

func TestApplyToSource_AppliesSafeFixesInDescendingOffsetOrder(t *testing.T) {
	content := []byte("Profile: MyPatient\n")
	fixes := []autofix.Fix{
		{ID: "rename", Span: span(9, 18), Replacement: "YourPatient", Applicability: diag.ApplicabilityAutomatic},
	}

	result := autofix.ApplyToSource(src, content, fixes, autofix.DefaultConfig())
	assert.Equal(t, 1, result.AppliedCount)
	assert.Equal(t, 0, result.FailedCount)
	assert.Equal(t, "Profile: YourPatient\n", result.ModifiedContent)
}

func TestApplyToSource_SkipsUnsafeFixesUnlessConfigured(t *testing.T) {
	content := []byte("Profile: MyPatient\n")
	fixes := []autofix.Fix{
		{ID: "risky", Span: span(9, 18), Replacement: "Changed", Applicability: diag.ApplicabilityMaybeIncorrect},
	}

	result := autofix.ApplyToSource(src, content, fixes, autofix.DefaultConfig())
	assert.Equal(t, 0, result.AppliedCount)
	assert.Equal(t, string(content), result.ModifiedContent)

	unsafeCfg := autofix.DefaultConfig()
	unsafeCfg.ApplyUnsafe = true
	result = autofix.ApplyToSource(src, content, fixes, unsafeCfg)
	assert.Equal(t, 1, result.AppliedCount)
}

func TestApplyToSource_RecordsSyntaxValidationFailure(t *testing.T) {
	content := []byte("* ^extension[0].value = \"x\"\n")
	fixes := []autofix.Fix{
		{ID: "break-it", Span: span(12, 13), Replacement: "", Applicability: diag.ApplicabilityAutomatic},
	}

	result := autofix.ApplyToSource(src, content, fixes, autofix.DefaultConfig())
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message, "syntax validation failed")
}

func TestValidateFSHSyntax_IgnoresBracketsInStringsAndComments(t *testing.T) {
	content := "Title: \"Contains ) and ] and }\"\n// also (unbalanced here\n* ^status = #active\n"
	assert.NoError(t, autofix.ValidateFSHSyntax(content))
}

func TestValidateFSHSyntax_DetectsUnmatchedBracket(t *testing.T) {
	assert.Error(t, autofix.ValidateFSHSyntax("* extension[0.value = 1\n"))
}
