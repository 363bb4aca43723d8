package rule

import (
	"fmt"

	"github.com/fshlint/maki/diag"
	"github.com/fshlint/maki/semantic"
)

// UnusedAliasID is the rule ID for an Alias declaration that no rule in the
// document ever references.
const UnusedAliasID = "correctness/unused-alias"

// RedundantFlagID is the rule ID for a flag (MS or SU) spelled more than
// once on the same rule line.
const RedundantFlagID = "style/redundant-flag"

type unusedAliasRule struct{}

// NewUnusedAliasRule reports Alias declarations that are never referenced
// by any rule value, valueset binding, or invariant in the document. A
// name declared more than once is only reported if none of its
// declarations are used, so correctness/duplicate-alias stays responsible
// for flagging the duplication itself.
func NewUnusedAliasRule() CompiledRule { return unusedAliasRule{} }

func (unusedAliasRule) ID() string                    { return UnusedAliasID }
func (unusedAliasRule) DefaultSeverity() diag.Severity { return diag.Hint }

func (unusedAliasRule) Check(model *semantic.Model) []diag.Issue {
	used := make(map[string]bool)
	for _, ref := range model.References() {
		used[ref.Name] = true
	}

	var issues []diag.Issue
	for _, name := range model.Aliases().Names() {
		if used[name] {
			continue
		}
		issues = append(issues, diag.NewIssue(diag.Hint, diag.NewRuleCode(UnusedAliasID),
			fmt.Sprintf("alias %q is never referenced", name)).
			WithPath(model.Source().String(), "").
			WithHint(fmt.Sprintf("remove the unused Alias: %s declaration", name)).
			Build())
	}
	return issues
}

type redundantFlagRule struct{}

// NewRedundantFlagRule reports a CardRule or FlagRule whose flag run spells
// the same flag more than once, e.g. "* name 1..1 MS MS".
func NewRedundantFlagRule() CompiledRule { return redundantFlagRule{} }

func (redundantFlagRule) ID() string                    { return RedundantFlagID }
func (redundantFlagRule) DefaultSeverity() diag.Severity { return diag.Info }

func (redundantFlagRule) Check(model *semantic.Model) []diag.Issue {
	var issues []diag.Issue
	for _, res := range model.Resources() {
		for _, r := range res.Rules {
			if r.Kind != semantic.RuleCard && r.Kind != semantic.RuleFlag {
				continue
			}
			issues = append(issues, redundantFlagIssues(r)...)
		}
	}
	return issues
}

func redundantFlagIssues(r semantic.Rule) []diag.Issue {
	var issues []diag.Issue
	if r.MustSupportCount > 1 {
		issues = append(issues, diag.NewIssue(diag.Info, diag.NewRuleCode(RedundantFlagID),
			fmt.Sprintf("MS declared %d times on %q", r.MustSupportCount, r.Path)).
			WithSpan(r.Span).
			Build())
	}
	if r.IsSummaryCount > 1 {
		issues = append(issues, diag.NewIssue(diag.Info, diag.NewRuleCode(RedundantFlagID),
			fmt.Sprintf("SU declared %d times on %q", r.IsSummaryCount, r.Path)).
			WithSpan(r.Span).
			Build())
	}
	return issues
}
