package rule

import (
	"fmt"

	"github.com/fshlint/maki/canonical"
	"github.com/fshlint/maki/diag"
	"github.com/fshlint/maki/pathresolve"
	"github.com/fshlint/maki/semantic"
)

// ValidCardinalityID is the rule ID for cardinality range validation
// (reversed bounds, explicit 0..0 prohibition).
const ValidCardinalityID = "blocking/valid-cardinality"

// CardinalityConflictsID is the rule ID for heuristic cardinality patterns
// that often indicate a conflict with the parent element's cardinality.
const CardinalityConflictsID = "correctness/cardinality-conflicts"

type validCardinalityRule struct{}

// NewValidCardinalityRule reports CardRule cardinalities that are
// impossible (min > max) or unusual (0..0, which is valid FSH but almost
// always a mistake).
func NewValidCardinalityRule() CompiledRule { return validCardinalityRule{} }

func (validCardinalityRule) ID() string                    { return ValidCardinalityID }
func (validCardinalityRule) DefaultSeverity() diag.Severity { return diag.Error }

func (validCardinalityRule) Check(model *semantic.Model) []diag.Issue {
	var issues []diag.Issue
	for _, res := range model.Resources() {
		for _, r := range res.Rules {
			if r.Kind != semantic.RuleCard || r.Cardinality == nil {
				continue
			}
			issues = append(issues, checkCardinalityRange(r)...)
		}
	}
	return issues
}

func checkCardinalityRange(r semantic.Rule) []diag.Issue {
	card := r.Cardinality
	var issues []diag.Issue

	if !card.MaxUnbounded && card.Max < card.Min {
		message := fmt.Sprintf(
			"invalid cardinality: minimum (%d) cannot be greater than maximum (%d); cardinality must be MIN..MAX where MIN <= MAX",
			card.Min, card.Max,
		)
		swapped := fmt.Sprintf("%d..%d", card.Max, card.Min)
		issues = append(issues, diag.NewIssue(diag.Error, diag.NewRuleCode(ValidCardinalityID), message).
			WithSpan(card.Span).
			WithSuggestion(diag.Suggestion{
				Span:          card.Span,
				Replacement:   swapped,
				Message:       fmt.Sprintf("swap to %s", swapped),
				Applicability: diag.ApplicabilityAutomatic,
			}).
			Build())
	}

	if !card.MaxUnbounded && card.Min == 0 && card.Max == 0 {
		message := "cardinality 0..0 explicitly prohibits this element; this is valid but unusual, confirm it is intentional"
		issues = append(issues, diag.NewIssue(diag.Warning, diag.NewRuleCode(ValidCardinalityID), message).
			WithSpan(card.Span).
			Build())
	}

	return issues
}

type cardinalityConflictsRule struct{}

// NewCardinalityConflictsRule flags CardRules that conflict with their
// element's cardinality. With a resolved [canonical.FishingContext]
// available (see CheckWithSession), it compares each CardRule against the
// parent StructureDefinition's cardinality at the same path and reports a
// real refinement violation; this is the primary check. Without a session,
// or when the parent or the element on it doesn't resolve, it falls back
// to a pattern heuristic: an unbounded max paired with a minimum greater
// than one.
func NewCardinalityConflictsRule() CompiledRule { return cardinalityConflictsRule{} }

func (cardinalityConflictsRule) ID() string                    { return CardinalityConflictsID }
func (cardinalityConflictsRule) DefaultSeverity() diag.Severity { return diag.Warning }

func (cardinalityConflictsRule) Check(model *semantic.Model) []diag.Issue {
	var issues []diag.Issue
	for _, res := range model.Resources() {
		for _, r := range res.Rules {
			if r.Kind != semantic.RuleCard || r.Cardinality == nil {
				continue
			}
			issues = append(issues, cardinalityHeuristicIssue(r)...)
		}
	}
	return issues
}

// CheckWithSession implements [SessionAwareRule]. For every Profile with a
// Parent that resolves, each of its CardRules is compared against the
// parent StructureDefinition's cardinality at the same element path; a
// child cardinality that is not a valid refinement of the parent's (a
// looser minimum or maximum) is a blocking error, grounded on the prior
// implementation's check_profile_cardinality_conflicts. A rule whose
// parent or parent-element cardinality doesn't resolve falls back to the
// same heuristic Check uses alone.
func (cardinalityConflictsRule) CheckWithSession(model *semantic.Model, session *canonical.FishingContext) []diag.Issue {
	if session == nil {
		return cardinalityConflictsRule{}.Check(model)
	}
	resolver := pathresolve.NewResolver(session)

	var issues []diag.Issue
	for _, res := range model.Resources() {
		if res.Kind != semantic.KindProfile || res.Parent == "" {
			issues = append(issues, cardinalityHeuristicIssues(res)...)
			continue
		}
		for _, r := range res.Rules {
			if r.Kind != semantic.RuleCard || r.Cardinality == nil {
				continue
			}
			if issue, ok := parentCardinalityConflict(resolver, res.Parent, r); ok {
				issues = append(issues, issue)
				continue
			}
			issues = append(issues, cardinalityHeuristicIssue(r)...)
		}
	}
	return issues
}

func cardinalityHeuristicIssues(res *semantic.FhirResource) []diag.Issue {
	var issues []diag.Issue
	for _, r := range res.Rules {
		if r.Kind != semantic.RuleCard || r.Cardinality == nil {
			continue
		}
		issues = append(issues, cardinalityHeuristicIssue(r)...)
	}
	return issues
}

// parentCardinalityConflict resolves parentID's element at r.Path and, if
// that element carries a cardinality, reports whether r's CardRule is a
// valid refinement of it. ok is false whenever the parent element's
// cardinality could not be resolved at all, signaling the caller should
// fall back to the heuristic instead.
func parentCardinalityConflict(resolver *pathresolve.Resolver, parentID string, r semantic.Rule) (diag.Issue, bool) {
	elem, err := resolver.ResolvePath(parentID, r.Path)
	if err != nil {
		return diag.Issue{}, false
	}
	parentMin, haveMin := elem.Min()
	parentMax, parentUnbounded, haveMax := elem.Max()
	if !haveMin && !haveMax {
		return diag.Issue{}, false
	}

	card := r.Cardinality
	if haveMin && card.Min < parentMin {
		return cardinalityConflictIssue(r, parentMin, parentMax, parentUnbounded), true
	}
	if haveMax && !parentUnbounded {
		if card.MaxUnbounded || card.Max > parentMax {
			return cardinalityConflictIssue(r, parentMin, parentMax, parentUnbounded), true
		}
	}
	return diag.Issue{}, false
}

func cardinalityConflictIssue(r semantic.Rule, parentMin, parentMax int, parentUnbounded bool) diag.Issue {
	parentCard := semantic.Cardinality{Min: parentMin, Max: parentMax, MaxUnbounded: parentUnbounded}
	message := fmt.Sprintf(
		"cardinality %d..%s for %q is not a valid refinement of the parent element's cardinality %d..%s",
		r.Cardinality.Min, r.Cardinality.MaxString(), r.Path, parentCard.Min, parentCard.MaxString(),
	)
	return diag.NewIssue(diag.Error, diag.NewRuleCode(CardinalityConflictsID), message).
		WithSpan(r.Cardinality.Span).
		Build()
}

func cardinalityHeuristicIssue(r semantic.Rule) []diag.Issue {
	var issues []diag.Issue
	card := r.Cardinality
	if card.MaxUnbounded && card.Min > 1 {
		message := fmt.Sprintf(
			"cardinality %d..* is unbounded with minimum %d; this may conflict with the parent element's cardinality, verify this is intentional",
			card.Min, card.Min,
		)
		issues = append(issues, diag.NewIssue(diag.Warning, diag.NewRuleCode(CardinalityConflictsID), message).
			WithSpan(card.Span).
			Build())
	}
	return issues
}
