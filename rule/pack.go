package rule

import (
	"sort"

	"github.com/fshlint/maki/canonical"
	"github.com/fshlint/maki/diag"
	"github.com/fshlint/maki/semantic"
)

// RulePack is an ordered collection of compiled rules run together over a
// document.
type RulePack struct {
	rules []CompiledRule
}

// NewRulePack returns an empty rule pack.
func NewRulePack() *RulePack {
	return &RulePack{}
}

// BuiltinRulePack returns a rule pack preloaded with every built-in rule:
// duplicate-definition, duplicate-rule, duplicate-alias, valid-cardinality,
// cardinality-conflicts, unused-alias, and redundant-flag.
func BuiltinRulePack() *RulePack {
	pack := NewRulePack()
	pack.Add(
		NewDuplicateDefinitionRule(),
		NewDuplicateRuleRule(),
		NewDuplicateAliasRule(),
		NewValidCardinalityRule(),
		NewCardinalityConflictsRule(),
		NewUnusedAliasRule(),
		NewRedundantFlagRule(),
	)
	return pack
}

// Add appends rules to the pack, in the order given.
func (p *RulePack) Add(rules ...CompiledRule) {
	p.rules = append(p.rules, rules...)
}

// Rules returns every rule in the pack, in registration order.
func (p *RulePack) Rules() []CompiledRule {
	out := make([]CompiledRule, len(p.rules))
	copy(out, p.rules)
	return out
}

// Lookup returns the rule with the given ID, if the pack has one.
func (p *RulePack) Lookup(id string) (CompiledRule, bool) {
	for _, r := range p.rules {
		if r.ID() == id {
			return r, true
		}
	}
	return nil, false
}

// Len returns how many rules the pack holds.
func (p *RulePack) Len() int {
	return len(p.rules)
}

// Run executes every rule in the pack against model and returns the
// combined diagnostics, sorted by span start so results read top to
// bottom regardless of which rule produced them.
func (p *RulePack) Run(model *semantic.Model) []diag.Issue {
	var issues []diag.Issue
	for _, r := range p.rules {
		issues = append(issues, r.Check(model)...)
	}
	return sortIssues(issues)
}

// RunWithSession executes every rule in the pack against model, same as
// Run, except a rule that also implements [SessionAwareRule] runs
// CheckWithSession(model, session) in place of Check. Call this once a
// run's fishing tank has been assembled from every file, to give the few
// rules that need parent resolution (cardinality-conflicts among them) a
// chance to do the real comparison instead of falling back to their
// heuristic.
func (p *RulePack) RunWithSession(model *semantic.Model, session *canonical.FishingContext) []diag.Issue {
	var issues []diag.Issue
	for _, r := range p.rules {
		if sr, ok := r.(SessionAwareRule); ok {
			issues = append(issues, sr.CheckWithSession(model, session)...)
			continue
		}
		issues = append(issues, r.Check(model)...)
	}
	return sortIssues(issues)
}

func sortIssues(issues []diag.Issue) []diag.Issue {
	sort.SliceStable(issues, func(i, j int) bool {
		return spanLess(issues[i], issues[j])
	})
	return issues
}

func spanLess(a, b diag.Issue) bool {
	aHas, bHas := a.HasSpan(), b.HasSpan()
	if aHas != bHas {
		return aHas
	}
	if !aHas {
		return false
	}
	as, bs := a.Span(), b.Span()
	if as.Start.Line != bs.Start.Line {
		return as.Start.Line < bs.Start.Line
	}
	return as.Start.Column < bs.Start.Column
}
