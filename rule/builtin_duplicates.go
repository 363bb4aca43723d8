package rule

import (
	"fmt"
	"strings"

	"github.com/fshlint/maki/diag"
	"github.com/fshlint/maki/semantic"
)

// DuplicateDefinitionID is the rule ID for duplicate entity name/id
// detection across every top-level definition in a document.
const DuplicateDefinitionID = "blocking/duplicate-definition"

// DuplicateRuleID is the rule ID for conflicting rules on the same element
// path within one resource.
const DuplicateRuleID = "correctness/duplicate-rule"

// DuplicateAliasID is the rule ID for duplicate Alias declarations.
const DuplicateAliasID = "correctness/duplicate-alias"

type duplicateDefinitionRule struct{}

// NewDuplicateDefinitionRule reports resources that share a name or an id
// with another resource in the same document. FHIR treats every entity
// name (Profile, Extension, ValueSet, CodeSystem, Instance, ...) as one
// flat namespace, so collisions are flagged regardless of kind.
func NewDuplicateDefinitionRule() CompiledRule { return duplicateDefinitionRule{} }

func (duplicateDefinitionRule) ID() string                    { return DuplicateDefinitionID }
func (duplicateDefinitionRule) DefaultSeverity() diag.Severity { return diag.Error }

func (duplicateDefinitionRule) Check(model *semantic.Model) []diag.Issue {
	var issues []diag.Issue

	symbols := model.Symbols()
	for _, name := range symbols.Names() {
		occurrences := symbols.Lookup(name)
		if len(occurrences) <= 1 {
			continue
		}
		issues = append(issues, duplicateNameIssues(model, name, occurrences)...)
	}

	byID := make(map[string][]*semantic.FhirResource)
	var idOrder []string
	for _, res := range model.Resources() {
		if res.Id == "" {
			continue
		}
		if _, seen := byID[res.Id]; !seen {
			idOrder = append(idOrder, res.Id)
		}
		byID[res.Id] = append(byID[res.Id], res)
	}
	for _, id := range idOrder {
		occurrences := byID[id]
		if len(occurrences) <= 1 {
			continue
		}
		issues = append(issues, duplicateIDIssues(model, id, occurrences)...)
	}

	return issues
}

func allSameKind(occurrences []*semantic.FhirResource) bool {
	for _, r := range occurrences {
		if r.Kind != occurrences[0].Kind {
			return false
		}
	}
	return true
}

func duplicateNameIssues(model *semantic.Model, name string, occurrences []*semantic.FhirResource) []diag.Issue {
	issues := make([]diag.Issue, 0, len(occurrences))
	sameKind := allSameKind(occurrences)
	for i, res := range occurrences {
		var message string
		if i == 0 {
			kindLabel := "different"
			if sameKind {
				kindLabel = res.Kind.String()
			}
			message = fmt.Sprintf("duplicate entity name %q (used by %d %s entities)", name, len(occurrences), kindLabel)
		} else {
			message = fmt.Sprintf("duplicate entity name %q (occurrence %d of %d, type: %s)", name, i+1, len(occurrences), res.Kind)
		}
		issues = append(issues, diag.NewIssue(diag.Error, diag.NewRuleCode(DuplicateDefinitionID), message).
			WithSpan(res.NameSpan).
			Build())
	}
	return issues
}

func duplicateIDIssues(model *semantic.Model, id string, occurrences []*semantic.FhirResource) []diag.Issue {
	issues := make([]diag.Issue, 0, len(occurrences))
	sameKind := allSameKind(occurrences)
	for i, res := range occurrences {
		var message string
		if i == 0 {
			kindLabel := "different"
			if sameKind {
				kindLabel = res.Kind.String()
			}
			message = fmt.Sprintf("duplicate resource id %q (used by %d %s entities)", id, len(occurrences), kindLabel)
		} else {
			message = fmt.Sprintf("duplicate resource id %q (occurrence %d of %d, type: %s)", id, i+1, len(occurrences), res.Kind)
		}
		issues = append(issues, diag.NewIssue(diag.Error, diag.NewRuleCode(DuplicateDefinitionID), message).
			WithSpan(res.IdSpan).
			Build())
	}
	return issues
}

type duplicateRuleRule struct{}

// NewDuplicateRuleRule reports conflicting cardinality, type ("only"), or
// value set binding rules declared against the same element path within
// one Profile or Extension.
func NewDuplicateRuleRule() CompiledRule { return duplicateRuleRule{} }

func (duplicateRuleRule) ID() string                    { return DuplicateRuleID }
func (duplicateRuleRule) DefaultSeverity() diag.Severity { return diag.Error }

func (duplicateRuleRule) Check(model *semantic.Model) []diag.Issue {
	var issues []diag.Issue
	for _, res := range model.Resources() {
		if res.Kind != semantic.KindProfile && res.Kind != semantic.KindExtension {
			continue
		}
		issues = append(issues, checkEntityDuplicateRules(res)...)
	}
	return issues
}

func checkEntityDuplicateRules(res *semantic.FhirResource) []diag.Issue {
	byPath := make(map[string][]semantic.Rule)
	var order []string
	for _, r := range res.Rules {
		if r.Path == "" {
			continue
		}
		if _, seen := byPath[r.Path]; !seen {
			order = append(order, r.Path)
		}
		byPath[r.Path] = append(byPath[r.Path], r)
	}

	var issues []diag.Issue
	for _, path := range order {
		issues = append(issues, checkRuleConflicts(path, byPath[path])...)
	}
	return issues
}

func checkRuleConflicts(path string, rules []semantic.Rule) []diag.Issue {
	if len(rules) <= 1 {
		return nil
	}

	var issues []diag.Issue

	var cardRules []semantic.Rule
	for _, r := range rules {
		if r.Kind == semantic.RuleCard && r.Cardinality != nil {
			cardRules = append(cardRules, r)
		}
	}
	if len(cardRules) > 1 {
		texts := make([]string, len(cardRules))
		for i, r := range cardRules {
			texts[i] = fmt.Sprintf("%d..%s", r.Cardinality.Min, r.Cardinality.MaxString())
		}
		if !allSameString(texts) {
			issues = append(issues, conflictIssues(path, "cardinality rules", "conflicting-cardinality", cardRules)...)
		}
	}

	var onlyRules []semantic.Rule
	for _, r := range rules {
		if r.Kind == semantic.RuleOnly {
			onlyRules = append(onlyRules, r)
		}
	}
	if len(onlyRules) > 1 {
		typeLists := make([][]string, len(onlyRules))
		for i, r := range onlyRules {
			typeLists[i] = r.OnlyTypes
		}
		if !allTypeListsSame(typeLists) {
			issues = append(issues, conflictIssues(path, "type constraints", "conflicting-type-constraint", onlyRules)...)
		}
	}

	var valuesetRules []semantic.Rule
	for _, r := range rules {
		if r.Kind == semantic.RuleValueset {
			valuesetRules = append(valuesetRules, r)
		}
	}
	if len(valuesetRules) > 1 {
		targets := make([]string, len(valuesetRules))
		for i, r := range valuesetRules {
			targets[i] = r.ValuesetTarget
		}
		if !allSameString(targets) {
			issues = append(issues, conflictIssues(path, "value set bindings", "conflicting-valueset-binding", valuesetRules)...)
		}
	}

	return issues
}

func conflictIssues(path, kindLabel, code string, rules []semantic.Rule) []diag.Issue {
	issues := make([]diag.Issue, 0, len(rules))
	for i, r := range rules {
		var message string
		if i == 0 {
			message = fmt.Sprintf("conflicting %s for path %q (%d conflicting definitions)", kindLabel, path, len(rules))
		} else {
			message = fmt.Sprintf("conflicting %s for path %q (occurrence %d of %d)", strings.TrimSuffix(kindLabel, "s"), path, i+1, len(rules))
		}
		issues = append(issues, diag.NewIssue(diag.Error, diag.NewRuleCode(DuplicateRuleID), message).
			WithSpan(r.Span).
			WithDetail("conflict-code", code).
			Build())
	}
	return issues
}

func allSameString(values []string) bool {
	for i := 1; i < len(values); i++ {
		if values[i] != values[0] {
			return false
		}
	}
	return true
}

func allTypeListsSame(lists [][]string) bool {
	if len(lists) == 0 {
		return true
	}
	first := lists[0]
	for _, list := range lists {
		if len(list) != len(first) {
			return false
		}
		for i := range list {
			if list[i] != first[i] {
				return false
			}
		}
	}
	return true
}

type duplicateAliasRule struct{}

// NewDuplicateAliasRule reports repeated Alias declarations: an error when
// two declarations of the same alias name disagree on value, a warning
// when they agree (redundant but harmless).
func NewDuplicateAliasRule() CompiledRule { return duplicateAliasRule{} }

func (duplicateAliasRule) ID() string                    { return DuplicateAliasID }
func (duplicateAliasRule) DefaultSeverity() diag.Severity { return diag.Error }

func (duplicateAliasRule) Check(model *semantic.Model) []diag.Issue {
	var issues []diag.Issue
	aliases := model.Aliases()
	for _, name := range aliases.Names() {
		occurrences := aliases.Lookup(name)
		if len(occurrences) <= 1 {
			continue
		}

		values := make([]string, len(occurrences))
		for i, e := range occurrences {
			values[i] = e.Value
		}

		if !allSameString(values) {
			for i, e := range occurrences {
				var message string
				if i == 0 {
					message = fmt.Sprintf("duplicate alias %q with different values (defined %d times)", name, len(occurrences))
				} else {
					message = fmt.Sprintf("duplicate alias %q = %q (occurrence %d of %d)", name, e.Value, i+1, len(occurrences))
				}
				issues = append(issues, diag.NewIssue(diag.Error, diag.NewRuleCode(DuplicateAliasID), message).
					WithPath(model.Source().String(), "").
					Build())
			}
		} else {
			for i, e := range occurrences {
				if i == 0 {
					continue
				}
				message := fmt.Sprintf("redundant alias %q = %q (already defined with same value)", name, e.Value)
				issues = append(issues, diag.NewIssue(diag.Warning, diag.NewRuleCode(DuplicateAliasID), message).
					WithPath(model.Source().String(), "").
					Build())
			}
		}
	}
	return issues
}
