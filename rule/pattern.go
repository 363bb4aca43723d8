package rule

import (
	"fmt"
	"regexp"

	"github.com/fshlint/maki/diag"
	"github.com/fshlint/maki/semantic"
)

// PatternRule matches rule lines by shape — element path and, optionally,
// declared FHIR type or value text — without requiring a Go implementation.
// It is the configuration-driven counterpart to the built-in AST rules,
// for checks simple enough to express as "a CardRule on this path" rather
// than needing a full semantic walk.
type PatternRule struct {
	id       string
	severity diag.Severity
	message  string

	kind          semantic.RuleKind
	pathPattern   *regexp.Regexp
	valuePattern  *regexp.Regexp
	resourceKinds []semantic.ResourceKind
}

// PatternSpec is the declarative description of a [PatternRule], as loaded
// from a rule pack manifest.
type PatternSpec struct {
	ID       string
	Severity diag.Severity
	Message  string

	// Kind restricts matches to rule lines of this kind. Zero
	// (RuleUnspecified) matches any kind.
	Kind semantic.RuleKind

	// PathPattern, if non-empty, is a regular expression the rule's
	// element path must fully match.
	PathPattern string

	// ValuePattern, if non-empty, is a regular expression the rule's
	// value text (FixedValueRule/CaretValueRule) must fully match.
	ValuePattern string

	// ResourceKinds restricts matches to resources of these kinds. Empty
	// matches any resource kind.
	ResourceKinds []semantic.ResourceKind
}

// CompilePattern compiles a [PatternSpec] into a runnable [PatternRule],
// failing if either regular expression is invalid.
func CompilePattern(spec PatternSpec) (*PatternRule, error) {
	p := &PatternRule{
		id:            spec.ID,
		severity:      spec.Severity,
		message:       spec.Message,
		kind:          spec.Kind,
		resourceKinds: spec.ResourceKinds,
	}
	if spec.PathPattern != "" {
		re, err := regexp.Compile(spec.PathPattern)
		if err != nil {
			return nil, fmt.Errorf("rule %s: invalid path pattern: %w", spec.ID, err)
		}
		p.pathPattern = re
	}
	if spec.ValuePattern != "" {
		re, err := regexp.Compile(spec.ValuePattern)
		if err != nil {
			return nil, fmt.Errorf("rule %s: invalid value pattern: %w", spec.ID, err)
		}
		p.valuePattern = re
	}
	return p, nil
}

func (p *PatternRule) ID() string                    { return p.id }
func (p *PatternRule) DefaultSeverity() diag.Severity { return p.severity }

func (p *PatternRule) Check(model *semantic.Model) []diag.Issue {
	var issues []diag.Issue
	for _, res := range model.Resources() {
		if !p.matchesResourceKind(res.Kind) {
			continue
		}
		for _, r := range res.Rules {
			if p.matches(r) {
				issues = append(issues, diag.NewIssue(p.severity, diag.NewRuleCode(p.id), p.message).
					WithSpan(r.Span).
					Build())
			}
		}
	}
	return issues
}

func (p *PatternRule) matchesResourceKind(kind semantic.ResourceKind) bool {
	if len(p.resourceKinds) == 0 {
		return true
	}
	for _, k := range p.resourceKinds {
		if k == kind {
			return true
		}
	}
	return false
}

func (p *PatternRule) matches(r semantic.Rule) bool {
	if p.kind != semantic.RuleUnspecified && r.Kind != p.kind {
		return false
	}
	if p.pathPattern != nil && !p.pathPattern.MatchString(r.Path) {
		return false
	}
	if p.valuePattern != nil && !p.valuePattern.MatchString(r.Value) {
		return false
	}
	return true
}
