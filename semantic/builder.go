package semantic

import (
	"strconv"
	"strings"

	"github.com/fshlint/maki/cst"
	"github.com/fshlint/maki/internal/textlit"
	"github.com/fshlint/maki/lexer"
	"github.com/fshlint/maki/location"
	"github.com/fshlint/maki/sourcemap"
)

// Builder walks a parsed document's CST exactly once, materializing its
// FhirResource/Rule values and indexing them into a Model. It never looks
// outside the single file it was given: resolving a Parent or a ValuesetRule
// target against another file or an installed package is the canonical
// resolver's job.
type Builder struct {
	root    *cst.Node
	content []byte
	source  location.SourceID
	sm      *sourcemap.SourceMap
}

// NewBuilder prepares a Builder over a single parsed document.
func NewBuilder(root *cst.Node, content []byte, source location.SourceID) *Builder {
	return &Builder{root: root, content: content, source: source, sm: sourcemap.New(content)}
}

// BuildSemanticModel is a convenience wrapper around NewBuilder(...).Build().
func BuildSemanticModel(root *cst.Node, content []byte, source location.SourceID) *Model {
	return NewBuilder(root, content, source).Build()
}

// Build produces the Model. It never returns nil, even for a nil or empty
// document: an empty Model has zero resources and empty tables.
func (b *Builder) Build() *Model {
	m := &Model{
		root:      b.root,
		content:   append([]byte(nil), b.content...),
		source:    b.source,
		sourceMap: b.sm,
		symbols:   newSymbolTable(),
		aliases:   newAliasTable(),
	}
	if b.root == nil {
		return m
	}
	for _, c := range b.root.Children() {
		node, ok := c.(*cst.Node)
		if !ok {
			continue
		}
		if node.Kind() == cst.KindAlias {
			b.buildAlias(m, node)
			continue
		}
		res := b.buildResource(m, node)
		if res == nil {
			continue
		}
		m.resources = append(m.resources, res)
		m.symbols.add(res)
	}
	return m
}

func (b *Builder) buildAlias(m *Model, node *cst.Node) {
	toks := node.Tokens()
	name := ""
	eqIdx := -1
	for i, t := range toks {
		if name == "" && t.SyntaxKind == lexer.Ident {
			name = t.Text
		}
		if t.SyntaxKind == lexer.Equals {
			eqIdx = i
			break
		}
	}
	if name == "" || eqIdx < 0 {
		return
	}
	var sb strings.Builder
	for _, t := range toks[eqIdx+1:] {
		if t.SyntaxKind == lexer.Newline {
			break
		}
		sb.WriteString(t.Text)
	}
	m.aliases.add(AliasEntry{Name: name, Value: strings.TrimSpace(sb.String())})
}

func resourceKindFor(k cst.Kind) ResourceKind {
	switch k {
	case cst.KindProfile:
		return KindProfile
	case cst.KindExtension:
		return KindExtension
	case cst.KindValueSet:
		return KindValueSet
	case cst.KindCodeSystem:
		return KindCodeSystem
	case cst.KindInstance:
		return KindInstance
	case cst.KindInvariant:
		return KindInvariant
	case cst.KindRuleSet:
		return KindRuleSet
	case cst.KindMapping:
		return KindMapping
	case cst.KindLogical, cst.KindResource:
		// "Resource:" defines a custom resource, which shares a Logical
		// model's shape (a StructureDefinition, not a profile or extension),
		// so it is modeled as a Logical resource rather than its own kind.
		return KindLogical
	default:
		return KindUnspecified
	}
}

func ruleKindFor(k cst.Kind) RuleKind {
	switch k {
	case cst.KindCardRule:
		return RuleCard
	case cst.KindFlagRule:
		return RuleFlag
	case cst.KindOnlyRule:
		return RuleOnly
	case cst.KindValuesetRule:
		return RuleValueset
	case cst.KindFixedValueRule:
		return RuleFixedValue
	case cst.KindContainsRule:
		return RuleContains
	case cst.KindObeysRule:
		return RuleObeys
	case cst.KindCaretValueRule:
		return RuleCaretValue
	case cst.KindInsertRule:
		return RuleInsert
	default:
		return RuleUnspecified
	}
}

func (b *Builder) buildResource(m *Model, node *cst.Node) *FhirResource {
	kind := resourceKindFor(node.Kind())
	if kind == KindUnspecified {
		return nil
	}
	res := &FhirResource{Kind: kind, Metadata: make(map[string]string)}
	start, end := node.Span()
	res.Location = m.span(start, end)

	nameSet := false
	var pendingPath *cst.Node

	for _, c := range node.Children() {
		switch e := c.(type) {
		case *cst.Token:
			if !nameSet && e.SyntaxKind == lexer.Ident {
				res.Name = e.Text
				s, en := e.Span()
				res.NameSpan = m.span(s, en)
				nameSet = true
			}
		case *cst.Node:
			switch e.Kind() {
			case cst.KindParentClause:
				val, span := b.clauseValue(m, e)
				res.Parent, res.ParentSpan = val, span
				b.referenceValue(m, res, val, span, RefParentClause)
			case cst.KindInstanceOfClause:
				val, span := b.clauseValue(m, e)
				res.Parent, res.ParentSpan = val, span
				b.referenceValue(m, res, val, span, RefParentClause)
			case cst.KindIdClause:
				res.Id, res.IdSpan = b.clauseValue(m, e)
			case cst.KindTitleClause:
				res.Title, res.TitleSpan = b.clauseValue(m, e)
			case cst.KindDescriptionClause:
				res.Description, _ = b.clauseValue(m, e)
			case cst.KindUsageClause:
				res.Metadata["Usage"], _ = b.clauseValue(m, e)
			case cst.KindSourceClause:
				res.Metadata["Source"], _ = b.clauseValue(m, e)
			case cst.KindTargetClause:
				res.Metadata["Target"], _ = b.clauseValue(m, e)
			case cst.KindSeverityClause:
				res.Metadata["Severity"], _ = b.clauseValue(m, e)
			case cst.KindXPathClause:
				res.Metadata["XPath"], _ = b.clauseValue(m, e)
			case cst.KindExpressionClause:
				res.Metadata["Expression"], _ = b.clauseValue(m, e)
			case cst.KindContextClause:
				res.Metadata["Context"], _ = b.clauseValue(m, e)
			case cst.KindPath:
				pendingPath = e
			case cst.KindFixedValueRule, cst.KindContainsRule, cst.KindValuesetRule,
				cst.KindOnlyRule, cst.KindObeysRule, cst.KindCardRule, cst.KindFlagRule:
				res.Rules = append(res.Rules, b.buildRule(m, res, pendingPath, e))
				pendingPath = nil
			case cst.KindCaretValueRule:
				res.Rules = append(res.Rules, b.buildRule(m, res, e.FirstChildNode(cst.KindPath), e))
			case cst.KindInsertRule:
				res.Rules = append(res.Rules, b.buildRule(m, res, nil, e))
			}
		}
	}
	return res
}

func (b *Builder) referenceValue(m *Model, res *FhirResource, name string, span location.Span, ctx ReferenceContext) {
	if name == "" {
		return
	}
	m.references = append(m.references, Reference{Name: name, Span: span, Resource: res, Context: ctx})
}

// clauseValue extracts the value text following a metadata clause's colon,
// trimming surrounding quotes off a string literal. Canonical URLs land here
// as several tokens (an identifier, a colon, and a mis-lexed line-comment
// fragment for the "//" portion, since the lexer has no URI token kind) and
// are reassembled by straight concatenation.
func (b *Builder) clauseValue(m *Model, node *cst.Node) (string, location.Span) {
	toks := node.Tokens()
	colonIdx := -1
	for i, t := range toks {
		if t.SyntaxKind == lexer.Colon {
			colonIdx = i
			break
		}
	}
	if colonIdx < 0 {
		return "", location.Span{}
	}
	rest := toks[colonIdx+1:]
	i := 0
	for i < len(rest) && rest[i].SyntaxKind.IsTrivia() {
		i++
	}
	rest = rest[i:]
	j := len(rest)
	for j > 0 && rest[j-1].SyntaxKind.IsTrivia() {
		j--
	}
	rest = rest[:j]
	if len(rest) == 0 {
		return "", location.Span{}
	}
	var sb strings.Builder
	for _, t := range rest {
		sb.WriteString(t.Text)
	}
	start, _ := rest[0].Span()
	_, end := rest[len(rest)-1].Span()
	return unquoteValue(sb.String()), m.span(start, end)
}

func unquoteValue(raw string) string {
	if strings.HasPrefix(raw, `"""`) && strings.HasSuffix(raw, `"""`) && len(raw) >= 6 {
		return raw[3 : len(raw)-3]
	}
	if strings.HasPrefix(raw, `"`) && strings.HasSuffix(raw, `"`) && len(raw) >= 2 {
		if unq, err := textlit.ConvertString(raw); err == nil {
			return unq
		}
		return raw[1 : len(raw)-1]
	}
	return raw
}

// meaningfulTokens strips whitespace and newlines, plus any trailing
// comment, from a rule's flat token run.
//
// The lexer has no URI token kind, so a bare canonical URL's "//host/path"
// half lexes as a line comment. A comment token glued directly to what
// came before it (no whitespace in between) is exactly that kind of URL
// remainder and belongs in content; a comment preceded by whitespace or a
// newline is a genuine trailing comment and is cut, along with everything
// after it. This mirrors format/build.go's splitValueTokens, which draws
// the same glued-vs-gapped distinction for the same reason.
func meaningfulTokens(toks []*cst.Token) []*cst.Token {
	cut := len(toks)
	gap := true
scan:
	for i, t := range toks {
		switch t.SyntaxKind {
		case lexer.Whitespace, lexer.Newline:
			gap = true
		case lexer.CommentLine, lexer.CommentBlock:
			if gap {
				cut = i
				break scan
			}
			gap = false
		default:
			gap = false
		}
	}

	out := make([]*cst.Token, 0, cut)
	for _, t := range toks[:cut] {
		switch t.SyntaxKind {
		case lexer.Whitespace, lexer.Newline:
			continue
		default:
			out = append(out, t)
		}
	}
	return out
}

func fillFlagsFromTokens(r *Rule, toks []*cst.Token) {
	for _, t := range toks {
		switch t.SyntaxKind {
		case lexer.KwMS:
			r.MustSupport = true
			r.MustSupportCount++
		case lexer.KwSU:
			r.IsSummary = true
			r.IsSummaryCount++
		}
	}
}

func (b *Builder) pathText(m *Model, pathNode *cst.Node) (string, location.Span) {
	start, end := pathNode.Span()
	return pathNode.Text(), m.span(start, end)
}

// recordPathReferences records a RefPath reference for each path segment's
// base identifier, skipping the "*" wildcard segment and anything nested
// inside a bracket (slice names, "=" indexes: not identifiers to resolve).
func (b *Builder) recordPathReferences(m *Model, res *FhirResource, pathNode *cst.Node) {
	for _, seg := range pathNode.ChildNodes(cst.KindPathSegment) {
		toks := seg.Tokens()
		if len(toks) == 0 || toks[0].SyntaxKind != lexer.Ident {
			continue
		}
		s, e := toks[0].Span()
		b.referenceValue(m, res, toks[0].Text, m.span(s, e), RefPath)
	}
}

func (b *Builder) buildRule(m *Model, res *FhirResource, pathNode *cst.Node, ruleNode *cst.Node) Rule {
	r := Rule{Kind: ruleKindFor(ruleNode.Kind())}
	rStart, rEnd := ruleNode.Span()
	r.Span = m.span(rStart, rEnd)

	if pathNode != nil {
		r.Path, r.PathSpan = b.pathText(m, pathNode)
		b.recordPathReferences(m, res, pathNode)
	}

	switch ruleNode.Kind() {
	case cst.KindCardRule:
		b.fillCardRule(m, &r, ruleNode)
	case cst.KindFlagRule:
		fillFlagsFromTokens(&r, meaningfulTokens(ruleNode.Tokens()))
	case cst.KindOnlyRule:
		b.fillOnlyRule(m, res, &r, ruleNode)
	case cst.KindValuesetRule:
		b.fillValuesetRule(m, res, &r, ruleNode)
	case cst.KindObeysRule:
		b.fillObeysRule(m, res, &r, ruleNode)
	case cst.KindContainsRule:
		b.fillContainsRule(m, res, &r, ruleNode)
	case cst.KindFixedValueRule, cst.KindCaretValueRule:
		b.fillValueRule(m, res, &r, ruleNode)
	case cst.KindInsertRule:
		b.fillInsertRule(m, res, &r, ruleNode)
	}
	return r
}

// fillCardRule recovers "min..max" plus any trailing MS/SU flags from a
// CardRule's flat token run: "* name 0..1 MS".
func (b *Builder) fillCardRule(m *Model, r *Rule, ruleNode *cst.Node) {
	toks := meaningfulTokens(ruleNode.Tokens())
	i := 0
	if i < len(toks) && toks[i].SyntaxKind == lexer.Integer {
		minTok := toks[i]
		i++
		if i < len(toks) && toks[i].SyntaxKind == lexer.DotDot {
			i++
			if i < len(toks) && (toks[i].SyntaxKind == lexer.Integer || toks[i].SyntaxKind == lexer.Star) {
				maxTok := toks[i]
				i++
				card := &Cardinality{}
				min, _ := strconv.Atoi(minTok.Text)
				card.Min = min
				if maxTok.SyntaxKind == lexer.Star {
					card.MaxUnbounded = true
				} else {
					max, _ := strconv.Atoi(maxTok.Text)
					card.Max = max
				}
				s, _ := minTok.Span()
				_, e := maxTok.Span()
				card.Span = m.span(s, e)
				r.Cardinality = card
			}
		}
	}
	fillFlagsFromTokens(r, toks[i:])
}

// fillOnlyRule recovers the allowed type list from "only Type1 or Type2",
// including Reference(...)/Canonical(...) aggregations. The keyword "or"
// has no dedicated token kind (it lexes as a plain identifier) and is
// filtered out by text.
func (b *Builder) fillOnlyRule(m *Model, res *FhirResource, r *Rule, ruleNode *cst.Node) {
	toks := meaningfulTokens(ruleNode.Tokens())
	i := 0
	if i < len(toks) && toks[i].SyntaxKind == lexer.KwOnly {
		i++
	}
	for i < len(toks) {
		t := toks[i]
		i++
		if t.SyntaxKind != lexer.Ident || t.Text == "or" {
			continue
		}
		name := t.Text
		if (name == "Reference" || name == "Canonical") && i < len(toks) && toks[i].SyntaxKind == lexer.LParen {
			i++
			var inner []string
			for i < len(toks) && toks[i].SyntaxKind != lexer.RParen {
				it := toks[i]
				i++
				if it.SyntaxKind == lexer.Ident && it.Text != "or" {
					inner = append(inner, it.Text)
					is, ie := it.Span()
					b.referenceValue(m, res, it.Text, m.span(is, ie), RefValue)
				}
			}
			if i < len(toks) {
				i++
			}
			name = name + "(" + strings.Join(inner, " or ") + ")"
			r.OnlyTypes = append(r.OnlyTypes, name)
			continue
		}
		s, e := t.Span()
		r.OnlyTypes = append(r.OnlyTypes, name)
		b.referenceValue(m, res, name, m.span(s, e), RefValue)
	}
}

// fillValuesetRule recovers "from Target (strength)" from a ValuesetRule's
// flat token run.
func (b *Builder) fillValuesetRule(m *Model, res *FhirResource, r *Rule, ruleNode *cst.Node) {
	toks := meaningfulTokens(ruleNode.Tokens())
	i := 0
	if i < len(toks) && toks[i].SyntaxKind == lexer.KwFrom {
		i++
	}
	var sb strings.Builder
	var start, end int
	have := false
	for i < len(toks) && toks[i].SyntaxKind != lexer.LParen {
		sb.WriteString(toks[i].Text)
		s, e := toks[i].Span()
		if !have {
			start, have = s, true
		}
		end = e
		i++
	}
	r.ValuesetTarget = sb.String()
	if have {
		b.referenceValue(m, res, r.ValuesetTarget, m.span(start, end), RefValue)
	}
	if i < len(toks) && toks[i].SyntaxKind == lexer.LParen {
		i++
		if i < len(toks) && toks[i].SyntaxKind == lexer.Ident {
			r.BindingStrength = toks[i].Text
		}
	}
}

// fillObeysRule recovers the comma-separated invariant id list from an
// ObeysRule's flat token run.
func (b *Builder) fillObeysRule(m *Model, res *FhirResource, r *Rule, ruleNode *cst.Node) {
	toks := meaningfulTokens(ruleNode.Tokens())
	i := 0
	if i < len(toks) && toks[i].SyntaxKind == lexer.KwObeys {
		i++
	}
	for i < len(toks) {
		t := toks[i]
		i++
		if t.SyntaxKind != lexer.Ident {
			continue
		}
		r.Invariants = append(r.Invariants, t.Text)
		s, e := t.Span()
		b.referenceValue(m, res, t.Text, m.span(s, e), RefValue)
	}
}

// fillContainsRule re-walks a ContainsRule's flat token run to recover its
// slice item list: "contains systolic 1..1 MS and diastolic 0..1".
func (b *Builder) fillContainsRule(m *Model, res *FhirResource, r *Rule, ruleNode *cst.Node) {
	toks := meaningfulTokens(ruleNode.Tokens())
	i := 0
	if i < len(toks) && toks[i].SyntaxKind == lexer.KwContains {
		i++
	}
	for i < len(toks) {
		if toks[i].SyntaxKind != lexer.Ident {
			i++
			continue
		}
		item := ContainsItem{Name: toks[i].Text}
		s, e := toks[i].Span()
		item.NameSpan = m.span(s, e)
		b.referenceValue(m, res, item.Name, item.NameSpan, RefValue)
		i++

		if i < len(toks) && toks[i].SyntaxKind == lexer.Integer {
			minTok := toks[i]
			i++
			if i < len(toks) && toks[i].SyntaxKind == lexer.DotDot {
				i++
				if i < len(toks) && (toks[i].SyntaxKind == lexer.Integer || toks[i].SyntaxKind == lexer.Star) {
					maxTok := toks[i]
					i++
					card := &Cardinality{}
					min, _ := strconv.Atoi(minTok.Text)
					card.Min = min
					if maxTok.SyntaxKind == lexer.Star {
						card.MaxUnbounded = true
					} else {
						max, _ := strconv.Atoi(maxTok.Text)
						card.Max = max
					}
					cs, _ := minTok.Span()
					_, ce := maxTok.Span()
					card.Span = m.span(cs, ce)
					item.Cardinality = card
				}
			}
		}
		for i < len(toks) && (toks[i].SyntaxKind == lexer.KwMS || toks[i].SyntaxKind == lexer.KwSU) {
			if toks[i].SyntaxKind == lexer.KwMS {
				item.MustSupport = true
			} else {
				item.IsSummary = true
			}
			i++
		}
		r.ContainsItems = append(r.ContainsItems, item)

		if i < len(toks) && toks[i].SyntaxKind == lexer.KwAnd {
			i++
			continue
		}
	}
}

// fillValueRule recovers the operator and right-hand value for a
// FixedValueRule or CaretValueRule.
func (b *Builder) fillValueRule(m *Model, res *FhirResource, r *Rule, ruleNode *cst.Node) {
	toks := meaningfulTokens(ruleNode.Tokens())
	opIdx := -1
	for i, t := range toks {
		if t.SyntaxKind == lexer.Equals || t.SyntaxKind == lexer.PlusEquals {
			opIdx = i
			break
		}
	}
	if opIdx < 0 {
		return
	}
	if toks[opIdx].SyntaxKind == lexer.Equals {
		r.Operator = "="
	} else {
		r.Operator = "+="
	}
	rest := toks[opIdx+1:]
	if len(rest) == 0 {
		return
	}
	var sb strings.Builder
	for _, t := range rest {
		sb.WriteString(t.Text)
	}
	r.Value = unquoteValue(sb.String())
	r.ValueIsString = rest[0].SyntaxKind == lexer.String

	if rest[0].SyntaxKind == lexer.Ident {
		name := rest[0].Text
		if (name == "Reference" || name == "Canonical") && len(rest) > 1 && rest[1].SyntaxKind == lexer.LParen {
			for _, t := range rest[2:] {
				if t.SyntaxKind == lexer.RParen {
					break
				}
				if t.SyntaxKind == lexer.Ident {
					s, e := t.Span()
					b.referenceValue(m, res, t.Text, m.span(s, e), RefValue)
				}
			}
		} else {
			s, e := rest[0].Span()
			b.referenceValue(m, res, name, m.span(s, e), RefValue)
		}
	}
}

// fillInsertRule recovers the RuleSet name and its parameter list from an
// InsertRule: "insert MyRuleSet(param1, {param2})".
func (b *Builder) fillInsertRule(m *Model, res *FhirResource, r *Rule, ruleNode *cst.Node) {
	toks := meaningfulTokens(ruleNode.Tokens())
	i := 0
	if i < len(toks) && toks[i].SyntaxKind == lexer.KwInsert {
		i++
	}
	if i >= len(toks) || toks[i].SyntaxKind != lexer.Ident {
		return
	}
	r.RuleSetName = toks[i].Text
	s, e := toks[i].Span()
	b.referenceValue(m, res, r.RuleSetName, m.span(s, e), RefValue)
	i++

	if i >= len(toks) || toks[i].SyntaxKind != lexer.LParen {
		return
	}
	i++
	for i < len(toks) && toks[i].SyntaxKind != lexer.RParen {
		t := toks[i]
		switch t.SyntaxKind {
		case lexer.LBrace:
			j := i + 1
			var inner strings.Builder
			for j < len(toks) && toks[j].SyntaxKind != lexer.RBrace {
				inner.WriteString(toks[j].Text)
				j++
			}
			ps, _ := t.Span()
			pe := ps
			if j < len(toks) {
				_, pe = toks[j].Span()
				j++
			}
			r.RuleSetParams = append(r.RuleSetParams, InsertParam{
				Text: "{" + inner.String() + "}",
				Span: m.span(ps, pe),
			})
			i = j
		case lexer.Comma:
			i++
		default:
			ps, pe := t.Span()
			r.RuleSetParams = append(r.RuleSetParams, InsertParam{Text: t.Text, Span: m.span(ps, pe)})
			i++
		}
	}
}
