// Package parser builds a lossless [cst.Node] tree from a lexer token
// stream, via a hand-written recursive-descent parser with panic-mode
// error recovery.
package parser

import (
	"github.com/fshlint/maki/cst"
	"github.com/fshlint/maki/lexer"
)

// ErrorKind classifies a parse-time diagnostic.
type ErrorKind int

const (
	UnexpectedToken ErrorKind = iota
	UnclosedBracket
)

// Error describes one recovered parse failure. The parser never aborts on
// Error; it always produces a complete, lossless tree.
type Error struct {
	Kind       ErrorKind
	Start, End int
	Message    string
}

// Parse builds a Document-rooted tree from a token stream produced by
// [lexer.Lex]. The returned root's Text() always equals the concatenation
// of every input token's text, even when errs is non-empty.
func Parse(tokens []lexer.Token) (*cst.Node, []Error) {
	p := &parser{tokens: tokens, fuel: defaultFuel}
	return p.parseDocument()
}

// defaultFuel bounds the number of recovery-loop iterations that can run
// without the parser consuming at least one token, guarding against an
// infinite loop if recovery logic is ever miswired to advance zero tokens.
const defaultFuel = 1_000_000

type parser struct {
	tokens []lexer.Token
	pos    int
	b      cst.Builder
	errs   []Error
	fuel   int
}

func (p *parser) parseDocument() (*cst.Node, []Error) {
	p.b = *cst.NewBuilder()
	p.b.StartNode(cst.KindDocument)

	for !p.atEnd() {
		if !p.consumeFuel() {
			p.forceAdvanceAsError()
			continue
		}
		if p.atTrivia() {
			p.token()
			continue
		}
		switch {
		case p.atDefinitionKeyword():
			p.parseDefinition()
		default:
			p.errorAndRecoverAtDocument()
		}
	}

	root := p.b.FinishNode()
	return root, p.errs
}

// parseDefinition dispatches on the definition keyword and parses a shared
// shape: Keyword : Name, then metadata clauses and rules until the next
// definition keyword or EOF.
func (p *parser) parseDefinition() {
	kind, bodyKeywords := p.definitionShape(p.current().Kind)
	p.b.StartNode(kind)

	p.expect(p.current().Kind) // the definition keyword itself
	p.consumeTrivia()
	p.expect(lexer.Colon)
	p.consumeTrivia()
	p.expect(lexer.Ident)
	p.consumeTriviaAndNewlines()

	// Alias is a one-line "Alias: $name = value" declaration, not a
	// definition with metadata clauses and rules, so it gets its own
	// trailing shape instead of falling into the body loop below.
	if kind == cst.KindAlias {
		p.parseAliasValue()
		p.b.FinishNode()
		return
	}

	for !p.atEnd() && !p.atDefinitionKeyword() {
		if !p.consumeFuel() {
			p.forceAdvanceAsError()
			continue
		}
		if p.atTrivia() {
			p.token()
			continue
		}
		if p.current().Kind == lexer.Newline {
			p.token()
			continue
		}
		if clauseKind, ok := bodyKeywords[p.current().Kind]; ok {
			p.parseMetadataClause(clauseKind)
			continue
		}
		if p.current().Kind == lexer.Star {
			p.parseRule()
			continue
		}
		if p.current().Kind == lexer.Caret {
			p.parseRule()
			continue
		}
		break
	}

	p.b.FinishNode()
}

// definitionShape returns the node kind for a definition keyword and the
// set of metadata-clause keywords valid in its body. Every FSH definition
// kind accepts Title/Description; each adds its own specifics, matching
// the per-definition keyword sets in the grammar table.
func (p *parser) definitionShape(kw lexer.Kind) (cst.Kind, map[lexer.Kind]cst.Kind) {
	common := map[lexer.Kind]cst.Kind{
		lexer.KwTitle:       cst.KindTitleClause,
		lexer.KwDescription: cst.KindDescriptionClause,
	}
	withParentID := func() map[lexer.Kind]cst.Kind {
		m := map[lexer.Kind]cst.Kind{
			lexer.KwParent: cst.KindParentClause,
			lexer.KwId:     cst.KindIdClause,
		}
		for k, v := range common {
			m[k] = v
		}
		return m
	}

	switch kw {
	case lexer.KwProfile:
		return cst.KindProfile, withParentID()
	case lexer.KwExtension:
		m := withParentID()
		m[lexer.KwContext] = cst.KindContextClause
		return cst.KindExtension, m
	case lexer.KwValueSet:
		return cst.KindValueSet, withParentID()
	case lexer.KwCodeSystem:
		return cst.KindCodeSystem, withParentID()
	case lexer.KwInstance:
		m := map[lexer.Kind]cst.Kind{
			lexer.KwInstanceOf: cst.KindInstanceOfClause,
			lexer.KwUsage:      cst.KindUsageClause,
		}
		for k, v := range common {
			m[k] = v
		}
		return cst.KindInstance, m
	case lexer.KwInvariant:
		return cst.KindInvariant, map[lexer.Kind]cst.Kind{
			lexer.KwDescription: cst.KindDescriptionClause,
			lexer.KwSeverity:    cst.KindSeverityClause,
			lexer.KwXPath:       cst.KindXPathClause,
			lexer.KwExpression:  cst.KindExpressionClause,
		}
	case lexer.KwMapping:
		m := map[lexer.Kind]cst.Kind{
			lexer.KwSource: cst.KindSourceClause,
			lexer.KwTarget: cst.KindTargetClause,
		}
		for k, v := range common {
			m[k] = v
		}
		return cst.KindMapping, m
	case lexer.KwLogical:
		return cst.KindLogical, withParentID()
	case lexer.KwResource:
		return cst.KindResource, withParentID()
	case lexer.KwAlias:
		return cst.KindAlias, map[lexer.Kind]cst.Kind{}
	case lexer.KwRuleSet:
		return cst.KindRuleSet, map[lexer.Kind]cst.Kind{}
	default:
		return cst.KindError, map[lexer.Kind]cst.Kind{}
	}
}

func (p *parser) parseMetadataClause(kind cst.Kind) {
	p.b.StartNode(kind)
	p.token() // keyword
	p.consumeTrivia()
	p.expect(lexer.Colon)
	p.consumeTrivia()
	// Value: identifier, string, or hash-prefixed code (with optional display).
	switch p.current().Kind {
	case lexer.String:
		p.token()
	case lexer.Ident:
		p.token()
		p.consumeURLRemainder()
	case lexer.Hash:
		p.token()
		if p.current().Kind == lexer.Ident {
			p.token()
		}
	}
	p.consumeTriviaAndNewlines()
	p.b.FinishNode()
}

func (p *parser) atDefinitionKeyword() bool {
	switch p.current().Kind {
	case lexer.KwProfile, lexer.KwExtension, lexer.KwValueSet, lexer.KwCodeSystem,
		lexer.KwInstance, lexer.KwInvariant, lexer.KwMapping, lexer.KwLogical,
		lexer.KwResource, lexer.KwAlias, lexer.KwRuleSet:
		return true
	default:
		return false
	}
}

func (p *parser) atTrivia() bool {
	k := p.current().Kind
	return k == lexer.Whitespace || k == lexer.CommentLine || k == lexer.CommentBlock
}

func (p *parser) atEnd() bool {
	return p.current().Kind == lexer.Eof
}

func (p *parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Kind: lexer.Eof}
	}
	return p.tokens[p.pos]
}

func (p *parser) token() {
	if p.pos < len(p.tokens) && p.tokens[p.pos].Kind != lexer.Eof {
		p.b.Token(p.tokens[p.pos])
		p.pos++
	}
}

func (p *parser) expect(kind lexer.Kind) {
	if p.current().Kind == kind {
		p.token()
		return
	}
	start := p.current().Start
	p.errs = append(p.errs, Error{
		Kind: UnexpectedToken, Start: start, End: start,
		Message: "expected " + kind.String() + ", found " + p.current().Kind.String(),
	})
}

func (p *parser) consumeTrivia() {
	for p.atTrivia() {
		p.token()
	}
}

func (p *parser) consumeTriviaAndNewlines() {
	for p.atTrivia() || p.current().Kind == lexer.Newline {
		p.token()
	}
}

// parseAliasValue consumes "= value" trailing an alias name. The value is
// captured as a flat token run rather than a typed literal: canonical URLs
// are common alias values and contain punctuation ("/") the lexer has
// no dedicated token kind for, so value recovery happens here exactly like
// a rule body's flat token run.
func (p *parser) parseAliasValue() {
	if p.current().Kind != lexer.Equals {
		return
	}
	p.token()
	p.consumeTrivia()
	for !p.atEnd() && p.current().Kind != lexer.Newline && !p.atDefinitionKeyword() {
		if !p.consumeFuel() {
			break
		}
		p.token()
	}
	p.consumeTriviaAndNewlines()
}

// errorAndRecoverAtDocument wraps the offending token in an Error node and
// advances to the next definition keyword, matching the parser's
// document-level recovery contract.
func (p *parser) errorAndRecoverAtDocument() {
	p.b.StartNode(cst.KindError)
	p.token()
	for !p.atEnd() && !p.atDefinitionKeyword() && p.current().Kind != lexer.Newline {
		if !p.consumeFuel() {
			break
		}
		p.token()
	}
	p.b.FinishNode()
}

// consumeFuel decrements the recovery-loop safety counter, returning false
// once exhausted so the caller force-advances instead of looping forever.
func (p *parser) consumeFuel() bool {
	if p.fuel <= 0 {
		return false
	}
	p.fuel--
	return true
}

// forceAdvanceAsError is the fuel-exhaustion escape hatch: wrap exactly one
// token (or nothing, at true EOF) as an Error node and move on, guaranteeing
// forward progress regardless of how recovery logic misbehaves upstream.
func (p *parser) forceAdvanceAsError() {
	if p.atEnd() {
		return
	}
	p.b.StartNode(cst.KindError)
	p.token()
	p.b.FinishNode()
	p.fuel = defaultFuel
}
