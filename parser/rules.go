package parser

import (
	"github.com/fshlint/maki/cst"
	"github.com/fshlint/maki/lexer"
)

// parseRule parses one rule line: a caret rule, an insert rule, or a
// path-prefixed rule classified by the operator that follows its path, per
// the operator → rule-kind table.
func (p *parser) parseRule() {
	if p.current().Kind == lexer.Caret {
		p.b.StartNode(cst.KindCaretValueRule)
		p.parsePath()
		p.consumeTrivia()
		if p.current().Kind == lexer.Equals || p.current().Kind == lexer.PlusEquals {
			p.token()
			p.consumeTrivia()
			p.parseValueExpression()
		}
		p.consumeTriviaAndNewlines()
		p.b.FinishNode()
		return
	}

	p.expect(lexer.Star)
	p.consumeTrivia()

	if p.current().Kind == lexer.KwInsert {
		p.parseInsertRule()
		return
	}

	p.parsePath()
	p.consumeTrivia()

	kind := p.classifyRule()
	p.b.StartNode(kind)
	switch kind {
	case cst.KindFixedValueRule:
		if p.current().Kind == lexer.Equals || p.current().Kind == lexer.PlusEquals {
			p.token()
			p.consumeTrivia()
			p.parseValueExpression()
		}
	case cst.KindContainsRule:
		p.parseContainsItems()
	default:
		// CardRule/FlagRule/ValuesetRule/OnlyRule/ObeysRule bodies: consume
		// the rest of the line as a flat token run. Exact sub-structure
		// (cardinality numbers, flag keywords, "from" targets, invariant
		// ids) is recovered by the semantic builder from the flat tokens;
		// the grammar only needs the rule boundary here. A CommentLine glued
		// directly to the token before it (no whitespace gap) is a bare
		// canonical URL's "//host/path" remainder, not a real trailing
		// comment — see consumeURLRemainder — and rides through like any
		// other token; only a gapped CommentLine ends the rule.
		gap := true
		for !p.atEnd() && p.current().Kind != lexer.Newline && !p.atDefinitionKeyword() {
			if p.current().Kind == lexer.CommentLine && gap {
				break
			}
			if !p.consumeFuel() {
				break
			}
			gap = p.current().Kind == lexer.Whitespace
			p.token()
		}
	}
	p.consumeTriviaAndNewlines()
	p.b.FinishNode()
}

// classifyRule inspects the current token (immediately after a parsed path)
// to determine the rule's kind, per spec.md §4.2's operator table.
func (p *parser) classifyRule() cst.Kind {
	switch p.current().Kind {
	case lexer.Equals, lexer.PlusEquals:
		return cst.KindFixedValueRule
	case lexer.KwContains:
		return cst.KindContainsRule
	case lexer.KwFrom:
		return cst.KindValuesetRule
	case lexer.KwOnly:
		return cst.KindOnlyRule
	case lexer.KwObeys:
		return cst.KindObeysRule
	case lexer.KwMS, lexer.KwSU:
		return cst.KindFlagRule
	default:
		return cst.KindCardRule
	}
}

func (p *parser) parseInsertRule() {
	p.b.StartNode(cst.KindInsertRule)
	p.token() // insert
	p.consumeTrivia()
	p.expect(lexer.Ident)
	p.consumeTrivia()
	if p.current().Kind == lexer.LParen {
		p.token()
		p.consumeTrivia()
		for !p.atEnd() && p.current().Kind != lexer.RParen {
			if !p.consumeFuel() {
				break
			}
			switch p.current().Kind {
			case lexer.Ident, lexer.String, lexer.Integer:
				p.token()
				p.consumeTrivia()
				if p.current().Kind == lexer.Comma {
					p.token()
					p.consumeTrivia()
				}
			case lexer.LBrace:
				p.token()
				if p.current().Kind == lexer.Ident {
					p.token()
				}
				if p.current().Kind == lexer.RBrace {
					p.token()
				}
				p.consumeTrivia()
			default:
				goto closeParen
			}
		}
	closeParen:
		if p.current().Kind == lexer.RParen {
			p.token()
		}
	}
	p.consumeTriviaAndNewlines()
	p.b.FinishNode()
}

// parseContainsItems parses "contains item1 1..1 MS and item2 0..* SU".
func (p *parser) parseContainsItems() {
	p.expect(lexer.KwContains)
	p.consumeTrivia()

	for !p.atEnd() && p.current().Kind != lexer.Newline {
		if !p.consumeFuel() {
			break
		}
		if p.current().Kind != lexer.Ident {
			break
		}
		p.token()
		p.consumeTrivia()

		if p.current().Kind == lexer.Integer {
			p.token()
			p.consumeTrivia()
			if p.current().Kind == lexer.DotDot {
				p.token()
				p.consumeTrivia()
				if p.current().Kind == lexer.Integer || p.current().Kind == lexer.Star {
					p.token()
					p.consumeTrivia()
				}
			}
		}

		for p.current().Kind == lexer.KwMS || p.current().Kind == lexer.KwSU {
			p.token()
			p.consumeTrivia()
		}

		if p.current().Kind == lexer.KwAnd {
			p.token()
			p.consumeTrivia()
			continue
		}
		break
	}
}

// parseValueExpression parses the right-hand side of a FixedValueRule or
// CaretValueRule assignment: a string, a hash-prefixed code with optional
// display, a boolean, a number, a Reference(Type)/Canonical(Type) call, or
// a bare identifier optionally followed by a System#code pair.
func (p *parser) parseValueExpression() {
	switch p.current().Kind {
	case lexer.String:
		p.token()
	case lexer.Hash:
		p.token()
		if p.current().Kind == lexer.Ident {
			p.token()
		}
		p.consumeTrivia()
		if p.current().Kind == lexer.String {
			p.token()
		}
	case lexer.True, lexer.False, lexer.Integer, lexer.Decimal:
		p.token()
	case lexer.Ident:
		text := p.current().Text
		p.token()
		if (text == "Reference" || text == "Canonical") && p.current().Kind == lexer.LParen {
			p.token()
			p.consumeTrivia()
			if p.current().Kind == lexer.Ident {
				p.token()
			}
			if p.current().Kind == lexer.RParen {
				p.token()
			}
			return
		}
		if p.current().Kind == lexer.Hash {
			p.token()
			if p.current().Kind == lexer.Ident {
				p.token()
			}
			p.consumeTrivia()
			if p.current().Kind == lexer.String {
				p.token()
			}
			return
		}
		// A bare identifier immediately followed by ":" is a canonical URL's
		// scheme separator, not the start of a new clause: keep consuming
		// until whitespace/newline so "http://hl7.org/..." rides through as
		// one value instead of leaving its tail dangling for the document's
		// error recovery to sweep up.
		p.consumeURLRemainder()
	}
}

// consumeURLRemainder consumes a bare URL's ":" and everything through the
// rest of the line once a value expression's leading identifier turns out to
// be a URL scheme. The lexer has no URI token kind, so "//host/path" lexes as
// a line comment; that fragment is consumed here like any other token.
func (p *parser) consumeURLRemainder() {
	if p.current().Kind != lexer.Colon {
		return
	}
	p.token()
	for !p.atEnd() && p.current().Kind != lexer.Newline &&
		p.current().Kind != lexer.Whitespace && !p.atDefinitionKeyword() {
		if !p.consumeFuel() {
			break
		}
		p.token()
	}
}

// parsePath parses a dot-separated path with optional leading caret and
// bracketed segments: name.given, component[systolic].value[x],
// ^extension[FMM].valueInteger.
func (p *parser) parsePath() {
	p.b.StartNode(cst.KindPath)

	if p.current().Kind == lexer.Caret {
		p.token()
	}

	p.parsePathSegment()
	for p.current().Kind == lexer.Dot {
		p.token()
		p.parsePathSegment()
	}

	p.b.FinishNode()
}

func (p *parser) parsePathSegment() {
	p.b.StartNode(cst.KindPathSegment)
	if p.current().Kind == lexer.Ident || p.current().Kind == lexer.Star {
		p.token()
	}
	if p.current().Kind == lexer.LBracket {
		p.parseBracket()
	}
	p.b.FinishNode()
}

func (p *parser) parseBracket() {
	p.b.StartNode(cst.KindBracket)
	p.token() // [
	for !p.atEnd() && p.current().Kind != lexer.RBracket {
		if !p.consumeFuel() {
			break
		}
		if p.current().Kind == lexer.Newline {
			p.errs = append(p.errs, Error{
				Kind: UnclosedBracket, Start: p.current().Start, End: p.current().Start,
				Message: "unclosed bracket",
			})
			break
		}
		p.token()
	}
	if p.current().Kind == lexer.RBracket {
		p.token()
	}
	p.b.FinishNode()
}
