package format

import (
	"strings"

	"github.com/fshlint/maki/cst"
	"github.com/fshlint/maki/lexer"
)

// buildDocument renders every top-level definition in root, separated by
// exactly one blank line, regardless of how many blank lines separated them
// in source. The parser reports a run of blank lines between definitions as
// one or more error nodes each wrapping a single newline; those are pure
// spacing noise and carry no content, so they are dropped rather than
// reproduced.
func buildDocument(root *cst.Node) Element {
	var elems []Element
	started := false

	for _, c := range root.Children() {
		switch e := c.(type) {
		case *cst.Token:
			if e.SyntaxKind != lexer.CommentLine && e.SyntaxKind != lexer.CommentBlock {
				continue
			}
			if started {
				elems = append(elems, hardBreak(), hardBreak())
			}
			elems = append(elems, tok(strings.TrimRight(e.Text(), " \t\r")))
			started = true
		case *cst.Node:
			if e.Kind() == cst.KindError && isBlankErrorNode(e) {
				continue
			}
			if started {
				elems = append(elems, hardBreak(), hardBreak())
			}
			if e.Kind() == cst.KindError {
				elems = append(elems, tok(e.Text()))
			} else {
				elems = append(elems, buildDefinition(e))
			}
			started = true
		}
	}

	elems = append(elems, hardBreak())
	return group(elems...)
}

// isBlankErrorNode reports whether an error node wraps nothing but
// whitespace and newlines: the document-level recovery path wraps every
// blank-line newline between definitions in its own error node, one token
// at a time, since plain newlines aren't accepted trivia at that level.
func isBlankErrorNode(n *cst.Node) bool {
	for _, t := range n.Tokens() {
		if t.SyntaxKind != lexer.Newline && t.SyntaxKind != lexer.Whitespace {
			return false
		}
	}
	return true
}

// buildDefinition renders one top-level definition: its header line
// (keyword, colon, name) followed by its body's clauses and rules, each on
// its own line with blank-line spacing preserved where the source had it.
func buildDefinition(n *cst.Node) Element {
	if n.Kind() == cst.KindAlias {
		return buildAlias(n)
	}

	headerToks, body := splitHeaderBody(n.Children())
	elems := []Element{buildHeader(headerToks)}
	for _, it := range buildBody(body) {
		if it.blankBefore {
			elems = append(elems, hardBreak())
		}
		elems = append(elems, hardBreak(), it.elem)
	}
	return group(elems...)
}

// splitHeaderBody separates a definition's header tokens (keyword, colon,
// name, and the trivia around them) from its body: everything from the
// first rule marker (a "*" or "^" token) or the first clause node onward.
func splitHeaderBody(children []cst.Element) ([]*cst.Token, []cst.Element) {
	idx := len(children)
	for i, c := range children {
		switch e := c.(type) {
		case *cst.Node:
			idx = i
		case *cst.Token:
			if e.SyntaxKind == lexer.Star || e.SyntaxKind == lexer.Caret {
				idx = i
			} else {
				continue
			}
		}
		break
	}

	var headerToks []*cst.Token
	for i := 0; i < idx; i++ {
		if t, ok := children[i].(*cst.Token); ok {
			headerToks = append(headerToks, t)
		}
	}
	return headerToks, children[idx:]
}

func buildHeader(headerToks []*cst.Token) Element {
	c := newCursor(headerToks)
	kw := c.next()
	c.next() // colon
	name := c.next()

	var elems []Element
	if kw != nil {
		elems = append(elems, text(kw.Text(), tokStart(kw)), tok(":"), space())
	}
	if name != nil {
		elems = append(elems, text(name.Text(), tokStart(name)))
	}
	return group(elems...)
}

// buildAlias renders an Alias definition, which has no clause/rule body of
// its own: the whole "Alias: $Name = value" line is a single flat token
// run directly inside the Alias node. Alias values are routinely canonical
// URLs, so the same glued-comment handling applies here as everywhere else.
func buildAlias(n *cst.Node) Element {
	content, _, _ := splitValueTokens(n.Tokens())
	c := newCursor(content)
	c.next() // "Alias"
	c.next() // ":"
	name := c.next()

	elems := []Element{tok("Alias"), tok(":"), space()}
	if name != nil {
		elems = append(elems, text(name.Text(), tokStart(name)))
	}
	if eq := c.next(); eq != nil {
		elems = append(elems, space(), text(eq.Text(), tokStart(eq)), space())
		elems = append(elems, tokenRunElements(c.rest())...)
	}
	return group(elems...)
}

// bodyItem is one formatted line within a definition's body, plus whether
// the source had a blank line before it.
type bodyItem struct {
	elem        Element
	blankBefore bool
}

// buildBody walks a definition's body children in source order, grouping
// each clause or rule into one bodyItem. Non-caret rules are laid out as a
// "*" token, a Path node, and a rule-kind node as three separate siblings
// (the grammar only opens the rule node itself once the path has already
// been parsed), so a leading Star token triggers a short lookahead to
// collect those three pieces back into one line.
func buildBody(children []cst.Element) []bodyItem {
	var items []bodyItem
	pendingNewlines := 0

	emit := func(elem Element, comments []string, blank bool) {
		items = append(items, bodyItem{elem: elem, blankBefore: pendingNewlines >= 2})
		for _, cm := range comments {
			items = append(items, bodyItem{elem: tok(cm)})
		}
		if blank {
			pendingNewlines = 2
		} else {
			pendingNewlines = 0
		}
	}

	i := 0
	for i < len(children) {
		switch e := children[i].(type) {
		case *cst.Token:
			switch e.SyntaxKind {
			case lexer.Newline:
				pendingNewlines++
				i++
			case lexer.Whitespace:
				i++
			case lexer.CommentLine, lexer.CommentBlock:
				emit(tok(strings.TrimRight(e.Text(), " \t\r")), nil, false)
				i++
			case lexer.Star:
				elem, comments, blank, next, ok := buildStarRule(children, i)
				if !ok {
					emit(tok("*"), nil, false)
					i++
					continue
				}
				emit(elem, comments, blank)
				i = next
			default:
				emit(tok(e.Text()), nil, false)
				i++
			}
		case *cst.Node:
			elem, comments, blank := buildBodyNode(e)
			emit(elem, comments, blank)
			i++
		}
	}
	return items
}

// buildStarRule collects the "*", its Path, and the classified rule node
// that follow index i in children, returning the formatted line and the
// index just past the rule node. ok is false if the expected shape isn't
// there (malformed input), leaving the caller to fall back to reproducing
// the bare "*" token.
func buildStarRule(children []cst.Element, i int) (elem Element, comments []string, blank bool, next int, ok bool) {
	j := i + 1
	for j < len(children) {
		if t, isTok := children[j].(*cst.Token); isTok && t.SyntaxKind == lexer.Whitespace {
			j++
			continue
		}
		break
	}
	if j >= len(children) {
		return Element{}, nil, false, i + 1, false
	}

	n, isNode := children[j].(*cst.Node)
	if !isNode {
		return Element{}, nil, false, i + 1, false
	}

	if n.Kind() == cst.KindInsertRule {
		e, c, b := buildInsertRule(n)
		return e, c, b, j + 1, true
	}

	if n.Kind() != cst.KindPath {
		return Element{}, nil, false, i + 1, false
	}
	pathNode := n

	k := j + 1
	for k < len(children) {
		if t, isTok := children[k].(*cst.Token); isTok && t.SyntaxKind == lexer.Whitespace {
			k++
			continue
		}
		break
	}
	if k >= len(children) {
		return Element{}, nil, false, i + 1, false
	}
	ruleNode, isNode := children[k].(*cst.Node)
	if !isNode {
		return Element{}, nil, false, i + 1, false
	}

	e, c, b := buildPathRule(pathNode, ruleNode)
	return e, c, b, k + 1, true
}

func buildBodyNode(n *cst.Node) (Element, []string, bool) {
	switch n.Kind() {
	case cst.KindParentClause, cst.KindIdClause, cst.KindTitleClause, cst.KindDescriptionClause,
		cst.KindInstanceOfClause, cst.KindUsageClause, cst.KindSourceClause, cst.KindTargetClause,
		cst.KindSeverityClause, cst.KindExpressionClause, cst.KindXPathClause, cst.KindContextClause:
		return buildClause(n)
	case cst.KindCaretValueRule:
		return buildCaretRule(n)
	default:
		return tok(n.Text()), nil, false
	}
}

func buildClause(n *cst.Node) (Element, []string, bool) {
	content, comments, blank := splitValueTokens(n.Tokens())
	c := newCursor(content)
	kw := c.next()
	if kw == nil {
		return tok(n.Text()), comments, blank
	}
	c.next() // colon

	elems := []Element{text(kw.Text(), tokStart(kw)), tok(":"), space()}
	elems = append(elems, tokenRunElements(c.rest())...)
	return group(elems...), comments, blank
}

// buildCaretRule renders a top-level "^path = value" rule. Unlike the
// fixed-value form ("* ^path = value"), this shape is reached directly
// without a leading "*": the path it carries (including the caret) is
// nested inside the node itself.
func buildCaretRule(n *cst.Node) (Element, []string, bool) {
	pathNode := n.FirstChildNode(cst.KindPath)
	elems := []Element{text(pathText(pathNode), 0)}

	content, comments, blank := splitValueTokens(n.Tokens())
	c := newCursor(content)
	if op := c.next(); op != nil {
		elems = append(elems, space(), text(op.Text(), tokStart(op)), space())
		elems = append(elems, tokenRunElements(c.rest())...)
	}
	return group(elems...), comments, blank
}

// buildPathRule renders a "* path ..." rule line given its already-parsed
// Path node and its classified rule-kind node.
func buildPathRule(pathNode, ruleNode *cst.Node) (Element, []string, bool) {
	prefix := []Element{tok("*"), space(), text(pathText(pathNode), 0), space()}
	content, comments, blank := splitValueTokens(ruleNode.Tokens())

	switch ruleNode.Kind() {
	case cst.KindFixedValueRule:
		c := newCursor(content)
		op := c.next()
		if op == nil {
			return group(prefix...), comments, blank
		}
		elems := append(prefix, text(op.Text(), tokStart(op)), space())
		elems = append(elems, tokenRunElements(c.rest())...)
		return group(elems...), comments, blank

	case cst.KindContainsRule:
		c := newCursor(content)
		kw := c.next()
		var body []Element
		if kw != nil {
			body = append(body, text(kw.Text(), tokStart(kw)), space())
		}
		body = append(body, buildContainsItems(c.rest())...)
		elems := append(prefix, indented(body...))
		return group(elems...), comments, blank

	default: // CardRule, FlagRule, ValuesetRule, OnlyRule, ObeysRule
		elems := append(prefix, tokenRunElements(content)...)
		return group(elems...), comments, blank
	}
}

func buildInsertRule(n *cst.Node) (Element, []string, bool) {
	content, comments, blank := splitValueTokens(n.Tokens())
	elems := append([]Element{tok("*"), space()}, tokenRunElements(content)...)
	return group(elems...), comments, blank
}

// pathText concatenates every non-trivia token under a Path node with no
// added spacing: FSH paths never contain internal whitespace.
func pathText(n *cst.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	collectNonTrivia(n, &b)
	return b.String()
}

func collectNonTrivia(n *cst.Node, b *strings.Builder) {
	for _, c := range n.Children() {
		switch e := c.(type) {
		case *cst.Token:
			if !e.SyntaxKind.IsTrivia() {
				b.WriteString(e.Text())
			}
		case *cst.Node:
			collectNonTrivia(e, b)
		}
	}
}

// tokenRunElements reconstructs a flat token run with source whitespace
// collapsed to at most one space: a run of whitespace between two tokens
// becomes exactly one Space element, and tokens with no whitespace between
// them in source (a code's "#" and its value, a URL's scheme and the rest)
// stay joined. Comment-kind tokens are treated as ordinary content here,
// never skipped: any comment token reaching this function already survived
// splitValueTokens, which means it is the back half of a bare URL the
// lexer has no token kind for, not a genuine comment.
func tokenRunElements(tokens []*cst.Token) []Element {
	var out []Element
	hadSpace := false
	for _, t := range tokens {
		if t.SyntaxKind == lexer.Whitespace || t.SyntaxKind == lexer.Newline {
			hadSpace = true
			continue
		}
		if len(out) > 0 && hadSpace {
			out = append(out, space())
		}
		out = append(out, text(t.Text(), tokStart(t)))
		hadSpace = false
	}
	return out
}

// buildContainsItems is tokenRunElements with a wrap point inserted before
// every "and" separating two contains items, so a long item list can break
// onto continuation lines instead of running past the line width.
func buildContainsItems(tokens []*cst.Token) []Element {
	var out []Element
	hadSpace := false
	for _, t := range tokens {
		if t.SyntaxKind == lexer.Whitespace || t.SyntaxKind == lexer.Newline {
			hadSpace = true
			continue
		}
		if t.SyntaxKind == lexer.KwAnd {
			out = append(out, softBreak(" "), text(t.Text(), tokStart(t)), space())
			hadSpace = false
			continue
		}
		if len(out) > 0 && hadSpace {
			out = append(out, space())
		}
		out = append(out, text(t.Text(), tokStart(t)))
		hadSpace = false
	}
	return out
}

// splitValueTokens separates a clause's or rule's direct token children
// into its meaningful content and any trailing comments/blank-line signal.
//
// The lexer has no URI token kind, so a bare canonical URL's "//host/path"
// half lexes as a line comment; the parser copes by consuming it as a
// normal token rather than trivia wherever a value expression is parsed.
// A comment token glued directly to what came before it (no whitespace in
// between) is exactly that kind of URL remainder and belongs in content. A
// comment preceded by whitespace or a newline is a genuine comment — either
// one that trailed the rule inline or one that started its own line
// immediately after it — and is pulled out to be rendered on its own line.
func splitValueTokens(toks []*cst.Token) (content []*cst.Token, comments []string, blankAfter bool) {
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

	content = toks[:cut]
	for _, t := range toks[cut:] {
		if t.SyntaxKind == lexer.CommentLine || t.SyntaxKind == lexer.CommentBlock {
			comments = append(comments, strings.TrimRight(t.Text(), " \t\r"))
		}
	}

	newlines := 0
	for i := len(toks) - 1; i >= 0; i-- {
		if toks[i].SyntaxKind == lexer.Newline {
			newlines++
			continue
		}
		if toks[i].SyntaxKind == lexer.Whitespace {
			continue
		}
		break
	}
	return content, comments, newlines >= 2
}

func tokStart(t *cst.Token) int {
	s, _ := t.Span()
	return s
}

// tokenCursor steps through a token slice yielding only non-trivia tokens,
// so callers building a fixed-shape line (keyword, colon, name, ...) don't
// have to hand-skip whitespace between each field.
type tokenCursor struct {
	toks []*cst.Token
	pos  int
}

func newCursor(toks []*cst.Token) *tokenCursor {
	return &tokenCursor{toks: toks}
}

func (c *tokenCursor) next() *cst.Token {
	for c.pos < len(c.toks) {
		t := c.toks[c.pos]
		c.pos++
		if !t.SyntaxKind.IsTrivia() {
			return t
		}
	}
	return nil
}

// rest returns every remaining token (trivia included) from the cursor's
// current position.
func (c *tokenCursor) rest() []*cst.Token {
	if c.pos >= len(c.toks) {
		return nil
	}
	return c.toks[c.pos:]
}
