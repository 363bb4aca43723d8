// Package cst implements the lossless concrete syntax tree for FSH source.
//
// The tree is built once by a [Builder] during parsing and is immutable
// thereafter, following a "construct, then freeze" discipline: nothing
// exposed by a finished [Node] can be mutated in place. Re-parsing produces
// a new tree; editing never happens node-by-node.
package cst

import (
	"strings"

	"github.com/fshlint/maki/lexer"
)

// Kind identifies a node's grammatical role in the tree. This is a closed
// set: every node kind the parser can produce is declared here, so a
// switch over Kind can be exhaustive.
type Kind int

const (
	// KindError wraps tokens the parser could not fit into any rule,
	// preserving them verbatim so the tree stays lossless over malformed
	// input.
	KindError Kind = iota

	KindDocument

	// Top-level definitions.
	KindProfile
	KindExtension
	KindValueSet
	KindCodeSystem
	KindInstance
	KindInvariant
	KindMapping
	KindLogical
	KindResource
	KindAlias
	KindRuleSet

	// Metadata clauses.
	KindParentClause
	KindIdClause
	KindTitleClause
	KindDescriptionClause
	KindInstanceOfClause
	KindUsageClause
	KindSourceClause
	KindTargetClause
	KindSeverityClause
	KindExpressionClause
	KindXPathClause
	KindContextClause

	// Rules.
	KindFixedValueRule
	KindContainsRule
	KindValuesetRule
	KindOnlyRule
	KindObeysRule
	KindCardRule
	KindFlagRule
	KindCaretValueRule
	KindInsertRule

	// Structural pieces shared across rules.
	KindPath
	KindPathSegment
	KindBracket
	KindCardinality
)

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Unknown"
}

var kindNames = map[Kind]string{
	KindError: "Error", KindDocument: "Document",
	KindProfile: "Profile", KindExtension: "Extension", KindValueSet: "ValueSet",
	KindCodeSystem: "CodeSystem", KindInstance: "Instance", KindInvariant: "Invariant",
	KindMapping: "Mapping", KindLogical: "Logical", KindResource: "Resource",
	KindAlias: "Alias", KindRuleSet: "RuleSet",
	KindParentClause: "ParentClause", KindIdClause: "IdClause",
	KindTitleClause: "TitleClause", KindDescriptionClause: "DescriptionClause",
	KindInstanceOfClause: "InstanceOfClause", KindUsageClause: "UsageClause",
	KindSourceClause: "SourceClause", KindTargetClause: "TargetClause",
	KindSeverityClause: "SeverityClause", KindExpressionClause: "ExpressionClause",
	KindXPathClause: "XPathClause", KindContextClause: "ContextClause",
	KindFixedValueRule: "FixedValueRule", KindContainsRule: "ContainsRule",
	KindValuesetRule: "ValuesetRule", KindOnlyRule: "OnlyRule",
	KindObeysRule: "ObeysRule", KindCardRule: "CardRule", KindFlagRule: "FlagRule",
	KindCaretValueRule: "CaretValueRule", KindInsertRule: "InsertRule",
	KindPath: "Path", KindPathSegment: "PathSegment", KindBracket: "Bracket",
	KindCardinality: "Cardinality",
}

// Element is either a *Token or a *Node: the two things a Node's children
// slice can hold. It carries no methods beyond what both share, so callers
// type-switch on the concrete type.
type Element interface {
	element()
	// Text returns the exact source text this element spans.
	Text() string
	// Span returns the element's byte range within the source.
	Span() (start, end int)
}

// Token is a leaf element: a single lexical token attached to the tree,
// including trivia (whitespace, comments) and error tokens.
type Token struct {
	SyntaxKind lexer.Kind
	text       string
	start, end int
}

func (*Token) element() {}

// Text returns the token's exact source text.
func (t *Token) Text() string { return t.text }

// Span returns the token's byte range.
func (t *Token) Span() (int, int) { return t.start, t.end }

// Node is an interior element: a labeled group of child elements (tokens
// and/or nested nodes). Once returned from [Builder.FinishNode], a Node and
// everything reachable from it is
// immutable — safe to share across goroutines without copying.
type Node struct {
	NodeKind Kind
	children []Element
	start    int
	end      int
}

func (*Node) element() {}

// Text reconstructs the exact source text spanned by this node by
// concatenating every descendant token's text in order. For a document
// root, Text() always equals the original source string — this is the
// tree's core losslessness guarantee.
func (n *Node) Text() string {
	var b strings.Builder
	n.writeText(&b)
	return b.String()
}

func (n *Node) writeText(b *strings.Builder) {
	for _, c := range n.children {
		switch e := c.(type) {
		case *Token:
			b.WriteString(e.text)
		case *Node:
			e.writeText(b)
		}
	}
}

// Span returns the node's byte range, the union of all its children's.
func (n *Node) Span() (int, int) { return n.start, n.end }

// Children returns the node's direct children in source order.
func (n *Node) Children() []Element { return n.children }

// Kind returns the node's syntax kind.
func (n *Node) Kind() Kind { return n.NodeKind }

// Tokens returns only the direct Token children, skipping nested nodes.
func (n *Node) Tokens() []*Token {
	var out []*Token
	for _, c := range n.children {
		if t, ok := c.(*Token); ok {
			out = append(out, t)
		}
	}
	return out
}

// ChildNodes returns only the direct Node children of the given kind, in
// source order.
func (n *Node) ChildNodes(kind Kind) []*Node {
	var out []*Node
	for _, c := range n.children {
		if nd, ok := c.(*Node); ok && nd.NodeKind == kind {
			out = append(out, nd)
		}
	}
	return out
}

// FirstChildNode returns the first direct Node child of the given kind, or
// nil if there is none.
func (n *Node) FirstChildNode(kind Kind) *Node {
	for _, c := range n.children {
		if nd, ok := c.(*Node); ok && nd.NodeKind == kind {
			return nd
		}
	}
	return nil
}

// FirstNonTriviaToken returns the first direct Token child that is not
// whitespace, a newline, or a comment.
func (n *Node) FirstNonTriviaToken() (*Token, bool) {
	for _, c := range n.children {
		if t, ok := c.(*Token); ok && !t.SyntaxKind.IsTrivia() {
			return t, true
		}
	}
	return nil, false
}

// Walk visits every node in the subtree rooted at n, depth-first,
// pre-order, including n itself.
func (n *Node) Walk(visit func(*Node)) {
	visit(n)
	for _, c := range n.children {
		if nd, ok := c.(*Node); ok {
			nd.Walk(visit)
		}
	}
}
