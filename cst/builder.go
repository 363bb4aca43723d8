package cst

import "github.com/fshlint/maki/lexer"

// Builder assembles a [Node] tree incrementally while the parser walks the
// token stream. It mirrors a classic red-green-tree builder: a stack of
// open nodes, pushed by [Builder.StartNode] and popped by
// [Builder.FinishNode], with tokens attached to whichever node is
// currently open via [Builder.Token].
//
// A Builder is single-use: the FinishNode call that closes the outermost
// node returns the finished tree, once every StartNode has a matching
// FinishNode.
type Builder struct {
	stack []*openNode
}

type openNode struct {
	kind     Kind
	children []Element
	start    int
	hasStart bool
}

// NewBuilder returns a Builder ready to accept a single root node.
func NewBuilder() *Builder {
	return &Builder{}
}

// StartNode opens a new node of the given kind as a child of whatever node
// is currently open (or as the root, if the stack is empty).
func (b *Builder) StartNode(kind Kind) {
	b.stack = append(b.stack, &openNode{kind: kind})
}

// Token attaches a single lexer token as a leaf child of the currently open
// node. Every token passed to Token must appear in the final tree exactly
// once, in source order, for the tree to stay lossless.
func (b *Builder) Token(tok lexer.Token) {
	cur := b.current()
	t := &Token{SyntaxKind: tok.Kind, text: tok.Text, start: tok.Start, end: tok.End}
	if !cur.hasStart {
		cur.start = tok.Start
		cur.hasStart = true
	}
	cur.children = append(cur.children, t)
}

// FinishNode closes the most recently opened node, attaching it as a child
// of its parent (or returning it as the result, if it was the root).
//
// Panics if there is no open node — a builder misuse the parser must never
// trigger, since StartNode/FinishNode calls are always paired statically.
func (b *Builder) FinishNode() *Node {
	n := len(b.stack)
	if n == 0 {
		panic("cst: FinishNode called with no open node")
	}
	open := b.stack[n-1]
	b.stack = b.stack[:n-1]

	start, end := spanOf(open.children)
	if open.hasStart && start > open.start {
		start = open.start
	}
	node := &Node{NodeKind: open.kind, children: open.children, start: start, end: end}

	if len(b.stack) > 0 {
		parent := b.stack[len(b.stack)-1]
		if !parent.hasStart {
			parent.start = node.start
			parent.hasStart = true
		}
		parent.children = append(parent.children, node)
	}
	return node
}

// Checkpoint returns the current depth of the open-node stack, for use
// with [Builder.AbandonTo] when a speculative parse needs to back out.
func (b *Builder) Checkpoint() int { return len(b.stack) }

// AbandonTo discards every node opened since the given checkpoint without
// finishing them, along with their accumulated children. Used by the
// parser's recovery logic when a speculative rule parse fails partway and
// must unwind without corrupting the tree.
func (b *Builder) AbandonTo(checkpoint int) {
	if checkpoint < 0 || checkpoint > len(b.stack) {
		panic("cst: invalid checkpoint")
	}
	b.stack = b.stack[:checkpoint]
}

func (b *Builder) current() *openNode {
	if len(b.stack) == 0 {
		panic("cst: Token called with no open node")
	}
	return b.stack[len(b.stack)-1]
}

func spanOf(children []Element) (start, end int) {
	start, end = -1, -1
	for _, c := range children {
		s, e := c.Span()
		if start == -1 || s < start {
			start = s
		}
		if e > end {
			end = e
		}
	}
	if start == -1 {
		start, end = 0, 0
	}
	return start, end
}
