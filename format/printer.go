package format

import "strings"

// Printer renders a format-element tree into text, deciding per group
// whether its content fits on the current line or must be broken across
// several, the same two-pass measure-then-render strategy the original
// Rust formatter's Group/SoftLineBreak primitives were built to support.
type Printer struct {
	lineWidth  int
	indentSize int
}

// NewPrinter builds a Printer with the given soft line-width target and
// per-level indent width. Non-positive values fall back to the formatter's
// documented defaults (100, 2).
func NewPrinter(lineWidth, indentSize int) *Printer {
	if lineWidth <= 0 {
		lineWidth = 100
	}
	if indentSize <= 0 {
		indentSize = 2
	}
	return &Printer{lineWidth: lineWidth, indentSize: indentSize}
}

type printState struct {
	out strings.Builder
	col int
}

func (st *printState) write(s string) {
	if s == "" {
		return
	}
	st.out.WriteString(s)
	if idx := strings.LastIndexByte(s, '\n'); idx >= 0 {
		st.col = len(s) - idx - 1
	} else {
		st.col += len(s)
	}
}

func (st *printState) newline(indent int) {
	st.out.WriteByte('\n')
	pad := strings.Repeat(" ", indent)
	st.out.WriteString(pad)
	st.col = len(pad)
}

// Print renders root at the start of a fresh line.
func (p *Printer) Print(root Element) string {
	st := &printState{}
	p.render(st, root, 0)
	return st.out.String()
}

func (p *Printer) render(st *printState, e Element, indent int) {
	switch e.Kind {
	case ElemToken, ElemText:
		st.write(e.Str)
	case ElemSpace:
		st.write(" ")
	case ElemHardLineBreak:
		st.newline(indent)
	case ElemSoftLineBreak:
		// A bare SoftLineBreak outside any group (no fit decision made)
		// renders flat; callers always wrap wrappable content in a group.
		st.write(e.Str)
	case ElemGroup:
		p.renderGroup(st, e, indent)
	}
}

func (p *Printer) renderGroup(st *printState, g Element, indent int) {
	childIndent := indent + g.Indent*p.indentSize

	if !containsHardBreak(g.Children) && st.col+flatWidth(g.Children) <= p.lineWidth {
		p.renderFlat(st, g.Children)
		return
	}
	p.renderBroken(st, g.Children, childIndent)
}

func (p *Printer) renderFlat(st *printState, children []Element) {
	for _, c := range children {
		switch c.Kind {
		case ElemToken, ElemText, ElemSoftLineBreak:
			st.write(c.Str)
		case ElemSpace:
			st.write(" ")
		case ElemGroup:
			p.renderFlat(st, c.Children)
		}
	}
}

func (p *Printer) renderBroken(st *printState, children []Element, indent int) {
	for _, c := range children {
		switch c.Kind {
		case ElemToken, ElemText:
			st.write(c.Str)
		case ElemSpace:
			st.write(" ")
		case ElemSoftLineBreak, ElemHardLineBreak:
			st.newline(indent)
		case ElemGroup:
			p.renderGroup(st, c, indent)
		}
	}
}

// containsHardBreak reports whether any descendant is an unconditional
// line break, which forces the enclosing group to render broken regardless
// of its flat width.
func containsHardBreak(children []Element) bool {
	for _, c := range children {
		switch c.Kind {
		case ElemHardLineBreak:
			return true
		case ElemGroup:
			if containsHardBreak(c.Children) {
				return true
			}
		}
	}
	return false
}

// flatWidth measures the width children would occupy if rendered on one
// line: every break collapses to its flat form (a space, or a
// SoftLineBreak's fallback text).
func flatWidth(children []Element) int {
	w := 0
	for _, c := range children {
		switch c.Kind {
		case ElemToken, ElemText, ElemSoftLineBreak:
			w += len(c.Str)
		case ElemSpace:
			w++
		case ElemGroup:
			w += flatWidth(c.Children)
		}
	}
	return w
}
