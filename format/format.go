package format

import (
	"strings"

	"github.com/fshlint/maki/lexer"
	"github.com/fshlint/maki/parser"
)

// Options controls the formatter's line width, indentation, and caret
// alignment, mirroring the formatter section of a project's configuration
// file.
type Options struct {
	IndentSize  int
	LineWidth   int
	AlignCarets bool
}

// DefaultOptions returns the documented defaults: a two-space indent, a
// 100-column soft line width, and caret-assignment column alignment
// enabled.
func DefaultOptions() Options {
	return Options{IndentSize: 2, LineWidth: 100, AlignCarets: true}
}

// Result is the outcome of formatting one file's source.
type Result struct {
	Formatted string
	Changed   bool
}

// Format parses src and renders it back through the pretty printer. Lex and
// parse errors don't prevent formatting: the CST is always complete, so a
// malformed span just falls through as its enclosing error node's exact
// text.
func Format(src []byte, opts Options) Result {
	if opts.IndentSize <= 0 {
		opts.IndentSize = 2
	}
	if opts.LineWidth <= 0 {
		opts.LineWidth = 100
	}

	tokens, _ := lexer.Lex(src)
	root, _ := parser.Parse(tokens)

	doc := buildDocument(root)
	printer := NewPrinter(opts.LineWidth, opts.IndentSize)
	out := printer.Print(doc)
	out = finalize(out)
	if opts.AlignCarets {
		out = alignCaretAssignments(out)
	}

	return Result{Formatted: out, Changed: out != string(src)}
}

// finalize strips trailing whitespace from every line, collapses any run of
// more than one blank line (the builder should never produce one, but a
// verbatim error-node fallback can embed arbitrary source text), and
// ensures the output ends in exactly one trailing newline.
func finalize(s string) string {
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " \t\r")
	}
	joined := strings.Join(lines, "\n")

	for strings.Contains(joined, "\n\n\n") {
		joined = strings.ReplaceAll(joined, "\n\n\n", "\n\n")
	}

	joined = strings.TrimRight(joined, "\n")
	if joined == "" {
		return ""
	}
	return joined + "\n"
}

// alignCaretAssignments pads consecutive "* ^path = value" lines so their
// "=" signs land in the same column, the same column-alignment idea
// gofmt applies to grouped struct tags and const blocks, narrowed here
// to the one construct FSH authors actually line up by hand.
func alignCaretAssignments(s string) string {
	lines := strings.Split(s, "\n")
	result := make([]string, 0, len(lines))
	var group []string

	flush := func() {
		result = append(result, padCaretGroup(group)...)
		group = nil
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "* ^") && strings.Contains(line, " = ") {
			group = append(group, line)
			continue
		}
		flush()
		result = append(result, line)
	}
	flush()

	return strings.Join(result, "\n")
}

func padCaretGroup(lines []string) []string {
	if len(lines) <= 1 {
		return lines
	}
	width := 0
	for _, line := range lines {
		if idx := strings.Index(line, " = "); idx > width {
			width = idx
		}
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		idx := strings.Index(line, " = ")
		out[i] = line[:idx] + strings.Repeat(" ", width-idx) + " = " + line[idx+len(" = "):]
	}
	return out
}
