// Package sourcemap provides byte-offset-to-line/column conversion for FSH
// source files.
//
// [SourceMap] precomputes line starts for a single source in O(n); offset
// lookups are O(log n) via binary search. [Registry] holds one SourceMap
// per registered [location.SourceID] and implements
// [location.PositionRegistry], so diagnostics and the LSP bridge can
// convert byte offsets to positions without depending on this package's
// concrete types.
package sourcemap

import "unicode/utf8"

// SourceMap indexes a single source's content for position conversion.
type SourceMap struct {
	content     []byte
	lineOffsets []int // lineOffsets[i] = byte offset where line i+1 starts
	runeOffsets []int // runeOffsets[i] = byte offset of the i-th rune
}

// New precomputes a SourceMap over content in O(n).
func New(content []byte) *SourceMap {
	return &SourceMap{
		content:     content,
		lineOffsets: computeLineOffsets(content),
		runeOffsets: computeRuneOffsets(content),
	}
}

// Len returns the content length in bytes.
func (m *SourceMap) Len() int { return len(m.content) }

// LineCount returns the number of lines in the source.
func (m *SourceMap) LineCount() int { return len(m.lineOffsets) }

// OffsetToPosition converts a byte offset to a 1-based (line, column) pair
// in O(log n). ok is false if offset is out of [0, len(content)] range.
func (m *SourceMap) OffsetToPosition(offset int) (line, column int, ok bool) {
	if offset < 0 || offset > len(m.content) {
		return 0, 0, false
	}
	line = findLine(m.lineOffsets, offset)
	lineStart := m.lineOffsets[line-1]
	column = columnFromByteOffset(m.runeOffsets, lineStart, offset, len(m.content))
	return line, column, true
}

// LineStartByte returns the byte offset where the given 1-based line
// starts. ok is false if line is out of range.
func (m *SourceMap) LineStartByte(line int) (int, bool) {
	if line < 1 || line > len(m.lineOffsets) {
		return 0, false
	}
	return m.lineOffsets[line-1], true
}

// LineEndByte returns the byte offset one past the last character of the
// given 1-based line, excluding its trailing line terminator.
func (m *SourceMap) LineEndByte(line int) (int, bool) {
	start, ok := m.LineStartByte(line)
	if !ok {
		return 0, false
	}
	end := len(m.content)
	if line < len(m.lineOffsets) {
		end = m.lineOffsets[line]
	}
	for end > start && (m.content[end-1] == '\n' || m.content[end-1] == '\r') {
		end--
	}
	return end, true
}

// LineText returns the text of the given 1-based line, excluding its
// trailing line terminator.
func (m *SourceMap) LineText(line int) (string, bool) {
	start, ok := m.LineStartByte(line)
	if !ok {
		return "", false
	}
	end, _ := m.LineEndByte(line)
	return string(m.content[start:end]), true
}

func computeLineOffsets(content []byte) []int {
	offsets := []int{0}
	for i := 0; i < len(content); i++ {
		switch content[i] {
		case '\n':
			offsets = append(offsets, i+1)
		case '\r':
			if i+1 < len(content) && content[i+1] == '\n' {
				offsets = append(offsets, i+2)
				i++
			} else {
				offsets = append(offsets, i+1)
			}
		}
	}
	return offsets
}

func computeRuneOffsets(content []byte) []int {
	offsets := make([]int, 0, utf8.RuneCount(content))
	for i := 0; i < len(content); {
		offsets = append(offsets, i)
		_, size := utf8.DecodeRune(content[i:])
		i += size
	}
	return offsets
}

func findLine(lineOffsets []int, byteOffset int) int {
	lo, hi := 0, len(lineOffsets)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if lineOffsets[mid] <= byteOffset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo + 1
}

func columnFromByteOffset(runeOffsets []int, lineStartByte, byteOffset, contentLen int) int {
	if byteOffset <= lineStartByte {
		return 1
	}
	lineStartRune := findRuneIndex(runeOffsets, lineStartByte)
	targetRune := findRuneIndex(runeOffsets, byteOffset)
	if byteOffset >= contentLen && len(runeOffsets) > 0 {
		targetRune = len(runeOffsets)
	}
	return targetRune - lineStartRune + 1
}

func findRuneIndex(runeOffsets []int, byteOffset int) int {
	if len(runeOffsets) == 0 {
		return 0
	}
	lo, hi := 0, len(runeOffsets)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if runeOffsets[mid] <= byteOffset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}
