package semantic

import (
	"github.com/fshlint/maki/cst"
	"github.com/fshlint/maki/location"
	"github.com/fshlint/maki/sourcemap"
)

// Model is the semantic model of a single FSH source file: its CST, the
// original source text, a source map for position conversion, and the
// resources/symbols/aliases/references materialized from a single pass
// over the tree.
//
// A Model is immutable once returned by [BuildSemanticModel] or
// [Builder.Build]; nothing on it is mutated in place.
type Model struct {
	root      *cst.Node
	content   []byte
	source    location.SourceID
	sourceMap *sourcemap.SourceMap

	resources  []*FhirResource
	symbols    *SymbolTable
	aliases    *AliasTable
	references []Reference
}

// Source returns the identity of the file this model was built from.
func (m *Model) Source() location.SourceID { return m.source }

// CST returns the document root this model was built from.
func (m *Model) CST() *cst.Node { return m.root }

// Content returns the original source text (a defensive copy).
func (m *Model) Content() []byte {
	out := make([]byte, len(m.content))
	copy(out, m.content)
	return out
}

// SourceMap returns the precomputed offset-to-position index for this
// file.
func (m *Model) SourceMap() *sourcemap.SourceMap { return m.sourceMap }

// Resources returns every top-level definition, in source order.
func (m *Model) Resources() []*FhirResource {
	out := make([]*FhirResource, len(m.resources))
	copy(out, m.resources)
	return out
}

// ResourcesByKind returns every top-level definition of the given kind, in
// source order.
func (m *Model) ResourcesByKind(kind ResourceKind) []*FhirResource {
	var out []*FhirResource
	for _, r := range m.resources {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

// Symbols returns the name-keyed symbol table.
func (m *Model) Symbols() *SymbolTable { return m.symbols }

// Aliases returns the name-keyed alias table.
func (m *Model) Aliases() *AliasTable { return m.aliases }

// References returns every identifier reference recorded in the document,
// in source order.
func (m *Model) References() []Reference {
	out := make([]Reference, len(m.references))
	copy(out, m.references)
	return out
}

// span converts a byte range from the CST into a location.Span anchored at
// this model's source.
func (m *Model) span(start, end int) location.Span {
	startLine, startCol, startOK := m.sourceMap.OffsetToPosition(start)
	endLine, endCol, endOK := m.sourceMap.OffsetToPosition(end)
	if !startOK || !endOK {
		return location.PointWithByte(m.source, 1, 1, start)
	}
	return location.RangeWithBytes(m.source, startLine, startCol, start, endLine, endCol, end)
}
