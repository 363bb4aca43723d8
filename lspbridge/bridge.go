package lspbridge

import (
	"net/url"
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/fshlint/maki/diag"
	"github.com/fshlint/maki/location"
)

// Diagnostics converts every issue in result into protocol.Diagnostic
// values, grouped by the file:// (or synthetic-scheme) URI of the source
// each issue's span belongs to. sources is optional; when given, it lets
// the renderer attach a source excerpt's exact byte offsets to each
// position instead of falling back to an approximate column.
//
// Issues with no span are dropped: without a location there is no URI to
// key them under, and publishDiagnostics has no file-less slot to put
// them in.
func Diagnostics(result diag.Result, sources diag.SourceProvider) map[string][]protocol.Diagnostic {
	opts := []diag.RendererOption{diag.WithLSPByteFallback(diag.LSPByteFallbackApproximate)}
	if sources != nil {
		opts = append(opts, diag.WithSourceProvider(sources))
	}
	renderer := diag.NewRenderer(opts...)

	byURI := make(map[string][]protocol.Diagnostic)
	for issue := range result.Issues() {
		if !issue.HasSpan() {
			continue
		}
		lspDiag := renderer.LSPDiagnostic(issue)
		if lspDiag == nil {
			continue
		}
		uri := sourceURI(issue.Span().Source)
		byURI[uri] = append(byURI[uri], toProtocolDiagnostic(*lspDiag))
	}
	return byURI
}

// toProtocolDiagnostic reshapes diag's own LSPDiagnostic (a plain,
// glsp-independent struct kept in the diag package so it has no
// third-party dependency of its own) into glsp's wire type.
func toProtocolDiagnostic(d diag.LSPDiagnostic) protocol.Diagnostic {
	severity := protocol.DiagnosticSeverity(d.Severity) //nolint:gosec // bounded 1-4 by SeverityToLSP

	var code *protocol.IntegerOrString
	if d.Code != "" {
		code = &protocol.IntegerOrString{Value: d.Code}
	}

	var source *string
	if d.Source != "" {
		s := d.Source
		source = &s
	}

	var related []protocol.DiagnosticRelatedInformation
	if len(d.RelatedInformation) > 0 {
		related = make([]protocol.DiagnosticRelatedInformation, 0, len(d.RelatedInformation))
		for _, rel := range d.RelatedInformation {
			related = append(related, protocol.DiagnosticRelatedInformation{
				Location: protocol.Location{
					URI:   rel.Location.URI,
					Range: toProtocolRange(rel.Location.Range),
				},
				Message: rel.Message,
			})
		}
	}

	return protocol.Diagnostic{
		Range:              toProtocolRange(d.Range),
		Severity:           &severity,
		Code:               code,
		Source:             source,
		Message:            d.Message,
		RelatedInformation: related,
	}
}

func toProtocolRange(r diag.LSPRange) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: toUInteger(r.Start.Line), Character: toUInteger(r.Start.Character)},
		End:   protocol.Position{Line: toUInteger(r.End.Line), Character: toUInteger(r.End.Character)},
	}
}

func toUInteger(n int) protocol.UInteger {
	if n < 0 {
		return 0
	}
	return protocol.UInteger(n) //nolint:gosec // clamped to non-negative above
}

// sourceURI renders a location.SourceID the way publishDiagnostics expects:
// a file:// URI for a file-backed source; for a synthetic one (stdin, an
// inline fixture, and the like), the source's own identifier unchanged when
// it already contains "://", otherwise that identifier prefixed with
// "synthetic://".
func sourceURI(source location.SourceID) string {
	if cp, ok := source.CanonicalPath(); ok {
		u := url.URL{Scheme: "file", Path: cp.String()}
		return u.String()
	}
	id := source.String()
	if strings.Contains(id, "://") {
		return id
	}
	return "synthetic://" + id
}

// Publication is one textDocument/publishDiagnostics payload: the set of
// diagnostics for a single URI, plus the URI itself.
type Publication struct {
	URI         string
	Diagnostics []protocol.Diagnostic
}

// Publications turns the grouped output of Diagnostics into one
// Publication per URI, each ready to hand to a
// textDocument/publishDiagnostics notification. Clearing out a file whose
// issues have all been resolved still needs a Publication with an empty
// Diagnostics slice, which is why Diagnostics' map is walked here rather
// than skipped when empty.
func Publications(byURI map[string][]protocol.Diagnostic) []Publication {
	pubs := make([]Publication, 0, len(byURI))
	for uri, diags := range byURI {
		if diags == nil {
			diags = []protocol.Diagnostic{}
		}
		pubs = append(pubs, Publication{URI: uri, Diagnostics: diags})
	}
	return pubs
}
