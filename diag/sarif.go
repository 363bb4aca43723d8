package diag

import (
	"io"
	"sort"

	"github.com/owenrumney/go-sarif/v3/pkg/report/v210/sarif"
)

// SARIF severity levels.
const (
	sarifLevelError   = "error"
	sarifLevelWarning = "warning"
	sarifLevelNote    = "none"
)

// severityToSARIFLevel maps Severity to a SARIF result level.
func severityToSARIFLevel(s Severity) string {
	switch s {
	case Fatal, Error:
		return sarifLevelError
	case Warning:
		return sarifLevelWarning
	case Info, Hint:
		return sarifLevelNote
	default:
		return sarifLevelWarning
	}
}

// SARIFOptions configures [Renderer.FormatResultSARIF].
type SARIFOptions struct {
	// ToolName is the SARIF driver name. Defaults to "makilint".
	ToolName string

	// ToolVersion is the SARIF driver version, omitted if empty.
	ToolVersion string

	// ToolURI is the SARIF driver informationUri. Defaults to the makilint
	// project URL.
	ToolURI string
}

const (
	defaultSARIFToolName = "makilint"
	defaultSARIFToolURI  = "https://github.com/fshlint/maki"
)

// FormatResultSARIF writes res as a single-run SARIF 2.1.0 log.
//
// Issues without a span are still reported, anchored at a file-level
// location using SourceName; an issue with neither a span nor a SourceName
// is reported without a location.
func (r *Renderer) FormatResultSARIF(w io.Writer, res Result, opts SARIFOptions) error {
	toolName := opts.ToolName
	if toolName == "" {
		toolName = defaultSARIFToolName
	}
	toolURI := opts.ToolURI
	if toolURI == "" {
		toolURI = defaultSARIFToolURI
	}

	report := sarif.NewReport()
	run := sarif.NewRunWithInformationURI(toolName, toolURI)
	if opts.ToolVersion != "" {
		run.Tool.Driver.WithVersion(opts.ToolVersion)
	}

	issues := res.IssuesSlice()

	// Rule definitions, one per distinct code, in stable sorted order.
	ruleCodes := make(map[string]Issue)
	fileSet := make(map[string]struct{})
	for _, issue := range issues {
		code := issue.Code().String()
		if _, exists := ruleCodes[code]; !exists {
			ruleCodes[code] = issue
		}
		if file := r.sarifArtifact(issue); file != "" {
			fileSet[file] = struct{}{}
		}
	}

	codes := make([]string, 0, len(ruleCodes))
	for code := range ruleCodes {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		issue := ruleCodes[code]
		rule := run.AddRule(code)
		if msg := issue.Message(); msg != "" {
			rule.WithShortDescription(sarif.NewMultiformatMessageString().WithText(msg))
		}
	}

	files := make([]string, 0, len(fileSet))
	for file := range fileSet {
		files = append(files, file)
	}
	sort.Strings(files)
	for _, file := range files {
		run.AddDistinctArtifact(file)
	}

	for _, issue := range issues {
		result := sarif.NewRuleResult(issue.Code().String()).
			WithMessage(sarif.NewTextMessage(issue.Message())).
			WithLevel(severityToSARIFLevel(issue.Severity()))

		if artifact := r.sarifArtifact(issue); artifact != "" {
			physicalLocation := sarif.NewPhysicalLocation().
				WithArtifactLocation(sarif.NewSimpleArtifactLocation(artifact))

			if issue.HasSpan() && issue.Span().Start.IsKnown() {
				span := issue.Span()
				region := sarif.NewRegion().WithStartLine(span.Start.Line)
				region.WithStartColumn(span.Start.Column)
				if span.End.IsKnown() && (span.End.Line != span.Start.Line || span.End.Column != span.Start.Column) {
					region.WithEndLine(span.End.Line)
					region.WithEndColumn(span.End.Column)
				}
				physicalLocation.WithRegion(region)
			}

			result.WithLocations([]*sarif.Location{
				sarif.NewLocationWithPhysicalLocation(physicalLocation),
			})
		}

		run.AddResult(result)
	}

	report.AddRun(run)
	return report.PrettyWrite(w)
}

// sarifArtifact returns the file-like identifier SARIF should attach a
// result to: the span's source when present, else SourceName.
func (r *Renderer) sarifArtifact(issue Issue) string {
	if issue.HasSpan() {
		return issue.Span().Source.String()
	}
	return issue.SourceName()
}
