package orchestrate

import (
	"context"

	"github.com/fshlint/maki/diag"
	"github.com/fshlint/maki/lexer"
	"github.com/fshlint/maki/location"
	"github.com/fshlint/maki/parser"
	"github.com/fshlint/maki/rule"
	"github.com/fshlint/maki/semantic"
)

// FileTask is one file's raw input to the per-file pipeline.
type FileTask struct {
	Source  location.SourceID
	Content []byte
}

// FileOutcome is everything one file's pipeline run produced: its semantic
// model (available for export, formatting, or further inspection
// regardless of whether linting found anything) and the diagnostics a rule
// pack raised against it.
type FileOutcome struct {
	Source location.SourceID
	Model  *semantic.Model
	Issues []diag.Issue
}

// RunFilePipeline lexes, parses, builds the semantic model for, and lints
// every task, distributing the work across up to workers goroutines. One
// file's outcome never depends on another's, so this is the same
// embarrassingly-parallel shape the rest of the pipeline's file-level work
// (formatting, export-per-file) uses.
//
// Lex and parse errors never abort a file: the CST is always complete
// (malformed spans are wrapped in error nodes rather than rejected), so a
// broken file still produces a semantic model — just one missing whatever
// the recovery couldn't make sense of. pack may be nil to skip linting and
// only build models (the formatter's use case).
func RunFilePipeline(ctx context.Context, tasks []FileTask, pack *rule.RulePack, workers int) []FileOutcome {
	return Map(ctx, tasks, workers, func(_ context.Context, t FileTask) FileOutcome {
		tokens, _ := lexer.Lex(t.Content)
		root, _ := parser.Parse(tokens)
		model := semantic.BuildSemanticModel(root, t.Content, t.Source)

		var issues []diag.Issue
		if pack != nil {
			issues = pack.Run(model)
		}

		return FileOutcome{Source: t.Source, Model: model, Issues: issues}
	})
}
