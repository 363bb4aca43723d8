package orchestrate

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/fshlint/maki/canonical"
	"github.com/fshlint/maki/depgraph"
	"github.com/fshlint/maki/diag"
	"github.com/fshlint/maki/export"
	"github.com/fshlint/maki/pathresolve"
	"github.com/fshlint/maki/rule"
	"github.com/fshlint/maki/semantic"
)

// RunResult is everything one invocation over a set of files produced: the
// per-file pipeline outcomes plus one export outcome for every name the
// dependency graph placed into a processing batch (an error outcome for a
// name that is not a Profile or has no resource in this run).
type RunResult struct {
	Files   []FileOutcome
	Exports []ExportOutcome
}

// Run executes the full per-invocation pipeline: file-level work across a
// worker pool, then a fishing tank assembled from every resulting model,
// then dependency-ordered export of every name in the dependency graph, of
// which only Profiles can export successfully.
//
// baseURL seeds both the tank's synthesized canonical URLs and the
// exporter's own, so a profile authored in this run and one fished back out
// of the tank agree on their URL. defs optionally supplies external
// StructureDefinition JSON (a loaded core or IG package) that the tank's own
// resources take priority over; it may be nil to restrict fishing to this
// run's files.
func Run(ctx context.Context, tasks []FileTask, pack *rule.RulePack, defs *canonical.DefinitionSet, baseURL string, workers int) RunResult {
	files := RunFilePipeline(ctx, tasks, pack, workers)

	tank := canonical.NewFshTank(baseURL)
	var models []*semantic.Model
	resources := make(map[string]*semantic.FhirResource)
	for _, f := range files {
		if f.Model == nil {
			continue
		}
		models = append(models, f.Model)
		tank.AddModel(f.Model)
		for _, res := range f.Model.Resources() {
			resources[res.Name] = res
		}
	}

	if defs == nil {
		defs = canonical.NewDefinitionSet()
	}
	pkg := canonical.NewPackage()
	fisher := canonical.NewFishingContext(pkg, tank, defs)
	resolver := pathresolve.NewResolver(fisher)
	exporter := export.NewProfileExporter(fisher, resolver, baseURL)

	// RunFilePipeline's sync pass ran every rule before this run's fishing
	// tank existed, so the few rules that need to resolve another file's
	// (or an external package's) definition only ran their no-session
	// fallback. Now that every file is in the tank, give those rules a
	// second pass with a real session.
	if pack != nil {
		runSessionAwareRules(files, pack, fisher)
	}

	register := func(result *export.Result) {
		raw, err := json.Marshal(result.StructureDefinition)
		if err != nil {
			return
		}
		pkg.AddResource(result.StructureDefinition.URL, raw)
	}

	graph := depgraph.BuildGraph(models)
	exports := RunExportBatches(ctx, graph, resources, exporter, register, workers)

	return RunResult{Files: files, Exports: exports}
}

// FailedExports filters a RunResult's exports down to the ones that did not
// succeed, formatting each as a single line suitable for a summary report.
func (r RunResult) FailedExports() []string {
	var lines []string
	for _, e := range r.Exports {
		if e.Err != nil {
			lines = append(lines, fmt.Sprintf("%s: %v", e.Name, e.Err))
		}
	}
	return lines
}

// runSessionAwareRules re-checks every file's model against the rules in
// pack that implement [rule.SessionAwareRule], now that session can
// resolve definitions across the whole run. It mutates each FileOutcome's
// Issues in place: first dropping that outcome's findings from a
// session-aware rule's no-session fallback (produced by the earlier sync
// pass), then appending what CheckWithSession found instead, then
// re-sorting by span.
func runSessionAwareRules(files []FileOutcome, pack *rule.RulePack, session *canonical.FishingContext) {
	var sessionRules []rule.SessionAwareRule
	for _, r := range pack.Rules() {
		if sr, ok := r.(rule.SessionAwareRule); ok {
			sessionRules = append(sessionRules, sr)
		}
	}
	if len(sessionRules) == 0 {
		return
	}

	sessionRuleIDs := make(map[string]bool, len(sessionRules))
	for _, sr := range sessionRules {
		sessionRuleIDs[sr.ID()] = true
	}

	for i := range files {
		f := &files[i]
		if f.Model == nil {
			continue
		}

		kept := f.Issues[:0:0]
		for _, issue := range f.Issues {
			if !sessionRuleIDs[issue.Code().String()] {
				kept = append(kept, issue)
			}
		}
		for _, sr := range sessionRules {
			kept = append(kept, sr.CheckWithSession(f.Model, session)...)
		}
		sort.SliceStable(kept, func(a, b int) bool {
			return issueSpanLess(kept[a], kept[b])
		})
		f.Issues = kept
	}
}

func issueSpanLess(a, b diag.Issue) bool {
	aHas, bHas := a.HasSpan(), b.HasSpan()
	if aHas != bHas {
		return aHas
	}
	if !aHas {
		return false
	}
	as, bs := a.Span(), b.Span()
	if as.Start.Line != bs.Start.Line {
		return as.Start.Line < bs.Start.Line
	}
	return as.Start.Column < bs.Start.Column
}
