package orchestrate

import (
	"context"
	"fmt"

	"github.com/fshlint/maki/depgraph"
	"github.com/fshlint/maki/export"
	"github.com/fshlint/maki/semantic"
)

// ExportOutcome is one resource's export result within a processing batch.
type ExportOutcome struct {
	Name   string
	Result *export.Result
	Err    error
}

// RunExportBatches walks graph's processing batches in dependency order,
// exporting every resource named in a batch concurrently (up to workers
// goroutines) before moving to the next batch. A resource is only
// exported once everything it depends on has already been exported in an
// earlier batch; within a batch, order is undefined, matching the ordering
// guarantee the dependency graph's batch labeling makes.
//
// resources supplies the actual definition behind each name the graph
// knows about; a name with no entry produces an ExportOutcome carrying an
// error instead of panicking, so one missing or misnamed dependency
// doesn't abort the whole run. Whether a name belongs in the export
// universe at all (e.g. restricting to Profiles) is the caller's decision,
// made by what it puts in resources — exporter.Export itself rejects any
// resource kind it doesn't handle.
//
// register, if non-nil, is called once per successful export after its
// batch finishes and before the next one starts — the hook a caller uses
// to feed a freshly exported profile into the package fishing tier
// (canonical.Package.AddResource) so a later batch can resolve a parent
// that is itself a profile this run just exported. Without it, nothing
// later than batch 0 can depend on a profile defined in this run.
//
// A context cancelled before a batch starts short-circuits every
// remaining batch, reporting ctx.Err() for each of their names rather than
// running them; a batch already in flight runs to completion.
func RunExportBatches(
	ctx context.Context,
	graph *depgraph.Graph,
	resources map[string]*semantic.FhirResource,
	exporter *export.ProfileExporter,
	register func(*export.Result),
	workers int,
) []ExportOutcome {
	var all []ExportOutcome

	for _, batch := range graph.ProcessingBatches() {
		if ctx.Err() != nil {
			for _, name := range batch {
				all = append(all, ExportOutcome{Name: name, Err: ctx.Err()})
			}
			continue
		}

		batchResults := Map(ctx, batch, workers, func(_ context.Context, name string) ExportOutcome {
			res, ok := resources[name]
			if !ok {
				return ExportOutcome{Name: name, Err: fmt.Errorf("export: no resource named %q in this run", name)}
			}
			result, err := exporter.Export(res)
			return ExportOutcome{Name: name, Result: result, Err: err}
		})

		if register != nil {
			for _, r := range batchResults {
				if r.Err == nil && r.Result != nil {
					register(r.Result)
				}
			}
		}
		all = append(all, batchResults...)
	}

	return all
}
