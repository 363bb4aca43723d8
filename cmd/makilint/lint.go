package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fshlint/maki/autofix"
	"github.com/fshlint/maki/canonical"
	"github.com/fshlint/maki/config"
	"github.com/fshlint/maki/diag"
	"github.com/fshlint/maki/internal/trace"
	"github.com/fshlint/maki/location"
	"github.com/fshlint/maki/orchestrate"
	"github.com/fshlint/maki/rule"
)

// defaultCanonicalBase seeds both the exporter and the fishing tank's
// synthesized canonical URLs when a project names no canonical base of its
// own. The config table this CLI reads (linter/formatter/files/
// dependencies/build.fhirVersion) has no such field; real FSH projects
// configure one via sushi-config.yaml, a file this module does not read.
const defaultCanonicalBase = "http://hl7.org/fhir"

type lintFlags struct {
	write            bool
	unsafe           bool
	dryRun           bool
	interactive      bool
	format           string
	errorOnWarnings  bool
}

func newLintCommand() *cobra.Command {
	var f lintFlags

	cmd := &cobra.Command{
		Use:   "lint [paths...]",
		Short: "Lint FHIR Shorthand files and report diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLint(args, f)
		},
	}

	cmd.Flags().BoolVar(&f.write, "write", false, "apply generated fixes to files")
	cmd.Flags().BoolVar(&f.unsafe, "unsafe", false, "also apply MaybeIncorrect fixes")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "compute fixes but never write files")
	cmd.Flags().BoolVar(&f.interactive, "interactive", false, "prompt for confirmation before applying each file's fixes")
	cmd.Flags().StringVar(&f.format, "format", "text", "output format: text|json|sarif")
	cmd.Flags().BoolVar(&f.errorOnWarnings, "error-on-warnings", false, "exit nonzero if only warnings (no errors) were found")

	return cmd
}

func runLint(args []string, f lintFlags) error {
	cfg, err := resolveConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	paths, err := discoverFiles(cfg, args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "makilint: no files to lint")
		return nil
	}

	tasks, contents, err := loadTasks(paths)
	if err != nil {
		return err
	}

	var pack *rule.RulePack
	if cfg.Linter.Enabled {
		pack = rule.BuiltinRulePack()
	}

	defs := canonical.NewDefinitionSet()
	loadDependencies(cfg, defs)

	ctx := context.Background()
	op := trace.Begin(ctx, logger, "maki.orchestrate.run", slog.Int("files", len(tasks)))
	result := orchestrate.Run(ctx, tasks, pack, defs, defaultCanonicalBase, 0)
	op.End(nil, slog.Int("issues", countIssues(result)), slog.Int("exports", len(result.Exports)))

	var allIssues []diag.Issue
	for _, fo := range result.Files {
		allIssues = append(allIssues, applySeverityOverrides(fo.Issues, cfg)...)
	}
	for _, exp := range result.Exports {
		if exp.Err != nil {
			allIssues = append(allIssues, exportErrorIssue(exp))
		}
	}
	sortIssuesForReport(allIssues)

	if f.write || f.dryRun {
		applyCount, err := writeFixes(allIssues, contents, f)
		if err != nil {
			return err
		}
		if applyCount > 0 {
			fmt.Fprintf(os.Stderr, "makilint: applied fixes to %d file(s)\n", applyCount)
		}
	}

	renderer := diag.NewRenderer(
		diag.WithColors(!flagNoColor),
		diag.WithSourceProvider(newContentProvider(contents)),
	)
	collector := diag.NewCollectorUnlimited()
	collector.CollectAll(allIssues)
	res := collector.Result()

	if err := printDiagnostics(res, renderer, f.format); err != nil {
		return err
	}

	exitCode = lintExitCode(res, f.errorOnWarnings)
	return nil
}

// loadTasks reads every discovered path into an orchestrate.FileTask,
// keyed by its canonicalized location.SourceID so later stages (fix
// application, excerpt rendering) can look the same content back up.
func loadTasks(paths []string) ([]orchestrate.FileTask, map[location.SourceID][]byte, error) {
	tasks := make([]orchestrate.FileTask, 0, len(paths))
	contents := make(map[location.SourceID][]byte, len(paths))
	for _, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", p, err)
		}
		source, err := location.SourceIDFromPath(p)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve source %s: %w", p, err)
		}
		tasks = append(tasks, orchestrate.FileTask{Source: source, Content: content})
		contents[source] = content
	}
	return tasks, contents, nil
}

// loadDependencies loads configured FHIR package dependencies from a local
// package cache, by convention a directory named "<name>-<version>" under
// ".fsh-packages" relative to the working directory. Downloading a package
// that isn't already there is out of scope (package-manager integration is
// an external collaborator); a missing directory is logged and skipped
// rather than treated as fatal, matching canonical errors' "log and
// continue" propagation policy.
func loadDependencies(cfg *config.Config, defs *canonical.DefinitionSet) {
	for name, version := range cfg.Dependencies {
		dir := fmt.Sprintf(".fsh-packages/%s-%s", name, version)
		if _, err := os.Stat(dir); err != nil {
			logger.Warn("dependency package not found locally", "name", name, "version", version, "dir", dir)
			continue
		}
		if err := defs.LoadDirectory(dir); err != nil {
			logger.Warn("failed loading dependency package", "name", name, "version", version, "error", err.Error())
		}
	}
}

// applySeverityOverrides rebuilds each issue whose rule (matched first by
// full code, then by the category segment before "/") has a configured
// severity override, leaving every other issue untouched.
func applySeverityOverrides(issues []diag.Issue, cfg *config.Config) []diag.Issue {
	if len(cfg.Linter.Rules) == 0 {
		return issues
	}
	out := make([]diag.Issue, len(issues))
	for i, issue := range issues {
		code := issue.Code().String()
		sev, ok := cfg.RuleSeverity(code)
		if !ok {
			if idx := strings.IndexByte(code, '/'); idx >= 0 {
				sev, ok = cfg.RuleSeverity(code[:idx])
			}
		}
		if ok {
			out[i] = diag.FromIssue(issue).WithSeverity(sev).Build()
		} else {
			out[i] = issue
		}
	}
	return out
}

func countIssues(result orchestrate.RunResult) int {
	n := 0
	for _, fo := range result.Files {
		n += len(fo.Issues)
	}
	return n
}

func exportErrorIssue(exp orchestrate.ExportOutcome) diag.Issue {
	return diag.NewIssue(diag.Error, diag.NewRuleCode("export/failed"), fmt.Sprintf("export %s: %v", exp.Name, exp.Err)).
		Build()
}

func sortIssuesForReport(issues []diag.Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		aSrc, bSrc := a.Span().Source.String(), b.Span().Source.String()
		if aSrc != bSrc {
			return aSrc < bSrc
		}
		if a.Span().Start.Line != b.Span().Start.Line {
			return a.Span().Start.Line < b.Span().Start.Line
		}
		if a.Span().Start.Column != b.Span().Start.Column {
			return a.Span().Start.Column < b.Span().Start.Column
		}
		return a.Code().String() < b.Code().String()
	})
}

// writeFixes turns every issue's suggestions into fixes, resolves
// conflicts, and applies the survivors to each affected file's in-memory
// content, writing the result back unless f.dryRun holds (or, with
// f.interactive, the user declines that file).
func writeFixes(issues []diag.Issue, contents map[location.SourceID][]byte, f lintFlags) (int, error) {
	fixes := autofix.ResolveConflicts(autofix.FromIssues(issues))
	if len(fixes) == 0 {
		return 0, nil
	}

	cfg := autofix.DefaultConfig()
	cfg.ApplyUnsafe = f.unsafe

	applied := 0
	results := autofix.ApplyFixes(contents, fixes, cfg)
	for _, r := range results {
		if r.AppliedCount == 0 {
			continue
		}
		for _, fe := range r.Errors {
			fmt.Fprintf(os.Stderr, "makilint: fix %s on %s: %s\n", fe.FixID, r.Source.String(), fe.Message)
		}
		if f.dryRun {
			applied++
			continue
		}
		path, ok := r.Source.CanonicalPath()
		if !ok {
			continue
		}
		if f.interactive && !confirmApply(path.String()) {
			continue
		}
		if err := os.WriteFile(path.String(), []byte(r.ModifiedContent), 0o644); err != nil {
			return applied, fmt.Errorf("write %s: %w", path.String(), err)
		}
		applied++
	}
	return applied, nil
}

func confirmApply(path string) bool {
	fmt.Fprintf(os.Stderr, "apply fixes to %s? [y/N] ", path)
	var answer string
	fmt.Scanln(&answer)
	return strings.EqualFold(strings.TrimSpace(answer), "y")
}

func printDiagnostics(res diag.Result, renderer *diag.Renderer, format string) error {
	switch format {
	case "text", "":
		fmt.Print(renderer.FormatResult(res))
	case "json":
		fmt.Println(string(renderer.FormatResultJSON(res)))
	case "sarif":
		if err := renderer.FormatResultSARIF(os.Stdout, res, diag.SARIFOptions{}); err != nil {
			return fmt.Errorf("render sarif: %w", err)
		}
	default:
		return fmt.Errorf("unknown --format %q (want text, json, or sarif)", format)
	}
	return nil
}

func lintExitCode(res diag.Result, errorOnWarnings bool) int {
	if !res.OK() {
		return 1
	}
	if errorOnWarnings && res.SeverityCounts().Warnings > 0 {
		return 1
	}
	return 0
}
