package autofix

import (
	"fmt"
	"sort"

	"github.com/fshlint/maki/location"
)

// Config controls which fixes ApplyToSource and ApplyFixes are willing to
// touch.
type Config struct {
	// ApplyUnsafe allows fixes whose applicability is MaybeIncorrect.
	// Without it, only safe (Always-applicable) fixes are applied.
	ApplyUnsafe bool

	// MaxFixesPerFile caps how many fixes are applied to one file, in
	// priority order. Zero means unlimited.
	MaxFixesPerFile int

	// ValidateSyntax re-checks bracket balance on the modified content
	// before reporting success; a failure is recorded as a file-level
	// error and the modified content is still returned so a caller in
	// dry-run mode can inspect what would have broken.
	ValidateSyntax bool
}

// DefaultConfig applies only safe fixes and validates the result.
func DefaultConfig() Config {
	return Config{ValidateSyntax: true}
}

// FileError is one fix that failed to apply to a particular file.
type FileError struct {
	FixID   string
	Message string
}

// FileResult is the outcome of applying fixes to one file's content.
type FileResult struct {
	Source          location.SourceID
	AppliedCount    int
	FailedCount     int
	Errors          []FileError
	ModifiedContent string
}

// ApplyToSource applies fixes targeting source to content, honoring cfg.
// Fixes are filtered to the ones targeting source, filtered again by
// safety unless cfg.ApplyUnsafe is set, capped at cfg.MaxFixesPerFile, and
// applied in descending byte-offset order so that applying one fix never
// invalidates another still-pending fix's offsets.
//
// File I/O is the caller's responsibility: ApplyToSource never reads or
// writes a file, only transforms the content it's given.
func ApplyToSource(source location.SourceID, content []byte, fixes []Fix, cfg Config) FileResult {
	result := FileResult{Source: source}

	var candidates []Fix
	for _, f := range fixes {
		if f.Span.Source != source {
			continue
		}
		if !f.IsSafe() && !cfg.ApplyUnsafe {
			continue
		}
		candidates = append(candidates, f)
	}

	if cfg.MaxFixesPerFile > 0 && len(candidates) > cfg.MaxFixesPerFile {
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].Priority > candidates[j].Priority
		})
		candidates = candidates[:cfg.MaxFixesPerFile]
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		_, iEnd := candidates[i].span()
		_, jEnd := candidates[j].span()
		return iEnd > jEnd
	})

	modified := append([]byte(nil), content...)
	for _, f := range candidates {
		start, end := f.span()
		if start < 0 || end < start || end > len(modified) {
			result.FailedCount++
			result.Errors = append(result.Errors, FileError{
				FixID:   f.ID,
				Message: fmt.Sprintf("fix %s has invalid bounds [%d, %d) for %d-byte content", f.ID, start, end, len(modified)),
			})
			continue
		}
		var buf []byte
		buf = append(buf, modified[:start]...)
		buf = append(buf, []byte(f.Replacement)...)
		buf = append(buf, modified[end:]...)
		modified = buf
		result.AppliedCount++
	}

	result.ModifiedContent = string(modified)

	if cfg.ValidateSyntax && result.AppliedCount > 0 {
		if err := ValidateFSHSyntax(result.ModifiedContent); err != nil {
			result.Errors = append(result.Errors, FileError{
				FixID:   "",
				Message: fmt.Sprintf("syntax validation failed: %s", err),
			})
		}
	}

	return result
}

// ApplyFixes groups fixes by their target source and applies each group to
// the matching entry in contents, returning one FileResult per source that
// had at least one applicable fix. Sources with no fixes are omitted.
func ApplyFixes(contents map[location.SourceID][]byte, fixes []Fix, cfg Config) []FileResult {
	bySource := make(map[location.SourceID][]Fix)
	var order []location.SourceID
	for _, f := range fixes {
		if _, seen := bySource[f.Span.Source]; !seen {
			order = append(order, f.Span.Source)
		}
		bySource[f.Span.Source] = append(bySource[f.Span.Source], f)
	}

	var results []FileResult
	for _, src := range order {
		content, ok := contents[src]
		if !ok {
			continue
		}
		results = append(results, ApplyToSource(src, content, bySource[src], cfg))
	}
	return results
}
