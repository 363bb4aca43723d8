package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/fshlint/maki/config"
	"github.com/fshlint/maki/location"
)

// contentProvider backs diag.SourceProvider directly from the file content
// already read for a run's pipeline, rather than re-reading from disk (or
// depending on a registry that resolves paths on its own) at render time.
type contentProvider struct {
	contents map[location.SourceID][]byte
}

func newContentProvider(contents map[location.SourceID][]byte) *contentProvider {
	return &contentProvider{contents: contents}
}

func (p *contentProvider) Content(span location.Span) ([]byte, bool) {
	b, ok := p.contents[span.Source]
	return b, ok
}

// defaultInclude is used when neither explicit paths nor a config file's
// files.include say what to lint: every .fsh file beneath the working
// directory.
var defaultInclude = []string{"**/*.fsh"}

// discoverFiles resolves the set of .fsh files an invocation should
// consider. Explicit command-line paths take priority over the config
// file's files.include/files.exclude; a directory argument is expanded to
// every .fsh file beneath it, a file argument is taken as-is, and anything
// else is treated as a glob pattern in its own right.
func discoverFiles(cfg *config.Config, args []string) ([]string, error) {
	if len(args) > 0 {
		return expandArgs(args)
	}
	return globConfigured(cfg)
}

func expandArgs(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(path string) {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		if !seen[abs] {
			seen[abs] = true
			out = append(out, path)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		switch {
		case err == nil && info.IsDir():
			matches, err := doublestar.FilepathGlob(filepath.Join(arg, "**/*.fsh"))
			if err != nil {
				return nil, fmt.Errorf("scanning %s: %w", arg, err)
			}
			for _, m := range matches {
				add(m)
			}
		case err == nil:
			add(arg)
		default:
			matches, err := doublestar.FilepathGlob(arg)
			if err != nil || len(matches) == 0 {
				return nil, fmt.Errorf("no files matched %q", arg)
			}
			for _, m := range matches {
				add(m)
			}
		}
	}
	return out, nil
}

func globConfigured(cfg *config.Config) ([]string, error) {
	includes := cfg.Files.Include
	if len(includes) == 0 {
		includes = defaultInclude
	}

	seen := make(map[string]bool)
	var candidates []string
	for _, pattern := range includes {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("files.include pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				candidates = append(candidates, m)
			}
		}
	}

	if len(cfg.Files.Exclude) == 0 {
		return candidates, nil
	}

	var out []string
	for _, path := range candidates {
		excluded := false
		for _, pattern := range cfg.Files.Exclude {
			if ok, _ := doublestar.Match(pattern, path); ok {
				excluded = true
				break
			}
		}
		if !excluded {
			out = append(out, path)
		}
	}
	return out, nil
}

func resolveConfig() (*config.Config, error) {
	if flagConfigPath != "" {
		return config.LoadFromFile(flagConfigPath)
	}
	return config.Load(".")
}
