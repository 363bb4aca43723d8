package main

import (
	"fmt"
	"os"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"

	"github.com/fshlint/maki/format"
)

type fmtFlags struct {
	write bool
	check bool
	diff  bool
}

func newFmtCommand() *cobra.Command {
	var f fmtFlags

	cmd := &cobra.Command{
		Use:   "fmt [paths...]",
		Short: "Format FHIR Shorthand files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFmt(args, f)
		},
	}

	cmd.Flags().BoolVar(&f.write, "write", false, "write the formatted output back to each file")
	cmd.Flags().BoolVar(&f.check, "check", false, "exit nonzero if any file is not already formatted, without writing")
	cmd.Flags().BoolVar(&f.diff, "diff", false, "print a unified diff of the formatting changes instead of the formatted text")

	return cmd
}

func runFmt(args []string, f fmtFlags) error {
	cfg, err := resolveConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !cfg.Formatter.Enabled {
		fmt.Fprintln(os.Stderr, "makilint: formatter disabled in config")
		return nil
	}

	paths, err := discoverFiles(cfg, args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "makilint: no files to format")
		return nil
	}

	opts := format.Options{
		IndentSize:  cfg.Formatter.IndentSize,
		LineWidth:   cfg.Formatter.LineWidth,
		AlignCarets: cfg.Formatter.AlignCarets,
	}
	if opts.IndentSize == 0 && opts.LineWidth == 0 {
		opts = format.DefaultOptions()
	}

	unformatted := 0
	for _, path := range paths {
		original, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		result := format.Format(original, opts)
		if !result.Changed {
			continue
		}
		unformatted++

		switch {
		case f.check:
			fmt.Println(path)
		case f.diff:
			if err := printFmtDiff(path, string(original), result.Formatted); err != nil {
				return err
			}
		case f.write:
			if err := os.WriteFile(path, []byte(result.Formatted), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			fmt.Println(path)
		default:
			fmt.Print(result.Formatted)
		}
	}

	if f.check && unformatted > 0 {
		exitCode = 1
	}
	return nil
}

func printFmtDiff(path, original, formatted string) error {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(original),
		B:        difflib.SplitLines(formatted),
		FromFile: path,
		ToFile:   path + " (formatted)",
		Context:  3,
	})
	if err != nil {
		return fmt.Errorf("diff %s: %w", path, err)
	}
	fmt.Print(diff)
	return nil
}
