package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagConfigPath string
	flagLogLevel   string
	flagNoColor    bool

	logger *slog.Logger
)

// Execute builds and runs the root command, returning the process exit
// code. Cobra's own error printing is left on (it prints the error
// message; usage text is silenced); command-level logic returns an error to
// cobra, which Execute then turns into exit code 1.
func Execute(args []string) int {
	root := newRootCommand()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		return 1
	}
	return exitCode
}

// exitCode lets a subcommand request a specific nonzero exit (e.g. "lint
// found errors") without that being an `error`, since a clean lint failure
// isn't a usage mistake cobra should print as one.
var exitCode int

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "makilint",
		Short:         "A linter, formatter, and profile exporter for FHIR Shorthand",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := setupLogger(flagLogLevel)
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
	}

	root.PersistentFlags().StringVar(&flagConfigPath, "config", "", "path to a .makirc.json/.makirc.toml file (default: discovered upward from the working directory)")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "log level: error|warn|info|debug")
	root.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable ANSI color in rendered output")

	root.AddCommand(newLintCommand())
	root.AddCommand(newFmtCommand())
	root.AddCommand(newRulesCommand())
	root.AddCommand(newConfigCommand())

	return root
}

func setupLogger(level string) (*slog.Logger, error) {
	var slogLevel slog.Level
	switch level {
	case "error":
		slogLevel = slog.LevelError
	case "warn", "":
		slogLevel = slog.LevelWarn
	case "info":
		slogLevel = slog.LevelInfo
	case "debug":
		slogLevel = slog.LevelDebug
	default:
		return nil, fmt.Errorf("invalid log level: %q", level)
	}

	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slogLevel})
	return slog.New(handler), nil
}
