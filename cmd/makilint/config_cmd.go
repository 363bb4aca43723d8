package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/fshlint/maki/config"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create, inspect, and validate .makirc configuration",
	}

	cmd.AddCommand(newConfigInitCommand())
	cmd.AddCommand(newConfigValidateCommand())
	cmd.AddCommand(newConfigShowCommand())

	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var format string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a .makirc file seeded with the built-in defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(format, force)
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "file format: json|toml")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")

	return cmd
}

func runConfigInit(format string, force bool) error {
	var name string
	var body []byte
	var err error

	switch format {
	case "json":
		name = ".makirc.json"
		body, err = json.MarshalIndent(config.Default(), "", "  ")
	case "toml":
		name = ".makirc.toml"
		body, err = toml.Marshal(config.Default())
	default:
		return fmt.Errorf("unknown --format %q (want json or toml)", format)
	}
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}

	if !force {
		if _, statErr := os.Stat(name); statErr == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", name)
		}
	}

	if err := os.WriteFile(name, append(body, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	fmt.Println(name)
	return nil
}

func newConfigValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the resolved config and report whether it parses",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig()
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if cfg.ConfigFile == "" {
				fmt.Println("no config file found; using built-in defaults")
			} else {
				fmt.Printf("%s is valid\n", cfg.ConfigFile)
			}
			return nil
		},
	}
}

func newConfigShowCommand() *cobra.Command {
	var resolved bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the active configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg *config.Config
			var err error
			if resolved {
				cfg, err = resolveConfig()
			} else {
				cfg = config.Default()
			}
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			body, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			fmt.Println(string(body))
			return nil
		},
	}

	cmd.Flags().BoolVar(&resolved, "resolved", false, "show the config as discovered and merged for the working directory, instead of the built-in defaults")

	return cmd
}
